// Package protocol defines the line-delimited JSON command protocol spoken
// between the node's TCP listener and its clients. One line carries one
// command, and one line comes back with the outcome.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/bchain/bchain/business/sys/validate"
	"github.com/bchain/bchain/foundation/ledger/database"
	"github.com/bchain/bchain/foundation/ledger/state"
)

// Set of command kinds the node accepts over the wire.
const (
	KindCreateAccount = "create_account"
	KindBalance       = "balance"
	KindTransfer      = "transfer"
)

// Command is the wire envelope for one ledger operation. Which fields are
// required depends on the kind.
type Command struct {
	Kind     string `json:"kind" validate:"required,oneof=create_account balance transfer"`
	Name     string `json:"name,omitempty" validate:"required_if=Kind create_account,required_if=Kind balance"`
	Balance  uint64 `json:"balance,omitempty"`
	Sender   string `json:"sender,omitempty" validate:"required_if=Kind transfer"`
	Receiver string `json:"receiver,omitempty" validate:"required_if=Kind transfer"`
	Amount   uint64 `json:"amount,omitempty"`
}

// NewCreateAccount constructs the command to create an account.
func NewCreateAccount(name string, balance uint64) Command {
	return Command{
		Kind:    KindCreateAccount,
		Name:    name,
		Balance: balance,
	}
}

// NewBalance constructs the command to query an account balance.
func NewBalance(name string) Command {
	return Command{
		Kind: KindBalance,
		Name: name,
	}
}

// NewTransfer constructs the command to move funds between accounts.
func NewTransfer(sender string, receiver string, amount uint64) Command {
	return Command{
		Kind:     KindTransfer,
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
	}
}

// =============================================================================

// Validate checks the command fields against their declared rules.
func (c Command) Validate() error {
	return validate.Check(c)
}

// Operation converts a validated command into the core operation it stands
// for.
func (c Command) Operation() (state.Operation, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Kind {
	case KindCreateAccount:
		return state.CreateAccount{
			Name:    database.AccountID(c.Name),
			Balance: c.Balance,
		}, nil

	case KindBalance:
		return state.BalanceQuery{
			Name: database.AccountID(c.Name),
		}, nil

	case KindTransfer:
		return state.Transfer{
			Sender:   database.AccountID(c.Sender),
			Receiver: database.AccountID(c.Receiver),
			Amount:   c.Amount,
		}, nil
	}

	return nil, fmt.Errorf("unknown command kind %q", c.Kind)
}

// Encode marshals the command as a single newline-terminated JSON line.
func (c Command) Encode() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}

	return append(data, '\n'), nil
}

// Decode unmarshals one line of input into a command. The command still
// needs to pass Validate before it can be turned into an operation.
func Decode(line []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		return Command{}, fmt.Errorf("decoding command: %w", err)
	}

	return cmd, nil
}
