package public

import "github.com/bchain/bchain/foundation/ledger/database"

// newAccount is the request model for creating an account.
type newAccount struct {
	Name    string `json:"name" validate:"required"`
	Balance uint64 `json:"balance"`
}

// newTransfer is the request model for admitting a transfer.
type newTransfer struct {
	Sender   string `json:"sender" validate:"required"`
	Receiver string `json:"receiver" validate:"required"`
	Amount   uint64 `json:"amount"`
}

// result is the response envelope for successful calls.
type result struct {
	Result   string             `json:"result"`
	Account  *database.Account  `json:"account,omitempty"`
	Accounts []database.Account `json:"accounts,omitempty"`
	Blocks   []database.Block   `json:"blocks,omitempty"`
}
