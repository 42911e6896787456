package state

import (
	"fmt"

	"github.com/bchain/bchain/foundation/ledger/database"
)

// ProcessAvailable drains every request currently sitting in the intake
// queue without blocking and returns how many were processed. Must only be
// called from the goroutine that owns the state.
func (s *State) ProcessAvailable() int {
	var processed int

	for {
		select {
		case req := <-s.intake:
			s.ProcessRequest(req)
			processed++
		default:
			return processed
		}
	}
}

// ProcessRequest executes one operation's immediate effect and sends the
// resulting reply. Must only be called from the goroutine that owns the
// state.
func (s *State) ProcessRequest(req Request) {
	var reply Reply

	switch op := req.Op.(type) {
	case CreateAccount:
		reply = s.createAccount(op)
	case Transfer:
		reply = s.admitTransfer(op)
	case BalanceQuery:
		reply = s.queryBalance(op)
	case AccountsQuery:
		reply = s.queryAccounts()
	case BlocksQuery:
		reply = s.queryBlocks(op)
	default:
		reply = Reply{
			Err:  fmt.Errorf("unknown operation %T", req.Op),
			Text: fmt.Sprintf("Unknown operation %T", req.Op),
		}
	}

	// Exactly one send per request. The reply channel is buffered with
	// capacity 1, so the send completes even when the caller has stopped
	// waiting and the miner loop moves on immediately.
	select {
	case req.Reply <- reply:
	default:
	}
}

// =============================================================================

// createAccount mutates the ledger immediately. A name collision leaves the
// existing account untouched.
func (s *State) createAccount(op CreateAccount) Reply {
	account, err := s.db.CreateAccount(op.Name, op.Balance)
	if err != nil {
		return Reply{
			Err:     err,
			Account: account,
			Text:    fmt.Sprintf("Already existing account %q with balance %d", account.AccountID, account.Balance),
		}
	}

	s.evHandler("state: createAccount: account[%s] balance[%d]", account.AccountID, account.Balance)

	return Reply{
		Account: account,
		Text:    fmt.Sprintf("Created account %q with balance %d", account.AccountID, account.Balance),
	}
}

// admitTransfer runs the admission check and, on success, queues the
// transfer for the next block. The caller is told the transfer is accepted,
// not that funds have moved.
func (s *State) admitTransfer(op Transfer) Reply {
	tran := database.Transfer{
		Sender:   op.Sender,
		Receiver: op.Receiver,
		Amount:   op.Amount,
	}

	if err := s.db.ValidateTransfer(tran); err != nil {
		return Reply{
			Err:  err,
			Text: fmt.Sprintf("Transfer rejected: %s", err),
		}
	}

	count := s.pending.Add(tran)
	s.evHandler("state: admitTransfer: tran[%s] pending[%d]", tran, count)

	return Reply{
		Text: "Will add this transfer to the next block",
	}
}

// queryBalance answers from current ledger state. Committed transfers are
// visible, admitted but uncommitted transfers are not.
func (s *State) queryBalance(op BalanceQuery) Reply {
	account, err := s.db.Query(op.Name)
	if err != nil {
		return Reply{
			Err:  err,
			Text: fmt.Sprintf("No account found for %q", op.Name),
		}
	}

	return Reply{
		Account: account,
		Text:    fmt.Sprintf("Account %q has balance %d", account.AccountID, account.Balance),
	}
}

func (s *State) queryAccounts() Reply {
	accounts := s.db.CopyAccounts()

	return Reply{
		Accounts: accounts,
		Text:     fmt.Sprintf("Ledger has %d accounts", len(accounts)),
	}
}

func (s *State) queryBlocks(op BlocksQuery) Reply {
	from := op.From
	to := op.To

	if latest, ok := s.db.LatestBlock(); ok {
		if from == QueryLatest {
			from = latest.Number
		}
		if to == QueryLatest {
			to = latest.Number
		}
	}

	blocks := s.db.CopyBlocks(from, to)

	return Reply{
		Blocks: blocks,
		Text:   fmt.Sprintf("Returned %d blocks", len(blocks)),
	}
}
