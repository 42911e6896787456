package state

import (
	"context"

	"github.com/bchain/bchain/foundation/ledger/database"
)

// QueryLatest can be used as a range bound to ask for the newest block.
const QueryLatest = ^uint64(0)

// =============================================================================

// Operation is the closed set of commands the miner loop processes. Each
// request carries exactly one operation and receives exactly one reply.
type Operation interface {
	isOperation()
}

// CreateAccount adds a new account with a starting balance. It takes effect
// immediately when the request is drained, not at a block boundary.
type CreateAccount struct {
	Name    database.AccountID
	Balance uint64
}

// Transfer moves funds between two accounts. It is validated immediately
// but only applied when the next block is produced.
type Transfer struct {
	Sender   database.AccountID
	Receiver database.AccountID
	Amount   uint64
}

// BalanceQuery is a pure read of one account's current balance.
type BalanceQuery struct {
	Name database.AccountID
}

// AccountsQuery is a pure read of every account in the ledger.
type AccountsQuery struct{}

// BlocksQuery is a pure read of a range of the block log.
type BlocksQuery struct {
	From uint64
	To   uint64
}

func (CreateAccount) isOperation() {}
func (Transfer) isOperation()      {}
func (BalanceQuery) isOperation()  {}
func (AccountsQuery) isOperation() {}
func (BlocksQuery) isOperation()   {}

// =============================================================================

// Request pairs an operation with the single-use channel its reply must be
// sent on.
type Request struct {
	Op    Operation
	Reply chan Reply
}

// Reply carries the outcome of one operation back to the request handler
// that submitted it. Err holds one of the database package's sentinel
// errors when the operation was rejected. Text is the human readable status
// line the TCP protocol writes back verbatim.
type Reply struct {
	Err      error
	Text     string
	Account  database.Account
	Accounts []database.Account
	Blocks   []database.Block
}

// =============================================================================

// SendRequest enqueues an operation with a fresh reply channel and blocks
// until the miner loop has replied or the context expires. This is the only
// way for other goroutines to read or change ledger state.
func (s *State) SendRequest(ctx context.Context, op Operation) (Reply, error) {
	req := Request{
		Op:    op,
		Reply: make(chan Reply, 1),
	}

	select {
	case s.intake <- req:
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}

	select {
	case reply := <-req.Reply:
		return reply, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}
