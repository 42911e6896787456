// Package pending maintains the set of transfers that passed admission and
// are waiting to be committed into the next block. Unlike a fee-market
// mempool there is no selection strategy: transfers leave the set in the
// exact order they were admitted.
package pending

import "github.com/bchain/bchain/foundation/ledger/database"

// Pending represents the admitted transfers queued for the next block. Like
// the database, it is owned exclusively by the miner goroutine and needs no
// locking.
type Pending struct {
	trans []database.Transfer
}

// New constructs an empty pending transfer set.
func New() *Pending {
	return &Pending{}
}

// Count returns the current number of transfers waiting for the next block.
func (p *Pending) Count() int {
	return len(p.trans)
}

// Add appends a transfer to the set, preserving admission order.
func (p *Pending) Add(tran database.Transfer) int {
	p.trans = append(p.trans, tran)
	return len(p.trans)
}

// Drain removes and returns all queued transfers in admission order. The
// returned slice is the caller's to keep.
func (p *Pending) Drain() []database.Transfer {
	trans := p.trans
	p.trans = nil

	return trans
}

// Truncate clears all the transfers from the set.
func (p *Pending) Truncate() {
	p.trans = nil
}
