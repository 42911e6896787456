package state

import (
	"time"

	"github.com/bchain/bchain/foundation/ledger/database"
)

// BlockDue reports whether the block interval has elapsed since the last
// block was produced. The check is against a monotonic reference point, the
// miner loop never sleeps for the interval itself.
func (s *State) BlockDue() bool {
	return time.Since(s.lastBlockTime) >= s.blockInterval
}

// MineNextBlock commits the pending transfers and appends the next block to
// the log. Every pending transfer is re-validated in admission order
// against current balances; one that no longer holds, because an earlier
// transfer in the same block drained the sender, is dropped from the block
// and never retried. A block is produced even when nothing committed.
// Must only be called from the goroutine that owns the state.
func (s *State) MineNextBlock() database.Block {
	trans := s.pending.Drain()

	committed := make([]database.Transfer, 0, len(trans))
	for _, tran := range trans {
		if err := s.db.ApplyTransfer(tran); err != nil {
			s.evHandler("state: MineNextBlock: dropped tran[%s]: %s", tran, err)
			continue
		}
		committed = append(committed, tran)
	}

	block := s.db.AppendBlock(committed)
	s.lastBlockTime = time.Now()

	s.evHandler("state: MineNextBlock: block[%d] committed[%d] dropped[%d] uptime[%v]",
		block.Number, len(committed), len(trans)-len(committed),
		time.Since(s.startTime).Round(time.Millisecond))

	return block
}
