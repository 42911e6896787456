package database

import (
	"fmt"
	"time"
)

// Transfer moves funds between two existing accounts. Transfers are
// immutable once admitted for the next block.
type Transfer struct {
	Sender   AccountID `json:"sender"`
	Receiver AccountID `json:"receiver"`
	Amount   uint64    `json:"amount"`
}

// String implements the fmt.Stringer interface for logging.
func (t Transfer) String() string {
	return fmt.Sprintf("%s -> %s [%d]", t.Sender, t.Receiver, t.Amount)
}

// =============================================================================

// Block records the transfers committed at one block boundary. Blocks are
// never mutated after they are appended to the log.
type Block struct {
	Number  uint64     `json:"number"`
	MinedAt time.Time  `json:"mined_at"`
	Trans   []Transfer `json:"transfers"`
}

// copy returns a block whose transfer slice is independent of the log's.
func (b Block) copy() Block {
	trans := make([]Transfer, len(b.Trans))
	copy(trans, b.Trans)
	b.Trans = trans

	return b
}
