// Package state is the core API for the ledger and implements all the
// business rules and processing. All mutation of account and block data
// happens on a single goroutine, the miner loop, which owns the State once
// worker.Run has registered itself. Everything else talks to that goroutine
// through the intake queue.
package state

import (
	"errors"
	"time"

	"github.com/bchain/bchain/foundation/ledger/database"
	"github.com/bchain/bchain/foundation/ledger/pending"
)

// ErrInvalidInterval is returned when the node is configured with a block
// interval that is not strictly positive. This is fatal at startup.
var ErrInvalidInterval = errors.New("block interval must be a positive number of seconds")

// intakeBuffer sets the capacity of the intake queue. Producers only block
// once this many requests are waiting for the miner loop.
const intakeBuffer = 1024

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of requests and blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for running the miner loop.
type Worker interface {
	Shutdown()
}

// =============================================================================

// Config represents the configuration required to start the ledger node.
type Config struct {
	BlockInterval time.Duration
	EvHandler     EventHandler
}

// State manages the ledger database, the pending transfer set, and the
// block production schedule.
type State struct {
	blockInterval time.Duration
	evHandler     EventHandler
	intake        chan Request
	startTime     time.Time
	lastBlockTime time.Time

	db      *database.Database
	pending *pending.Pending

	Worker Worker
}

// New constructs a new ledger state for request processing.
func New(cfg Config) (*State, error) {
	if cfg.BlockInterval <= 0 {
		return nil, ErrInvalidInterval
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := time.Now()

	state := State{
		blockInterval: cfg.BlockInterval,
		evHandler:     ev,
		intake:        make(chan Request, intakeBuffer),
		startTime:     now,
		lastBlockTime: now,

		db:      database.New(ev),
		pending: pending.New(),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start the miner loop for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down. Pending transfers that were never
// committed are lost, there is no final block.
func (s *State) Shutdown() error {
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// BlockInterval returns the configured time between block productions.
func (s *State) BlockInterval() time.Duration {
	return s.blockInterval
}

// Intake exposes the receive side of the intake queue for the miner loop.
// Only the goroutine running the miner loop may receive from it.
func (s *State) Intake() <-chan Request {
	return s.intake
}

// QueueLength reports how many requests are currently waiting in the
// intake queue.
func (s *State) QueueLength() int {
	return len(s.intake)
}
