// Package worker implements the miner loop for the ledger node. The single
// goroutine started here is the only one that ever mutates account, pending
// transfer, or block data.
package worker

import (
	"sync"
	"time"

	"github.com/bchain/bchain/foundation/ledger/state"
)

// pollInterval bounds how long the loop waits between block boundary checks
// when the intake queue is idle. It must be small relative to the block
// interval so block cadence error stays within intake-drain cost.
const pollInterval = 10 * time.Millisecond

// =============================================================================

// Worker manages the miner loop for the ledger.
type Worker struct {
	state     *state.State
	wg        sync.WaitGroup
	ticker    *time.Ticker
	shut      chan struct{}
	evHandler state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up the miner loop.
func Run(st *state.State, evHandler state.EventHandler) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker{
		state:     st,
		ticker:    time.NewTicker(pollInterval),
		shut:      make(chan struct{}),
		evHandler: ev,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// We don't want to return until we know the miner loop is running.
	hasStarted := make(chan bool)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.miningOperations()
	}()

	<-hasStarted
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.ticker.Stop()

	close(w.shut)
	w.wg.Wait()
}
