package worker

// miningOperations runs the miner loop. Each iteration drains whatever is
// queued and then checks whether a block is due, so intake processing is
// never delayed by the block timer and the boundary check happens
// regardless of queue activity. The loop wakes when a request arrives, when
// the poll ticker fires, or on shutdown; it never blocks on anything else.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started: interval[%v]", w.state.BlockInterval())
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case req := <-w.state.Intake():
			w.state.ProcessRequest(req)
		case <-w.ticker.C:
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}

		// Finish whatever else is already queued before looking at the
		// clock so a burst of requests is drained in one pass.
		w.state.ProcessAvailable()

		if w.state.BlockDue() {
			w.state.MineNextBlock()
		}
	}
}
