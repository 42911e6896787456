package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/bchain/bchain/foundation/ledger/state"
	"github.com/bchain/bchain/foundation/ledger/worker"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// runNode starts a state with a running miner loop for the test and stops
// it on cleanup.
func runNode(t *testing.T, interval time.Duration) *state.State {
	t.Helper()

	st, err := state.New(state.Config{BlockInterval: interval})
	if err != nil {
		t.Fatalf("constructing state: %v", err)
	}

	worker.Run(st, nil)
	t.Cleanup(func() { st.Shutdown() })

	return st
}

func send(t *testing.T, st *state.State, op state.Operation) state.Reply {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := st.SendRequest(ctx, op)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}

	return reply
}

// =============================================================================

func Test_EndToEnd(t *testing.T) {
	interval := 500 * time.Millisecond

	t.Log("Given a running miner loop with a 500ms block interval.")
	{
		st := runNode(t, interval)

		t.Logf("\tTest 0:\tWhen creating accounts and admitting a transfer.")
		{
			if reply := send(t, st, state.CreateAccount{Name: "alice", Balance: 1000}); reply.Err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould create alice: %v", failed, reply.Err)
			}
			if reply := send(t, st, state.CreateAccount{Name: "bob", Balance: 9000}); reply.Err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould create bob: %v", failed, reply.Err)
			}
			t.Logf("\t%s\tTest 0:\tShould create both accounts.", success)

			reply := send(t, st, state.Transfer{Sender: "alice", Receiver: "bob", Amount: 1000})
			if reply.Err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould admit the transfer: %v", failed, reply.Err)
			}
			t.Logf("\t%s\tTest 0:\tShould admit the transfer.", success)

			// Queried immediately, the balances must predate the transfer.
			if reply := send(t, st, state.BalanceQuery{Name: "alice"}); reply.Account.Balance != 1000 {
				t.Fatalf("\t%s\tTest 0:\tShould still read 1000 for alice: got %d.", failed, reply.Account.Balance)
			}
			t.Logf("\t%s\tTest 0:\tShould not show the transfer before the boundary.", success)
		}

		t.Logf("\tTest 1:\tWhen the block interval elapses.")
		{
			time.Sleep(interval + 200*time.Millisecond)

			if reply := send(t, st, state.BalanceQuery{Name: "alice"}); reply.Account.Balance != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould read 0 for alice after the boundary: got %d.", failed, reply.Account.Balance)
			}
			if reply := send(t, st, state.BalanceQuery{Name: "bob"}); reply.Account.Balance != 10000 {
				t.Fatalf("\t%s\tTest 1:\tShould read 10000 for bob after the boundary: got %d.", failed, reply.Account.Balance)
			}
			t.Logf("\t%s\tTest 1:\tShould have committed the transfer.", success)

			reply := send(t, st, state.BlocksQuery{From: 0, To: state.QueryLatest})
			var committed int
			for _, block := range reply.Blocks {
				committed += len(block.Trans)
			}
			if committed != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould find the transfer in exactly one block: got %d.", failed, committed)
			}
			t.Logf("\t%s\tTest 1:\tShould find the transfer in exactly one block.", success)
		}
	}
}

func Test_BlockCadence(t *testing.T) {
	interval := 200 * time.Millisecond

	t.Log("Given a running miner loop, blocks are produced on the clock.")
	{
		st := runNode(t, interval)

		// Wait through several intervals with no work queued at all.
		time.Sleep(5*interval + interval/2)

		reply := send(t, st, state.BlocksQuery{From: 0, To: state.QueryLatest})
		blocks := reply.Blocks

		if len(blocks) < 3 {
			t.Fatalf("\t%s\tShould have produced several empty blocks: got %d.", failed, len(blocks))
		}
		t.Logf("\t%s\tShould have produced several empty blocks.", success)

		for i, block := range blocks {
			if block.Number != uint64(i) {
				t.Fatalf("\t%s\tShould number blocks consecutively: got %d at index %d.", failed, block.Number, i)
			}
			if len(block.Trans) != 0 {
				t.Fatalf("\t%s\tShould have no transfers in idle blocks.", failed)
			}
		}
		t.Logf("\t%s\tShould number blocks consecutively from 0.", success)

		for i := 1; i < len(blocks); i++ {
			gap := blocks[i].MinedAt.Sub(blocks[i-1].MinedAt)
			if gap < interval/2 || gap > 3*interval {
				t.Fatalf("\t%s\tShould keep a steady cadence: gap %v between blocks %d and %d.", failed, gap, i-1, i)
			}
		}
		t.Logf("\t%s\tShould keep a steady cadence near the configured interval.", success)
	}
}

func Test_Shutdown(t *testing.T) {
	t.Log("Given the need to stop the miner loop cleanly.")
	{
		st, err := state.New(state.Config{BlockInterval: 50 * time.Millisecond})
		if err != nil {
			t.Fatalf("constructing state: %v", err)
		}

		worker.Run(st, nil)

		// Shutdown must return with the loop goroutine stopped, not hang.
		done := make(chan struct{})
		go func() {
			st.Shutdown()
			close(done)
		}()

		select {
		case <-done:
			t.Logf("\t%s\tShould return from shutdown.", success)
		case <-time.After(2 * time.Second):
			t.Fatalf("\t%s\tShould return from shutdown.", failed)
		}
	}
}
