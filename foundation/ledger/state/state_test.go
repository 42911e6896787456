package state_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bchain/bchain/foundation/ledger/database"
	"github.com/bchain/bchain/foundation/ledger/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// newState constructs a state with an interval long enough that no block is
// ever due on its own. The tests drive request processing and block
// production directly, standing in for the miner loop.
func newState(t *testing.T) *state.State {
	t.Helper()

	st, err := state.New(state.Config{BlockInterval: time.Hour})
	if err != nil {
		t.Fatalf("constructing state: %v", err)
	}

	return st
}

// send processes one operation synchronously and returns its reply.
func send(t *testing.T, st *state.State, op state.Operation) state.Reply {
	t.Helper()

	req := state.Request{Op: op, Reply: make(chan state.Reply, 1)}
	st.ProcessRequest(req)

	select {
	case reply := <-req.Reply:
		return reply
	default:
		t.Fatal("no reply was sent for the request")
		return state.Reply{}
	}
}

// balanceOf is a test convenience over the balance query.
func balanceOf(t *testing.T, st *state.State, name database.AccountID) (uint64, error) {
	t.Helper()

	reply := send(t, st, state.BalanceQuery{Name: name})
	return reply.Account.Balance, reply.Err
}

// =============================================================================

func Test_InvalidInterval(t *testing.T) {
	t.Log("Given the need to refuse a non-positive block interval.")
	{
		if _, err := state.New(state.Config{BlockInterval: 0}); !errors.Is(err, state.ErrInvalidInterval) {
			t.Fatalf("\t%s\tShould get ErrInvalidInterval for 0: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrInvalidInterval for 0.", success)

		if _, err := state.New(state.Config{BlockInterval: -time.Second}); !errors.Is(err, state.ErrInvalidInterval) {
			t.Fatalf("\t%s\tShould get ErrInvalidInterval for a negative value: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrInvalidInterval for a negative value.", success)
	}
}

func Test_CreateAndQuery(t *testing.T) {
	t.Log("Given the need to create accounts and serve balance reads immediately.")
	{
		st := newState(t)

		t.Logf("\tTest 0:\tWhen querying an account that was never created.")
		{
			reply := send(t, st, state.BalanceQuery{Name: "ghost"})
			if !errors.Is(reply.Err, database.ErrAccountNotFound) {
				t.Fatalf("\t%s\tTest 0:\tShould report the account as not found: %v", failed, reply.Err)
			}
			t.Logf("\t%s\tTest 0:\tShould report the account as not found.", success)

			if reply.Text != `No account found for "ghost"` {
				t.Errorf("\t%s\tTest 0:\tShould have the expected status line: got %q.", failed, reply.Text)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have the expected status line.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen creating the account afterwards.")
		{
			reply := send(t, st, state.CreateAccount{Name: "ghost", Balance: 1000})
			if reply.Err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to create the account: %v", failed, reply.Err)
			}
			if reply.Text != `Created account "ghost" with balance 1000` {
				t.Errorf("\t%s\tTest 1:\tShould have the expected status line: got %q.", failed, reply.Text)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to create the account.", success)

			balance, err := balanceOf(t, st, "ghost")
			if err != nil || balance != 1000 {
				t.Fatalf("\t%s\tTest 1:\tShould immediately read the new balance: got %d, %v.", failed, balance, err)
			}
			t.Logf("\t%s\tTest 1:\tShould immediately read the new balance.", success)
		}

		t.Logf("\tTest 2:\tWhen creating the same account again.")
		{
			reply := send(t, st, state.CreateAccount{Name: "ghost", Balance: 42})
			if !errors.Is(reply.Err, database.ErrAccountExists) {
				t.Fatalf("\t%s\tTest 2:\tShould report the collision: %v", failed, reply.Err)
			}
			if reply.Text != `Already existing account "ghost" with balance 1000` {
				t.Errorf("\t%s\tTest 2:\tShould report the untouched balance: got %q.", failed, reply.Text)
			}
			t.Logf("\t%s\tTest 2:\tShould report the collision with the untouched balance.", success)

			if balance, _ := balanceOf(t, st, "ghost"); balance != 1000 {
				t.Fatalf("\t%s\tTest 2:\tShould leave the balance unchanged: got %d.", failed, balance)
			}
			t.Logf("\t%s\tTest 2:\tShould leave the balance unchanged.", success)
		}
	}
}

func Test_TransferLifecycle(t *testing.T) {
	t.Log("Given the need to defer admitted transfers to the next block.")
	{
		st := newState(t)

		send(t, st, state.CreateAccount{Name: "alice", Balance: 1000})
		send(t, st, state.CreateAccount{Name: "bob", Balance: 9000})

		t.Logf("\tTest 0:\tWhen admitting a valid transfer.")
		{
			reply := send(t, st, state.Transfer{Sender: "alice", Receiver: "bob", Amount: 1000})
			if reply.Err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be accepted for the next block: %v", failed, reply.Err)
			}
			if reply.Text != "Will add this transfer to the next block" {
				t.Errorf("\t%s\tTest 0:\tShould have the accepted status line: got %q.", failed, reply.Text)
			}
			t.Logf("\t%s\tTest 0:\tShould be accepted for the next block.", success)

			// Funds must not move before the block boundary.
			if balance, _ := balanceOf(t, st, "alice"); balance != 1000 {
				t.Fatalf("\t%s\tTest 0:\tShould still read the pre-transfer balance for alice: got %d.", failed, balance)
			}
			if balance, _ := balanceOf(t, st, "bob"); balance != 9000 {
				t.Fatalf("\t%s\tTest 0:\tShould still read the pre-transfer balance for bob: got %d.", failed, balance)
			}
			t.Logf("\t%s\tTest 0:\tShould not move funds before the block boundary.", success)
		}

		t.Logf("\tTest 1:\tWhen the block is produced.")
		{
			block := st.MineNextBlock()
			if block.Number != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould produce block 0 first: got %d.", failed, block.Number)
			}
			if len(block.Trans) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould commit exactly one transfer: got %d.", failed, len(block.Trans))
			}
			t.Logf("\t%s\tTest 1:\tShould commit exactly one transfer into block 0.", success)

			if balance, _ := balanceOf(t, st, "alice"); balance != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould have debited alice: got %d.", failed, balance)
			}
			if balance, _ := balanceOf(t, st, "bob"); balance != 10000 {
				t.Fatalf("\t%s\tTest 1:\tShould have credited bob: got %d.", failed, balance)
			}
			t.Logf("\t%s\tTest 1:\tShould have moved the funds.", success)
		}

		t.Logf("\tTest 2:\tWhen the next block is produced with no pending work.")
		{
			block := st.MineNextBlock()
			if block.Number != 1 || len(block.Trans) != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould produce an empty block 1: got block %d with %d transfers.", failed, block.Number, len(block.Trans))
			}
			t.Logf("\t%s\tTest 2:\tShould produce an empty block 1, not re-commit the transfer.", success)

			if balance, _ := balanceOf(t, st, "bob"); balance != 10000 {
				t.Fatalf("\t%s\tTest 2:\tShould apply the transfer only once: got %d.", failed, balance)
			}
			t.Logf("\t%s\tTest 2:\tShould apply the transfer only once.", success)
		}
	}
}

func Test_SelfTransfer(t *testing.T) {
	t.Log("Given a transfer whose sender and receiver are the same account.")
	{
		st := newState(t)
		send(t, st, state.CreateAccount{Name: "alice", Balance: 1000})

		t.Logf("\tTest 0:\tWhen admitting a self-transfer within the balance.")
		{
			reply := send(t, st, state.Transfer{Sender: "alice", Receiver: "alice", Amount: 500})
			if reply.Err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be admitted like any other transfer: %v", failed, reply.Err)
			}
			t.Logf("\t%s\tTest 0:\tShould be admitted like any other transfer.", success)
		}

		t.Logf("\tTest 1:\tWhen the block is produced.")
		{
			block := st.MineNextBlock()
			if len(block.Trans) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould record the transfer in the block: got %d.", failed, len(block.Trans))
			}
			t.Logf("\t%s\tTest 1:\tShould record the transfer in the block.", success)

			if balance, _ := balanceOf(t, st, "alice"); balance != 1000 {
				t.Fatalf("\t%s\tTest 1:\tShould net to zero and leave the balance unchanged: got %d.", failed, balance)
			}
			t.Logf("\t%s\tTest 1:\tShould net to zero and leave the balance unchanged.", success)
		}
	}
}

func Test_AdmissionRejections(t *testing.T) {
	type table struct {
		name string
		op   state.Transfer
		err  error
	}

	tt := []table{
		{
			name: "unknown sender",
			op:   state.Transfer{Sender: "nobody", Receiver: "bob", Amount: 10},
			err:  database.ErrUnknownSender,
		},
		{
			name: "unknown receiver",
			op:   state.Transfer{Sender: "alice", Receiver: "nobody", Amount: 10},
			err:  database.ErrUnknownReceiver,
		},
		{
			name: "insufficient funds",
			op:   state.Transfer{Sender: "alice", Receiver: "bob", Amount: 1001},
			err:  database.ErrInsufficientFunds,
		},
	}

	t.Log("Given the need to reject bad transfers at admission time.")
	{
		st := newState(t)
		send(t, st, state.CreateAccount{Name: "alice", Balance: 1000})
		send(t, st, state.CreateAccount{Name: "bob", Balance: 9000})

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen admitting a transfer with %s.", testID, tst.name)
			{
				reply := send(t, st, tst.op)
				if !errors.Is(reply.Err, tst.err) {
					t.Fatalf("\t%s\tTest %d:\tShould be rejected with the right reason: got %v, exp %v.", failed, testID, reply.Err, tst.err)
				}
				t.Logf("\t%s\tTest %d:\tShould be rejected with the right reason.", success, testID)
			}
		}

		// None of the rejected transfers may ever appear in a block.
		block := st.MineNextBlock()
		if len(block.Trans) != 0 {
			t.Fatalf("\t%s\tShould never commit a rejected transfer: got %d in block.", failed, len(block.Trans))
		}
		t.Logf("\t%s\tShould never commit a rejected transfer.", success)

		if balance, _ := balanceOf(t, st, "alice"); balance != 1000 {
			t.Fatalf("\t%s\tShould leave balances unchanged: got %d.", failed, balance)
		}
		t.Logf("\t%s\tShould leave balances unchanged.", success)
	}
}

func Test_CommitRevalidation(t *testing.T) {
	t.Log("Given two transfers that are individually valid but not in aggregate.")
	{
		st := newState(t)
		send(t, st, state.CreateAccount{Name: "alice", Balance: 1000})
		send(t, st, state.CreateAccount{Name: "bob", Balance: 0})
		send(t, st, state.CreateAccount{Name: "carol", Balance: 0})

		t.Logf("\tTest 0:\tWhen admitting both transfers in the same interval.")
		{
			first := send(t, st, state.Transfer{Sender: "alice", Receiver: "bob", Amount: 600})
			second := send(t, st, state.Transfer{Sender: "alice", Receiver: "carol", Amount: 600})

			// Debits happen only at commit, so both admission checks saw
			// the full starting balance.
			if first.Err != nil || second.Err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould admit both transfers: %v, %v.", failed, first.Err, second.Err)
			}
			t.Logf("\t%s\tTest 0:\tShould admit both transfers.", success)
		}

		t.Logf("\tTest 1:\tWhen the block boundary re-validates in admission order.")
		{
			block := st.MineNextBlock()

			if len(block.Trans) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould commit only the first transfer: got %d.", failed, len(block.Trans))
			}
			if block.Trans[0].Receiver != "bob" {
				t.Fatalf("\t%s\tTest 1:\tShould have committed the earlier admission: got receiver %s.", failed, block.Trans[0].Receiver)
			}
			t.Logf("\t%s\tTest 1:\tShould commit only the first transfer.", success)

			aliceBalance, _ := balanceOf(t, st, "alice")
			bobBalance, _ := balanceOf(t, st, "bob")
			carolBalance, _ := balanceOf(t, st, "carol")

			if aliceBalance != 400 || bobBalance != 600 || carolBalance != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould drop the second transfer silently: got %d, %d, %d.", failed, aliceBalance, bobBalance, carolBalance)
			}
			t.Logf("\t%s\tTest 1:\tShould drop the second transfer silently.", success)

			if aliceBalance+bobBalance+carolBalance != 1000 {
				t.Fatalf("\t%s\tTest 1:\tShould conserve the total supply.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould conserve the total supply.", success)
		}

		t.Logf("\tTest 2:\tWhen the next block is produced.")
		{
			block := st.MineNextBlock()
			if len(block.Trans) != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould not retry the dropped transfer: got %d.", failed, len(block.Trans))
			}
			t.Logf("\t%s\tTest 2:\tShould not retry the dropped transfer.", success)
		}
	}
}

func Test_BlocksQuery(t *testing.T) {
	t.Log("Given the need to read the block log through the intake protocol.")
	{
		st := newState(t)
		send(t, st, state.CreateAccount{Name: "alice", Balance: 100})
		send(t, st, state.CreateAccount{Name: "bob", Balance: 0})
		send(t, st, state.Transfer{Sender: "alice", Receiver: "bob", Amount: 25})

		st.MineNextBlock()
		st.MineNextBlock()

		reply := send(t, st, state.BlocksQuery{From: 0, To: state.QueryLatest})
		if len(reply.Blocks) != 2 {
			t.Fatalf("\t%s\tShould return both blocks: got %d.", failed, len(reply.Blocks))
		}
		t.Logf("\t%s\tShould return both blocks.", success)

		if len(reply.Blocks[0].Trans) != 1 || len(reply.Blocks[1].Trans) != 0 {
			t.Fatalf("\t%s\tShould show the transfer committed in block 0 only.", failed)
		}
		t.Logf("\t%s\tShould show the transfer committed in block 0 only.", success)

		latest := send(t, st, state.BlocksQuery{From: state.QueryLatest, To: state.QueryLatest})
		if len(latest.Blocks) != 1 || latest.Blocks[0].Number != 1 {
			t.Fatalf("\t%s\tShould resolve the latest bound to block 1.", failed)
		}
		t.Logf("\t%s\tShould resolve the latest bound to block 1.", success)
	}
}

func Test_SendRequestContext(t *testing.T) {
	t.Log("Given a caller whose context expires while waiting for the loop.")
	{
		// No worker is draining the queue, so the reply never comes.
		st := newState(t)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, err := st.SendRequest(ctx, state.BalanceQuery{Name: "alice"}); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("\t%s\tShould give up when the context expires: %v", failed, err)
		}
		t.Logf("\t%s\tShould give up when the context expires.", success)
	}
}
