// Package database handles all the lower level support for maintaining the
// in-memory database of account balances and the append-only log of mined
// blocks. The database is owned exclusively by the miner goroutine. No
// locking is performed; every other goroutine reaches this data through the
// state package's intake queue and only ever sees copies.
package database

import (
	"errors"
	"sort"
	"time"
)

// Set of errors for account and transfer operations. These are reported to
// the caller in a reply and are never fatal to the node.
var (
	ErrAccountExists     = errors.New("account already exists")
	ErrAccountNotFound   = errors.New("account not found")
	ErrUnknownSender     = errors.New("unknown sender account")
	ErrUnknownReceiver   = errors.New("unknown receiver account")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Database manages data related to accounts who have transacted on the
// ledger and the blocks those transfers were committed in.
type Database struct {
	accounts  map[AccountID]Account
	blocks    []Block
	evHandler func(v string, args ...any)
}

// New constructs an empty database. The ledger always starts empty; accounts
// exist only once a create operation has been processed.
func New(evHandler func(v string, args ...any)) *Database {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Database{
		accounts:  make(map[AccountID]Account),
		evHandler: ev,
	}
}

// CreateAccount adds a new account with the specified starting balance. If
// the account already exists, the existing account is returned untouched
// along with ErrAccountExists.
func (db *Database) CreateAccount(accountID AccountID, balance uint64) (Account, error) {
	if account, exists := db.accounts[accountID]; exists {
		return account, ErrAccountExists
	}

	account := newAccount(accountID, balance)
	db.accounts[accountID] = account

	return account, nil
}

// Query retrieves an account from the database. Absence and a zero balance
// are distinct states, so a missing account is reported with
// ErrAccountNotFound rather than a zero value.
func (db *Database) Query(accountID AccountID) (Account, error) {
	account, exists := db.accounts[accountID]
	if !exists {
		return Account{}, ErrAccountNotFound
	}

	return account, nil
}

// ValidateTransfer checks a transfer against current balances. The same
// predicate runs at admission time and again at commit time so the two
// phases can never diverge.
func (db *Database) ValidateTransfer(tran Transfer) error {
	sender, exists := db.accounts[tran.Sender]
	if !exists {
		return ErrUnknownSender
	}

	if _, exists := db.accounts[tran.Receiver]; !exists {
		return ErrUnknownReceiver
	}

	if sender.Balance < tran.Amount {
		return ErrInsufficientFunds
	}

	return nil
}

// ApplyTransfer re-validates the transfer against current balances and, if
// it still holds, debits the sender and credits the receiver as one step.
func (db *Database) ApplyTransfer(tran Transfer) error {
	if err := db.ValidateTransfer(tran); err != nil {
		return err
	}

	// A self-transfer nets to zero. The debit and credit would alias the
	// same entry, so leave it untouched.
	if tran.Sender == tran.Receiver {
		return nil
	}

	sender := db.accounts[tran.Sender]
	receiver := db.accounts[tran.Receiver]

	sender.Balance -= tran.Amount
	receiver.Balance += tran.Amount

	db.accounts[tran.Sender] = sender
	db.accounts[tran.Receiver] = receiver

	return nil
}

// AppendBlock constructs the next block from the set of committed transfers
// and appends it to the block log. The sequence number is the current log
// length, so numbers start at 0 and are never reused. Blocks are appended
// even when the transfer set is empty.
func (db *Database) AppendBlock(trans []Transfer) Block {
	block := Block{
		Number:  uint64(len(db.blocks)),
		MinedAt: time.Now().UTC(),
		Trans:   trans,
	}
	db.blocks = append(db.blocks, block)

	db.evHandler("database: AppendBlock: block[%d] transfers[%d]", block.Number, len(block.Trans))

	return block
}

// LatestBlock returns the most recently mined block, if any.
func (db *Database) LatestBlock() (Block, bool) {
	if len(db.blocks) == 0 {
		return Block{}, false
	}

	return db.blocks[len(db.blocks)-1], true
}

// BlockCount returns the current length of the block log.
func (db *Database) BlockCount() int {
	return len(db.blocks)
}

// CopyBlocks returns copies of the blocks in the inclusive range
// [from, to]. The range is clamped to the log bounds.
func (db *Database) CopyBlocks(from uint64, to uint64) []Block {
	if len(db.blocks) == 0 || from > to {
		return nil
	}

	if max := uint64(len(db.blocks) - 1); to > max {
		to = max
	}
	if from >= uint64(len(db.blocks)) {
		return nil
	}

	blocks := make([]Block, 0, to-from+1)
	for _, block := range db.blocks[from : to+1] {
		blocks = append(blocks, block.copy())
	}

	return blocks
}

// CopyAccounts makes a copy of the current accounts in the database, sorted
// by account id for stable presentation.
func (db *Database) CopyAccounts() []Account {
	accounts := make([]Account, 0, len(db.accounts))
	for _, account := range db.accounts {
		accounts = append(accounts, account)
	}
	sort.Sort(byAccount(accounts))

	return accounts
}
