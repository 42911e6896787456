package database

// Account represents information stored in the database for an individual
// account. Balances are whole units only, there are no fractional amounts.
type Account struct {
	AccountID AccountID `json:"account_id"`
	Balance   uint64    `json:"balance"`
}

// newAccount constructs a new account value for use.
func newAccount(accountID AccountID, balance uint64) Account {
	return Account{
		AccountID: accountID,
		Balance:   balance,
	}
}

// =============================================================================

// AccountID uniquely identifies an account in the ledger. There is no
// cryptographic material behind it, the holder's chosen name is the key.
type AccountID string

// =============================================================================

// byAccount provides sorting support by the account id value.
type byAccount []Account

// Len returns the number of accounts in the list.
func (ba byAccount) Len() int {
	return len(ba)
}

// Less helps to sort the list by account id in ascending order.
func (ba byAccount) Less(i, j int) bool {
	return ba[i].AccountID < ba[j].AccountID
}

// Swap moves accounts in the order of the account id value.
func (ba byAccount) Swap(i, j int) {
	ba[i], ba[j] = ba[j], ba[i]
}
