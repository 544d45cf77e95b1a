package account

// FeeAccountName is the reserved name of the ledger-internal account that
// accumulates transfer fees. Every store backend creates it at
// initialization; it is never a valid direct target of user operations.
const FeeAccountName = "fee_acc"

// Account is the current snapshot of one named account. Name is immutable
// once created and acts as the primary key. TransactionIDs lists every
// transaction that has affected the account, in insertion (chronological)
// order.
type Account struct {
	Name           string   `json:"name"`
	Balance        uint64   `json:"balance"`
	TransactionIDs []uint64 `json:"transaction_ids"`
}

// Clone returns a deep copy. Stores hand out clones so callers can stage
// mutations without aliasing the backing record.
func (a *Account) Clone() *Account {
	c := &Account{Name: a.Name, Balance: a.Balance}
	if len(a.TransactionIDs) > 0 {
		c.TransactionIDs = make([]uint64, len(a.TransactionIDs))
		copy(c.TransactionIDs, a.TransactionIDs)
	}
	return c
}
