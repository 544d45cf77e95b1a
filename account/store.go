package account

import "context"

// Store is the account table contract. Implementations must create the
// reserved fee account (FeeAccountName) before accepting any other
// operation.
type Store interface {
	// Create inserts a new account with the given starting balance and an
	// empty transaction list.
	Create(ctx context.Context, name string, balance uint64) (*Account, error)

	// Get returns the account with the given name.
	Get(ctx context.Context, name string) (*Account, error)

	// Put replaces the whole stored record. It never creates: putting a
	// name that does not exist is an error.
	Put(ctx context.Context, a *Account) error

	// FeeAccount returns the reserved fee-collecting account.
	FeeAccount(ctx context.Context) (*Account, error)

	// All returns every account, the fee account included.
	All(ctx context.Context) ([]*Account, error)
}
