package store

import (
	"context"

	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/transaction"
)

// Store is the unified storage interface backing a ledger. Instead of
// embedding the account and transaction sub-interfaces, all methods are
// declared explicitly to avoid naming conflicts.
type Store interface {
	// Account methods
	CreateAccount(ctx context.Context, name string, balance uint64) (*account.Account, error)
	GetAccount(ctx context.Context, name string) (*account.Account, error)
	PutAccount(ctx context.Context, a *account.Account) error
	FeeAccount(ctx context.Context) (*account.Account, error)
	Accounts(ctx context.Context) ([]*account.Account, error)

	// Transaction methods
	AppendTransaction(ctx context.Context, accountName string, action transaction.Action) (*transaction.Transaction, error)
	Transactions(ctx context.Context) ([]*transaction.Transaction, error)
	TransactionByID(ctx context.Context, id uint64) (*transaction.Transaction, error)

	// Core methods
	Ping(ctx context.Context) error
	Close() error
}
