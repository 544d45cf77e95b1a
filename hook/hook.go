// Package hook provides an extensible hook system for the ledger engine.
// Hooks observe committed ledger events; they run after the mutation has
// been persisted and cannot veto it.
package hook

import (
	"context"

	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/transaction"
)

// Hook is the base interface that all hooks must implement.
type Hook interface {
	Name() string
}

// OnAccountCreated is called after an account has been registered.
type OnAccountCreated interface {
	Hook
	OnAccountCreated(ctx context.Context, a *account.Account) error
}

// OnBalanceChanged is called after a credit or debit has been applied to
// one account. tx is the Add or Withdraw record, a the account snapshot
// after the change.
type OnBalanceChanged interface {
	Hook
	OnBalanceChanged(ctx context.Context, tx *transaction.Transaction, a *account.Account) error
}

// OnTransfer is called after a transfer (including its fee leg, when
// any) has been fully applied. from and to are snapshots after the
// transfer; they are the same account for a self-transfer.
type OnTransfer interface {
	Hook
	OnTransfer(ctx context.Context, tx *transaction.Transaction, from, to *account.Account) error
}
