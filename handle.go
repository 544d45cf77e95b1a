package ledger

import (
	"context"
	"sync"

	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/transaction"
)

// Handle wraps a Ledger for safe shared use by many request handlers.
// Mutating operations take the write lock for their whole multi-step
// duration, so no reader ever observes a half-applied transfer and no
// two writers interleave; reads share the read lock. Handlers receive
// only the Handle, never the raw Ledger.
type Handle struct {
	mu     sync.RWMutex
	ledger *Ledger
}

// NewHandle wraps l. The Handle owns the ledger from then on; callers
// must not keep using l directly.
func NewHandle(l *Ledger) *Handle {
	return &Handle{ledger: l}
}

// Fee returns the configured flat transfer fee.
func (h *Handle) Fee() uint64 { return h.ledger.Fee() }

// CreateAccount registers a new account.
func (h *Handle) CreateAccount(ctx context.Context, name string) (*account.Account, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.CreateAccount(ctx, name)
}

// IncrementBalance credits an account.
func (h *Handle) IncrementBalance(ctx context.Context, name string, value uint64) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.IncrementBalance(ctx, name, value)
}

// DecrementBalance debits an account.
func (h *Handle) DecrementBalance(ctx context.Context, name string, value uint64) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.DecrementBalance(ctx, name, value)
}

// Transfer moves value between accounts, fee included.
func (h *Handle) Transfer(ctx context.Context, from, to string, value uint64) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.Transfer(ctx, from, to, value)
}

// Accounts lists every account.
func (h *Handle) Accounts(ctx context.Context) ([]*account.Account, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.Accounts(ctx)
}

// AccountBalance returns one account's balance.
func (h *Handle) AccountBalance(ctx context.Context, name string) (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.AccountBalance(ctx, name)
}

// AccountTransactions returns the transactions affecting one account.
func (h *Handle) AccountTransactions(ctx context.Context, name string) ([]*transaction.Transaction, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.AccountTransactions(ctx, name)
}

// AllTransactions returns the whole log.
func (h *Handle) AllTransactions(ctx context.Context) ([]*transaction.Transaction, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.AllTransactions(ctx)
}

// TransactionByID returns a single transaction.
func (h *Handle) TransactionByID(ctx context.Context, id uint64) (*transaction.Transaction, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.TransactionByID(ctx, id)
}
