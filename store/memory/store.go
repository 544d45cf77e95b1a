// Package memory provides the reference in-memory store backend. It is
// the backend the ledger is specified against: a map of account snapshots
// keyed by name and an append-only slice of transactions.
package memory

import (
	"context"
	"sync"

	ledger "github.com/corebank/ledger"
	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/store"
	"github.com/corebank/ledger/transaction"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store in process memory. All methods are safe
// for concurrent use; the ledger additionally serializes multi-step
// operations through its own handle.
type Store struct {
	mu sync.RWMutex

	// Account storage
	accounts map[string]*account.Account

	// Transaction storage; ids are dense (1..n), so the record with id i
	// lives at index i-1.
	transactions []*transaction.Transaction
}

// New creates an empty store with the reserved fee account already
// present.
func New() *Store {
	s := &Store{
		accounts: make(map[string]*account.Account),
	}
	s.accounts[account.FeeAccountName] = &account.Account{Name: account.FeeAccountName}
	return s
}

// ==================== Account methods ====================

func (s *Store) CreateAccount(_ context.Context, name string, balance uint64) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[name]; exists {
		return nil, ledger.ErrAccountAlreadyExists
	}
	a := &account.Account{Name: name, Balance: balance}
	s.accounts[name] = a
	return a.Clone(), nil
}

func (s *Store) GetAccount(_ context.Context, name string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[name]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (s *Store) PutAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.Name]; !exists {
		return ledger.ErrAccountNotFound
	}
	s.accounts[a.Name] = a.Clone()
	return nil
}

func (s *Store) FeeAccount(ctx context.Context) (*account.Account, error) {
	return s.GetAccount(ctx, account.FeeAccountName)
}

func (s *Store) Accounts(_ context.Context) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.Clone())
	}
	return out, nil
}

// ==================== Transaction methods ====================

func (s *Store) AppendTransaction(_ context.Context, accountName string, action transaction.Action) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction.Transaction{
		ID:          uint64(len(s.transactions)) + 1,
		AccountName: accountName,
		Action:      action,
	}
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

func (s *Store) Transactions(_ context.Context) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*transaction.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

func (s *Store) TransactionByID(_ context.Context, id uint64) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id == 0 || id > uint64(len(s.transactions)) {
		return nil, ledger.ErrTransactionNotFound
	}
	return s.transactions[id-1], nil
}

// ==================== Core methods ====================

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
