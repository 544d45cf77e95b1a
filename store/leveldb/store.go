// Package leveldb provides a persistent store backend on goleveldb.
// Accounts live under "a:<name>", transactions under "t:" followed by
// the big-endian id, so iterating the transaction prefix yields creation
// order. Values are JSON-encoded records.
package leveldb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	ledger "github.com/corebank/ledger"
	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/store"
	"github.com/corebank/ledger/transaction"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

var (
	accountPrefix     = []byte("a:")
	transactionPrefix = []byte("t:")
)

// Store implements store.Store on a goleveldb database.
type Store struct {
	db *leveldb.DB

	// guards lastID assignment and create-if-absent checks
	mu     sync.Mutex
	lastID uint64
}

// New opens (or creates) the database under dir, ensures the reserved
// fee account exists and recovers the last assigned transaction id.
func New(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ledger.ErrStorage, dir, err)
	}
	s := &Store{db: db}

	if _, err := s.GetAccount(context.Background(), account.FeeAccountName); errors.Is(err, ledger.ErrAccountNotFound) {
		if err := s.putAccount(&account.Account{Name: account.FeeAccountName}); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else if err != nil {
		_ = db.Close()
		return nil, err
	}

	iter := db.NewIterator(util.BytesPrefix(transactionPrefix), nil)
	if iter.Last() {
		s.lastID = binary.BigEndian.Uint64(iter.Key()[len(transactionPrefix):])
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: recover last id: %v", ledger.ErrStorage, err)
	}
	return s, nil
}

func accountKey(name string) []byte {
	key := make([]byte, 0, len(accountPrefix)+len(name))
	key = append(key, accountPrefix...)
	return append(key, name...)
}

func transactionKey(id uint64) []byte {
	key := make([]byte, len(transactionPrefix)+8)
	copy(key, transactionPrefix)
	binary.BigEndian.PutUint64(key[len(transactionPrefix):], id)
	return key
}

func (s *Store) putAccount(a *account.Account) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("%w: encode account %q: %v", ledger.ErrStorage, a.Name, err)
	}
	if err := s.db.Put(accountKey(a.Name), raw, nil); err != nil {
		return fmt.Errorf("%w: put account %q: %v", ledger.ErrStorage, a.Name, err)
	}
	return nil
}

// ==================== Account methods ====================

func (s *Store) CreateAccount(_ context.Context, name string, balance uint64) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.db.Has(accountKey(name), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: has account %q: %v", ledger.ErrStorage, name, err)
	}
	if ok {
		return nil, ledger.ErrAccountAlreadyExists
	}
	a := &account.Account{Name: name, Balance: balance}
	if err := s.putAccount(a); err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

func (s *Store) GetAccount(_ context.Context, name string) (*account.Account, error) {
	raw, err := s.db.Get(accountKey(name), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get account %q: %v", ledger.ErrStorage, name, err)
	}
	a := new(account.Account)
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("%w: decode account %q: %v", ledger.ErrStorage, name, err)
	}
	return a, nil
}

func (s *Store) PutAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.db.Has(accountKey(a.Name), nil)
	if err != nil {
		return fmt.Errorf("%w: has account %q: %v", ledger.ErrStorage, a.Name, err)
	}
	if !ok {
		return ledger.ErrAccountNotFound
	}
	return s.putAccount(a)
}

func (s *Store) FeeAccount(ctx context.Context) (*account.Account, error) {
	return s.GetAccount(ctx, account.FeeAccountName)
}

func (s *Store) Accounts(_ context.Context) ([]*account.Account, error) {
	var out []*account.Account
	iter := s.db.NewIterator(util.BytesPrefix(accountPrefix), nil)
	for iter.Next() {
		a := new(account.Account)
		if err := json.Unmarshal(iter.Value(), a); err != nil {
			iter.Release()
			return nil, fmt.Errorf("%w: decode account %q: %v", ledger.ErrStorage, iter.Key(), err)
		}
		out = append(out, a)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate accounts: %v", ledger.ErrStorage, err)
	}
	return out, nil
}

// ==================== Transaction methods ====================

func (s *Store) AppendTransaction(_ context.Context, accountName string, action transaction.Action) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction.Transaction{
		ID:          s.lastID + 1,
		AccountName: accountName,
		Action:      action,
	}
	raw, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: encode tx %d: %v", ledger.ErrStorage, tx.ID, err)
	}
	if err := s.db.Put(transactionKey(tx.ID), raw, nil); err != nil {
		return nil, fmt.Errorf("%w: put tx %d: %v", ledger.ErrStorage, tx.ID, err)
	}
	s.lastID = tx.ID
	return tx, nil
}

func (s *Store) Transactions(_ context.Context) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	iter := s.db.NewIterator(util.BytesPrefix(transactionPrefix), nil)
	for iter.Next() {
		tx := new(transaction.Transaction)
		if err := json.Unmarshal(iter.Value(), tx); err != nil {
			iter.Release()
			return nil, fmt.Errorf("%w: decode tx: %v", ledger.ErrStorage, err)
		}
		out = append(out, tx)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %v", ledger.ErrStorage, err)
	}
	return out, nil
}

func (s *Store) TransactionByID(_ context.Context, id uint64) (*transaction.Transaction, error) {
	raw, err := s.db.Get(transactionKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get tx %d: %v", ledger.ErrStorage, id, err)
	}
	tx := new(transaction.Transaction)
	if err := json.Unmarshal(raw, tx); err != nil {
		return nil, fmt.Errorf("%w: decode tx %d: %v", ledger.ErrStorage, id, err)
	}
	return tx, nil
}

// ==================== Core methods ====================

func (s *Store) Ping(_ context.Context) error {
	_, err := s.db.Has(accountKey(account.FeeAccountName), nil)
	if err != nil {
		return fmt.Errorf("%w: ping: %v", ledger.ErrStorage, err)
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ledger.ErrStorage, err)
	}
	return nil
}
