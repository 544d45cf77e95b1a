package leveldb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledger "github.com/corebank/ledger"
	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/store/leveldb"
	"github.com/corebank/ledger/transaction"
)

func newStore(t *testing.T) (*leveldb.Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := leveldb.New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, err := s.CreateAccount(ctx, "alice", 10)
	require.NoError(t, err)
	_, err = s.CreateAccount(ctx, "alice", 0)
	assert.ErrorIs(t, err, ledger.ErrAccountAlreadyExists)

	a, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	a.Balance = 42
	a.TransactionIDs = []uint64{1, 2}
	require.NoError(t, s.PutAccount(ctx, a))

	got, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Balance)
	assert.Equal(t, []uint64{1, 2}, got.TransactionIDs)

	_, err = s.GetAccount(ctx, "bob")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	err = s.PutAccount(ctx, &account.Account{Name: "bob"})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	fee, err := s.FeeAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, account.FeeAccountName, fee.Name)
}

func TestTransactionOrderAndLookup(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	actions := []transaction.Action{
		transaction.Registration(),
		transaction.Add(100),
		transaction.Transfer("bob", 30, 1),
		transaction.Withdraw(5),
	}
	for i, action := range actions {
		tx, err := s.AppendTransaction(ctx, "alice", action)
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), tx.ID)
	}

	all, err := s.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(actions))
	for i, tx := range all {
		assert.Equal(t, uint64(i+1), tx.ID)
		assert.Equal(t, actions[i], tx.Action)
	}

	got, err := s.TransactionByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, transaction.Transfer("bob", 30, 1), got.Action)

	_, err = s.TransactionByID(ctx, 99)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

// TestReopenRecoversState closes the database and reopens it from the
// same directory: accounts, the log and the id counter must survive.
func TestReopenRecoversState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := leveldb.New(dir)
	require.NoError(t, err)
	_, err = s.CreateAccount(ctx, "alice", 7)
	require.NoError(t, err)
	_, err = s.AppendTransaction(ctx, "alice", transaction.Registration())
	require.NoError(t, err)
	_, err = s.AppendTransaction(ctx, "alice", transaction.Add(7))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = leveldb.New(dir)
	require.NoError(t, err)
	defer s.Close()

	a, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), a.Balance)

	// Ids keep counting from where they left off.
	tx, err := s.AppendTransaction(ctx, "alice", transaction.Withdraw(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), tx.ID)
}

// TestLedgerOnLevelDB runs the live-vs-replay cross-check on the
// persistent backend.
func TestLedgerOnLevelDB(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	l := ledger.New(s, ledger.WithFee(1))

	_, err := l.CreateAccount(ctx, "alice")
	require.NoError(t, err)
	_, err = l.CreateAccount(ctx, "bob")
	require.NoError(t, err)
	_, err = l.IncrementBalance(ctx, "alice", 100)
	require.NoError(t, err)
	_, err = l.Transfer(ctx, "alice", "bob", 10)
	require.NoError(t, err)

	balance, err := l.AccountBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(89), balance)

	txs, err := l.AllTransactions(ctx)
	require.NoError(t, err)

	restoreDir := t.TempDir()
	restoreStore, err := leveldb.New(restoreDir)
	require.NoError(t, err)
	defer restoreStore.Close()

	restored, err := ledger.Rebuild(ctx, restoreStore, txs, ledger.WithFee(1))
	require.NoError(t, err)
	got, err := restored.AccountBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(89), got)
}
