package ledger_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledger "github.com/corebank/ledger"
	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/audit"
	"github.com/corebank/ledger/store"
	"github.com/corebank/ledger/store/memory"
	"github.com/corebank/ledger/transaction"
)

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New())

	acc, err := l.CreateAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.Name)
	assert.Equal(t, uint64(0), acc.Balance)
	assert.Equal(t, []uint64{1}, acc.TransactionIDs)

	tx, err := l.TransactionByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, transaction.KindRegistration, tx.Action.Kind)
	assert.Equal(t, "alice", tx.AccountName)

	_, err = l.CreateAccount(ctx, "alice")
	assert.ErrorIs(t, err, ledger.ErrAccountAlreadyExists)

	// The fee account pre-exists in every store.
	_, err = l.CreateAccount(ctx, account.FeeAccountName)
	assert.ErrorIs(t, err, ledger.ErrAccountAlreadyExists)
}

func TestIncrementAndDecrement(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New())

	_, err := l.CreateAccount(ctx, "alice")
	require.NoError(t, err)

	id, err := l.IncrementBalance(ctx, "alice", 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	balance, err := l.AccountBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)

	id, err = l.DecrementBalance(ctx, "alice", 40)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)

	balance, err = l.AccountBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(60), balance)
}

func TestOperationBoundaries(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New())
	_, err := l.CreateAccount(ctx, "alice")
	require.NoError(t, err)
	_, err = l.CreateAccount(ctx, "bob")
	require.NoError(t, err)
	_, err = l.IncrementBalance(ctx, "alice", 10)
	require.NoError(t, err)

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"zero increment", func() error {
			_, err := l.IncrementBalance(ctx, "alice", 0)
			return err
		}, ledger.ErrEmptyTransaction},
		{"zero decrement", func() error {
			_, err := l.DecrementBalance(ctx, "alice", 0)
			return err
		}, ledger.ErrEmptyTransaction},
		{"zero transfer", func() error {
			_, err := l.Transfer(ctx, "alice", "bob", 0)
			return err
		}, ledger.ErrEmptyTransaction},
		{"overdraw", func() error {
			_, err := l.DecrementBalance(ctx, "alice", 11)
			return err
		}, ledger.ErrNotEnoughMoney},
		{"transfer beyond balance", func() error {
			_, err := l.Transfer(ctx, "alice", "bob", 11)
			return err
		}, ledger.ErrNotEnoughMoney},
		{"increment unknown account", func() error {
			_, err := l.IncrementBalance(ctx, "carol", 5)
			return err
		}, ledger.ErrAccountNotFound},
		{"decrement unknown account", func() error {
			_, err := l.DecrementBalance(ctx, "carol", 5)
			return err
		}, ledger.ErrAccountNotFound},
		{"transfer to unknown account", func() error {
			_, err := l.Transfer(ctx, "alice", "carol", 5)
			return err
		}, ledger.ErrAccountNotFound},
		{"increment fee account", func() error {
			_, err := l.IncrementBalance(ctx, account.FeeAccountName, 5)
			return err
		}, ledger.ErrReservedAccount},
		{"decrement fee account", func() error {
			_, err := l.DecrementBalance(ctx, account.FeeAccountName, 5)
			return err
		}, ledger.ErrReservedAccount},
		{"transfer to fee account", func() error {
			_, err := l.Transfer(ctx, "alice", account.FeeAccountName, 5)
			return err
		}, ledger.ErrReservedAccount},
		{"unknown transaction", func() error {
			_, err := l.TransactionByID(ctx, 999)
			return err
		}, ledger.ErrTransactionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.op(), tt.want)
		})
	}

	// None of the rejected operations may have touched the balance.
	balance, err := l.AccountBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), balance)
}

// TestTransferScenario walks the canonical fee=1 script and checks the
// exact ids and balances it must produce.
func TestTransferScenario(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(), ledger.WithFee(1))

	accA, err := l.CreateAccount(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, accA.TransactionIDs)

	accB, err := l.CreateAccount(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, accB.TransactionIDs)

	id, err := l.IncrementBalance(ctx, "A", 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)

	id, err = l.Transfer(ctx, "A", "B", 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id)

	tx, err := l.TransactionByID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, transaction.Transfer("B", 10, 1), tx.Action)
	assert.Equal(t, "A", tx.AccountName)

	balance, err := l.AccountBalance(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, uint64(89), balance)

	balance, err = l.AccountBalance(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), balance)

	// The fee leg is a separate Add(1) on the fee account.
	feeTx, err := l.TransactionByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, transaction.Add(1), feeTx.Action)
	assert.Equal(t, account.FeeAccountName, feeTx.AccountName)

	balance, err = l.AccountBalance(ctx, account.FeeAccountName)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), balance)

	txs, err := l.AccountTransactions(ctx, "A")
	require.NoError(t, err)
	ids := make([]uint64, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []uint64{1, 3, 4}, ids)

	txs, err = l.AccountTransactions(ctx, "B")
	require.NoError(t, err)
	ids = ids[:0]
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []uint64{2, 4}, ids)
}

func TestTransferConservesMoney(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(), ledger.WithFee(3))

	for _, name := range []string{"alice", "bob"} {
		_, err := l.CreateAccount(ctx, name)
		require.NoError(t, err)
	}
	_, err := l.IncrementBalance(ctx, "alice", 1000)
	require.NoError(t, err)

	before := totalBalance(t, l)
	for i := 0; i < 5; i++ {
		_, err := l.Transfer(ctx, "alice", "bob", 50)
		require.NoError(t, err)
	}
	assert.Equal(t, before, totalBalance(t, l))

	balance, err := l.AccountBalance(ctx, account.FeeAccountName)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), balance)
}

func TestSelfTransferNetsToFee(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(), ledger.WithFee(2))

	_, err := l.CreateAccount(ctx, "alice")
	require.NoError(t, err)
	_, err = l.IncrementBalance(ctx, "alice", 100)
	require.NoError(t, err)

	id, err := l.Transfer(ctx, "alice", "alice", 30)
	require.NoError(t, err)

	balance, err := l.AccountBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(98), balance)

	// The transfer id is listed once even though both legs hit the
	// same account.
	txs, err := l.AccountTransactions(ctx, "alice")
	require.NoError(t, err)
	var seen int
	for _, tx := range txs {
		if tx.ID == id {
			seen++
		}
	}
	assert.Equal(t, 1, seen)
}

func TestTransactionIDsAreDense(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(), ledger.WithFee(1))

	for _, name := range []string{"a", "b", "c"} {
		_, err := l.CreateAccount(ctx, name)
		require.NoError(t, err)
	}
	_, err := l.IncrementBalance(ctx, "a", 500)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := l.Transfer(ctx, "a", "b", 10)
		require.NoError(t, err)
	}
	_, err = l.DecrementBalance(ctx, "b", 5)
	require.NoError(t, err)

	txs, err := l.AllTransactions(ctx)
	require.NoError(t, err)
	for i, tx := range txs {
		assert.Equal(t, uint64(i+1), tx.ID)
	}
}

func TestAuditHookObservesMutations(t *testing.T) {
	ctx := context.Background()

	var events []audit.Event
	recorder := audit.RecorderFunc(func(_ context.Context, e audit.Event) error {
		events = append(events, e)
		return nil
	})
	l := ledger.New(memory.New(),
		ledger.WithFee(1),
		ledger.WithHook(audit.NewWithRecorder(recorder)))

	_, err := l.CreateAccount(ctx, "alice")
	require.NoError(t, err)
	_, err = l.CreateAccount(ctx, "bob")
	require.NoError(t, err)
	_, err = l.IncrementBalance(ctx, "alice", 100)
	require.NoError(t, err)
	_, err = l.Transfer(ctx, "alice", "bob", 10)
	require.NoError(t, err)

	require.Len(t, events, 4)
	assert.Equal(t, "account_created", events[0].Action)
	assert.Equal(t, "account_created", events[1].Action)
	assert.Equal(t, "add", events[2].Action)
	assert.Equal(t, "transfer", events[3].Action)
	assert.Equal(t, "alice", events[3].Account)
	assert.Equal(t, "bob", events[3].Counterpart)
}

// failingStore wraps a store and makes PutAccount fail for chosen
// account names, to exercise the transfer rollback path.
type failingStore struct {
	store.Store
	failPut map[string]bool
}

func (s *failingStore) PutAccount(ctx context.Context, a *ledger.Account) error {
	if s.failPut[a.Name] {
		return fmt.Errorf("%w: injected put failure", ledger.ErrStorage)
	}
	return s.Store.PutAccount(ctx, a)
}

func TestTransferRollsBackOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{Store: memory.New(), failPut: map[string]bool{}}
	l := ledger.New(st, ledger.WithFee(1))

	_, err := l.CreateAccount(ctx, "alice")
	require.NoError(t, err)
	_, err = l.CreateAccount(ctx, "bob")
	require.NoError(t, err)
	_, err = l.IncrementBalance(ctx, "alice", 100)
	require.NoError(t, err)

	// The sender's put succeeds, the receiver's fails: the sender must
	// be rolled back so the transfer is not half-applied.
	st.failPut["bob"] = true
	_, err = l.Transfer(ctx, "alice", "bob", 10)
	require.Error(t, err)
	assert.True(t, ledger.IsStorage(err))

	balance, err := l.AccountBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)

	balance, err = l.AccountBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	balance, err = l.AccountBalance(ctx, account.FeeAccountName)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
}

func totalBalance(t *testing.T, l *ledger.Ledger) uint64 {
	t.Helper()
	accs, err := l.Accounts(context.Background())
	require.NoError(t, err)
	var sum uint64
	for _, a := range accs {
		sum += a.Balance
	}
	return sum
}
