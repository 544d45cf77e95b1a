package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledger "github.com/corebank/ledger"
	"github.com/corebank/ledger/store/memory"
)

func TestHandleSerializesWriters(t *testing.T) {
	ctx := context.Background()
	h := ledger.NewHandle(ledger.New(memory.New()))

	_, err := h.CreateAccount(ctx, "alice")
	require.NoError(t, err)

	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := h.IncrementBalance(ctx, "alice", 1)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	balance, err := h.AccountBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(workers*perWorker), balance)

	txs, err := h.AllTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, workers*perWorker+1)
}

// TestHandleConcurrentTransfers hammers transfers between two accounts
// from both directions; conservation and non-negativity must survive.
func TestHandleConcurrentTransfers(t *testing.T) {
	ctx := context.Background()
	h := ledger.NewHandle(ledger.New(memory.New(), ledger.WithFee(1)))

	for _, name := range []string{"alice", "bob"} {
		_, err := h.CreateAccount(ctx, name)
		require.NoError(t, err)
		_, err = h.IncrementBalance(ctx, name, 10_000)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	transfer := func(from, to string) {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			// NotEnoughMoney is a legal outcome under contention; a
			// half-applied transfer is not.
			_, err := h.Transfer(ctx, from, to, 3)
			if err != nil {
				assert.ErrorIs(t, err, ledger.ErrNotEnoughMoney)
			}
		}
	}
	wg.Add(4)
	go transfer("alice", "bob")
	go transfer("bob", "alice")
	go transfer("alice", "bob")
	go transfer("bob", "alice")

	// Readers poke at shared state while the writers run.
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			accs, err := h.Accounts(ctx)
			assert.NoError(t, err)
			var sum uint64
			for _, a := range accs {
				sum += a.Balance
			}
			// Transfers only move money, so any snapshot sums to the
			// initial total.
			assert.Equal(t, uint64(20_000), sum)
		}
	}()

	wg.Wait()
	close(done)

	accs, err := h.Accounts(ctx)
	require.NoError(t, err)
	var sum uint64
	for _, a := range accs {
		sum += a.Balance
	}
	assert.Equal(t, uint64(20_000), sum)
}

func TestHandleReadOperations(t *testing.T) {
	ctx := context.Background()
	h := ledger.NewHandle(ledger.New(memory.New(), ledger.WithFee(1)))
	assert.Equal(t, uint64(1), h.Fee())

	_, err := h.CreateAccount(ctx, "alice")
	require.NoError(t, err)
	id, err := h.IncrementBalance(ctx, "alice", 7)
	require.NoError(t, err)

	tx, err := h.TransactionByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", tx.AccountName)

	txs, err := h.AccountTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}
