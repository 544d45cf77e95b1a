// Package ledger provides an in-process account ledger for Go applications.
//
// Ledger is designed as a library, not a service. It tracks named
// accounts, their balances, and an append-only log of every operation
// that produced those balances (registration, credit, debit,
// transfer-with-fee). Balances are non-negative integers; transfers
// conserve money and pay a configurable flat fee into a reserved fee
// account.
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/corebank/ledger"
//	    "github.com/corebank/ledger/store/memory"
//	)
//
//	l := ledger.New(memory.New(), ledger.WithFee(1))
//	h := ledger.NewHandle(l)
//
//	acc, err := h.CreateAccount(ctx, "alice")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_, _ = h.IncrementBalance(ctx, "alice", 100)
//	_, _ = h.Transfer(ctx, "alice", "bob", 10)
//
// The Handle serializes concurrent access: share it between as many
// goroutines as you like. The raw Ledger is single-writer and belongs
// behind the Handle.
//
// # Stores
//
// Storage is pluggable behind store.Store. Three backends ship with the
// module: store/memory (the reference backend), store/leveldb
// (persistent, single-node) and store/mongo. All three enforce the same
// contract: transactions are immutable with dense ids assigned from 1,
// accounts are keyed by name, and the reserved fee account exists from
// the moment the store is created.
//
// # Replay
//
// A ledger can be reconstructed purely from its transaction log:
//
//	txs, _ := h.AllTransactions(ctx)
//	restored, err := ledger.Rebuild(ctx, memory.New(), txs, ledger.WithFee(1))
//
// Rebuild folds the log from scratch and agrees with the live ledger in
// every balance and every transaction-id list, which makes it suitable
// for recovery and for cross-checking the live operation paths.
package ledger
