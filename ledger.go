package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/hook"
	"github.com/corebank/ledger/store"
	"github.com/corebank/ledger/transaction"
)

// Ledger is the authoritative structure of accounts and their balances.
// It orchestrates every balance-affecting operation against one store,
// enforcing non-negativity and money conservation, and owns the flat
// transfer fee paid to the reserved fee account.
//
// A Ledger is not safe for concurrent use on its own; wrap it in a
// Handle when it is shared between request handlers.
type Ledger struct {
	store  store.Store
	hooks  *hook.Registry
	logger *slog.Logger
	fee    uint64
}

// New creates a new Ledger instance on top of s. The store must already
// hold the reserved fee account; every backend in store/ guarantees
// that.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  s,
		hooks:  hook.NewRegistry(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithFee sets the flat fee charged to the sender on every transfer and
// credited to the fee account. Default is 0.
func WithFee(fee uint64) Option {
	return func(l *Ledger) {
		l.fee = fee
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.hooks.WithLogger(logger)
	}
}

// WithHook registers a hook observing committed mutations.
func WithHook(h hook.Hook) Option {
	return func(l *Ledger) {
		l.hooks.Register(h)
	}
}

// Fee returns the configured flat transfer fee.
func (l *Ledger) Fee() uint64 { return l.fee }

// Store returns the backing store.
func (l *Ledger) Store() store.Store { return l.store }

// ──────────────────────────────────────────────────
// Account lifecycle
// ──────────────────────────────────────────────────

// CreateAccount registers a new account with balance 0 and a single
// Registration transaction. The account record is written before the
// transaction, so a failed append can never leave the log referencing a
// name that was never created.
func (l *Ledger) CreateAccount(ctx context.Context, name string) (*account.Account, error) {
	a, err := l.store.CreateAccount(ctx, name, 0)
	if err != nil {
		return nil, err
	}

	tx, err := l.store.AppendTransaction(ctx, name, transaction.Registration())
	if err != nil {
		return nil, fmt.Errorf("create account %q: %w", name, err)
	}
	a.TransactionIDs = append(a.TransactionIDs, tx.ID)
	if err := l.store.PutAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("create account %q: %w", name, err)
	}

	l.logger.Debug("account created", slog.String("account", name), slog.Uint64("tx", tx.ID))
	l.hooks.EmitAccountCreated(ctx, a)
	return a, nil
}

// Accounts returns every account, the fee account included.
func (l *Ledger) Accounts(ctx context.Context) ([]*account.Account, error) {
	return l.store.Accounts(ctx)
}

// ──────────────────────────────────────────────────
// Balance operations
// ──────────────────────────────────────────────────

// IncrementBalance credits value to the named account and returns the id
// of the recorded Add transaction.
func (l *Ledger) IncrementBalance(ctx context.Context, name string, value uint64) (uint64, error) {
	if value == 0 {
		return 0, ErrEmptyTransaction
	}
	if name == account.FeeAccountName {
		return 0, ErrReservedAccount
	}

	a, err := l.store.GetAccount(ctx, name)
	if err != nil {
		return 0, err
	}

	tx, err := l.store.AppendTransaction(ctx, name, transaction.Add(value))
	if err != nil {
		return 0, fmt.Errorf("increment %q by %d: %w", name, value, err)
	}
	a.Balance += value
	a.TransactionIDs = append(a.TransactionIDs, tx.ID)
	if err := l.store.PutAccount(ctx, a); err != nil {
		return 0, fmt.Errorf("increment %q by %d: %w", name, value, err)
	}

	l.logger.Debug("balance incremented",
		slog.String("account", name), slog.Uint64("value", value), slog.Uint64("tx", tx.ID))
	l.hooks.EmitBalanceChanged(ctx, tx, a)
	return tx.ID, nil
}

// DecrementBalance debits value from the named account and returns the
// id of the recorded Withdraw transaction. The balance never goes
// negative: an over-debit fails with ErrNotEnoughMoney.
func (l *Ledger) DecrementBalance(ctx context.Context, name string, value uint64) (uint64, error) {
	if value == 0 {
		return 0, ErrEmptyTransaction
	}
	if name == account.FeeAccountName {
		return 0, ErrReservedAccount
	}

	a, err := l.store.GetAccount(ctx, name)
	if err != nil {
		return 0, err
	}
	if value > a.Balance {
		return 0, ErrNotEnoughMoney
	}

	tx, err := l.store.AppendTransaction(ctx, name, transaction.Withdraw(value))
	if err != nil {
		return 0, fmt.Errorf("decrement %q by %d: %w", name, value, err)
	}
	a.Balance -= value
	a.TransactionIDs = append(a.TransactionIDs, tx.ID)
	if err := l.store.PutAccount(ctx, a); err != nil {
		return 0, fmt.Errorf("decrement %q by %d: %w", name, value, err)
	}

	l.logger.Debug("balance decremented",
		slog.String("account", name), slog.Uint64("value", value), slog.Uint64("tx", tx.ID))
	l.hooks.EmitBalanceChanged(ctx, tx, a)
	return tx.ID, nil
}

// Transfer moves value from one account to another, charging the
// configured fee to the sender and crediting it to the fee account as a
// separate Add transaction. It returns the id of the Transfer
// transaction. All validation happens before the first write; the
// multi-account writes are applied with compensating rollback so that a
// storage failure never leaves the transfer partially applied.
func (l *Ledger) Transfer(ctx context.Context, from, to string, value uint64) (uint64, error) {
	if value == 0 {
		return 0, ErrEmptyTransaction
	}
	if from == account.FeeAccountName || to == account.FeeAccountName {
		return 0, ErrReservedAccount
	}

	src, err := l.store.GetAccount(ctx, from)
	if err != nil {
		return 0, err
	}
	toSelf := from == to
	dst := src
	if !toSelf {
		if dst, err = l.store.GetAccount(ctx, to); err != nil {
			return 0, err
		}
	}
	if value > math.MaxUint64-l.fee || value+l.fee > src.Balance {
		return 0, ErrNotEnoughMoney
	}
	var feeAcc *account.Account
	if l.fee > 0 {
		if feeAcc, err = l.store.FeeAccount(ctx); err != nil {
			return 0, err
		}
	}

	tx, err := l.store.AppendTransaction(ctx, from, transaction.Transfer(to, value, l.fee))
	if err != nil {
		return 0, fmt.Errorf("transfer %d from %q to %q: %w", value, from, to, err)
	}

	// Stage every account snapshot, then apply with rollback on failure.
	src.Balance -= value + l.fee
	src.TransactionIDs = append(src.TransactionIDs, tx.ID)
	if toSelf {
		src.Balance += value
	} else {
		dst.Balance += value
		dst.TransactionIDs = append(dst.TransactionIDs, tx.ID)
	}

	staged := []*account.Account{src}
	if !toSelf {
		staged = append(staged, dst)
	}
	if l.fee > 0 {
		feeTx, err := l.store.AppendTransaction(ctx, account.FeeAccountName, transaction.Add(l.fee))
		if err != nil {
			return 0, fmt.Errorf("transfer %d from %q to %q: fee leg: %w", value, from, to, err)
		}
		feeAcc.Balance += l.fee
		feeAcc.TransactionIDs = append(feeAcc.TransactionIDs, feeTx.ID)
		staged = append(staged, feeAcc)
	}

	if err := l.apply(ctx, staged); err != nil {
		return 0, fmt.Errorf("transfer %d from %q to %q: %w", value, from, to, err)
	}

	l.logger.Debug("transfer applied",
		slog.String("from", from), slog.String("to", to),
		slog.Uint64("value", value), slog.Uint64("fee", l.fee), slog.Uint64("tx", tx.ID))
	l.hooks.EmitTransfer(ctx, tx, src, dst)
	return tx.ID, nil
}

// apply persists staged account snapshots. If a put fails, snapshots
// already written are restored to their prior state so no concurrent
// reader can later observe a half-applied mutation.
func (l *Ledger) apply(ctx context.Context, staged []*account.Account) error {
	prev := make([]*account.Account, len(staged))
	for i, a := range staged {
		p, err := l.store.GetAccount(ctx, a.Name)
		if err != nil {
			return err
		}
		prev[i] = p
	}
	for i, a := range staged {
		if err := l.store.PutAccount(ctx, a); err != nil {
			for j := i - 1; j >= 0; j-- {
				if rbErr := l.store.PutAccount(ctx, prev[j]); rbErr != nil {
					l.logger.Error("rollback failed",
						slog.String("account", prev[j].Name), slog.Any("error", rbErr))
				}
			}
			return err
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Read operations
// ──────────────────────────────────────────────────

// AccountBalance returns the current balance of the named account.
func (l *Ledger) AccountBalance(ctx context.Context, name string) (uint64, error) {
	a, err := l.store.GetAccount(ctx, name)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// AccountTransactions returns every transaction that has affected the
// named account, in the order they were applied.
func (l *Ledger) AccountTransactions(ctx context.Context, name string) ([]*transaction.Transaction, error) {
	a, err := l.store.GetAccount(ctx, name)
	if err != nil {
		return nil, err
	}
	txs := make([]*transaction.Transaction, 0, len(a.TransactionIDs))
	for _, id := range a.TransactionIDs {
		tx, err := l.store.TransactionByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("account %q references tx %d: %w", name, id, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// AllTransactions returns the full transaction log in creation order.
func (l *Ledger) AllTransactions(ctx context.Context) ([]*transaction.Transaction, error) {
	return l.store.Transactions(ctx)
}

// TransactionByID returns a single transaction.
func (l *Ledger) TransactionByID(ctx context.Context, id uint64) (*transaction.Transaction, error) {
	return l.store.TransactionByID(ctx, id)
}
