// Package audit bridges ledger events to a structured audit trail.
//
// It defines a local Recorder interface so the package does not depend
// on any particular audit backend; the default recorder writes events
// through slog. Register the hook at ledger construction:
//
//	l := ledger.New(store, ledger.WithHook(audit.New(logger)))
package audit

import (
	"context"
	"log/slog"

	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/hook"
	"github.com/corebank/ledger/transaction"
)

// Compile-time interface checks.
var (
	_ hook.Hook             = (*Hook)(nil)
	_ hook.OnAccountCreated = (*Hook)(nil)
	_ hook.OnBalanceChanged = (*Hook)(nil)
	_ hook.OnTransfer       = (*Hook)(nil)
)

// Event is one recorded audit entry.
type Event struct {
	Action      string `json:"action"`
	Account     string `json:"account"`
	Counterpart string `json:"counterpart,omitempty"`
	Transaction uint64 `json:"transaction,omitempty"`
	Balance     uint64 `json:"balance"`
}

// Recorder is the interface audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event Event) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Hook records every committed ledger mutation through a Recorder.
type Hook struct {
	recorder Recorder
}

// New creates an audit hook that writes events to logger at info level.
func New(logger *slog.Logger) *Hook {
	return NewWithRecorder(RecorderFunc(func(ctx context.Context, e Event) error {
		logger.InfoContext(ctx, "audit",
			slog.String("action", e.Action),
			slog.String("account", e.Account),
			slog.String("counterpart", e.Counterpart),
			slog.Uint64("transaction", e.Transaction),
			slog.Uint64("balance", e.Balance))
		return nil
	}))
}

// NewWithRecorder creates an audit hook with a custom backend.
func NewWithRecorder(r Recorder) *Hook {
	return &Hook{recorder: r}
}

// Name implements hook.Hook.
func (h *Hook) Name() string { return "audit" }

// OnAccountCreated implements hook.OnAccountCreated.
func (h *Hook) OnAccountCreated(ctx context.Context, a *account.Account) error {
	return h.recorder.Record(ctx, Event{
		Action:  "account_created",
		Account: a.Name,
		Balance: a.Balance,
	})
}

// OnBalanceChanged implements hook.OnBalanceChanged.
func (h *Hook) OnBalanceChanged(ctx context.Context, tx *transaction.Transaction, a *account.Account) error {
	return h.recorder.Record(ctx, Event{
		Action:      string(tx.Action.Kind),
		Account:     a.Name,
		Transaction: tx.ID,
		Balance:     a.Balance,
	})
}

// OnTransfer implements hook.OnTransfer.
func (h *Hook) OnTransfer(ctx context.Context, tx *transaction.Transaction, from, to *account.Account) error {
	return h.recorder.Record(ctx, Event{
		Action:      string(tx.Action.Kind),
		Account:     from.Name,
		Counterpart: to.Name,
		Transaction: tx.ID,
		Balance:     from.Balance,
	})
}
