package hook

import (
	"context"
	"log/slog"
	"sync"

	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/transaction"
)

// Registry manages registered hooks and dispatches events to them. Hook
// lists are cached per event type at registration so dispatch does not
// type-assert on the hot path.
type Registry struct {
	mu     sync.RWMutex
	hooks  []Hook
	logger *slog.Logger

	onAccountCreated []OnAccountCreated
	onBalanceChanged []OnBalanceChanged
	onTransfer       []OnTransfer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{logger: slog.Default()}
}

// WithLogger sets the logger used to report hook failures.
func (r *Registry) WithLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds a hook and caches it under every event interface it
// implements.
func (r *Registry) Register(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = append(r.hooks, h)
	if v, ok := h.(OnAccountCreated); ok {
		r.onAccountCreated = append(r.onAccountCreated, v)
	}
	if v, ok := h.(OnBalanceChanged); ok {
		r.onBalanceChanged = append(r.onBalanceChanged, v)
	}
	if v, ok := h.(OnTransfer); ok {
		r.onTransfer = append(r.onTransfer, v)
	}
}

// Hooks returns the registered hooks in registration order.
func (r *Registry) Hooks() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Hook, len(r.hooks))
	copy(out, r.hooks)
	return out
}

// EmitAccountCreated dispatches an account-created event. Hook failures
// are logged, never propagated: the mutation is already committed.
func (r *Registry) EmitAccountCreated(ctx context.Context, a *account.Account) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.onAccountCreated {
		if err := h.OnAccountCreated(ctx, a); err != nil {
			r.logger.Error("hook failed",
				slog.String("hook", h.Name()),
				slog.String("event", "account_created"),
				slog.Any("error", err))
		}
	}
}

// EmitBalanceChanged dispatches a credit/debit event.
func (r *Registry) EmitBalanceChanged(ctx context.Context, tx *transaction.Transaction, a *account.Account) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.onBalanceChanged {
		if err := h.OnBalanceChanged(ctx, tx, a); err != nil {
			r.logger.Error("hook failed",
				slog.String("hook", h.Name()),
				slog.String("event", "balance_changed"),
				slog.Any("error", err))
		}
	}
}

// EmitTransfer dispatches a transfer event.
func (r *Registry) EmitTransfer(ctx context.Context, tx *transaction.Transaction, from, to *account.Account) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.onTransfer {
		if err := h.OnTransfer(ctx, tx, from, to); err != nil {
			r.logger.Error("hook failed",
				slog.String("hook", h.Name()),
				slog.String("event", "transfer"),
				slog.Any("error", err))
		}
	}
}
