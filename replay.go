package ledger

import (
	"context"
	"fmt"

	"github.com/corebank/ledger/store"
	"github.com/corebank/ledger/transaction"
)

// Rebuild reconstructs a ledger purely from a transaction sequence. It
// re-appends every transaction to s in input order (preserving ids, as
// input order is creation order), groups transactions by every account
// they touch, and folds each group into a balance and an id list.
//
// s must be a fresh, empty store. The result agrees with a ledger built
// incrementally by live operations from the same sequence, both in
// balances and in transaction-id membership. Replay is kept fully
// separate from the live operation paths so the two can be cross-tested.
func Rebuild(ctx context.Context, s store.Store, txs []*transaction.Transaction, opts ...Option) (*Ledger, error) {
	l := New(s, opts...)

	touched := make(map[string][]*transaction.Transaction)
	for _, tx := range txs {
		if _, err := s.AppendTransaction(ctx, tx.AccountName, tx.Action); err != nil {
			return nil, fmt.Errorf("rebuild: re-append tx %d: %w", tx.ID, err)
		}
		touched[tx.AccountName] = append(touched[tx.AccountName], tx)
		// A transfer touches the receiver as well. A self-transfer is
		// recorded once; the fold below applies both legs.
		if tx.Action.Kind == transaction.KindTransfer && tx.Action.To != tx.AccountName {
			touched[tx.Action.To] = append(touched[tx.Action.To], tx)
		}
	}

	for name, group := range touched {
		balance, err := fold(name, group)
		if err != nil {
			return nil, err
		}
		ids := make([]uint64, 0, len(group))
		for _, tx := range group {
			ids = append(ids, tx.ID)
		}

		a, err := s.CreateAccount(ctx, name, 0)
		if IsRejected(err) {
			// Pre-existing account (the fee account in a fresh store):
			// overwrite it.
			if a, err = s.GetAccount(ctx, name); err != nil {
				return nil, fmt.Errorf("rebuild account %q: %w", name, err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("rebuild account %q: %w", name, err)
		}
		a.Balance = balance
		a.TransactionIDs = ids
		if err := s.PutAccount(ctx, a); err != nil {
			return nil, fmt.Errorf("rebuild account %q: %w", name, err)
		}
	}

	return l, nil
}

// fold replays one account's transactions in order and returns its final
// balance. An intermediate negative balance means the sequence was not
// produced by a conforming ledger.
func fold(name string, group []*transaction.Transaction) (uint64, error) {
	var balance uint64
	for _, tx := range group {
		switch tx.Action.Kind {
		case transaction.KindRegistration:
			// balance unaffected
		case transaction.KindAdd:
			balance += tx.Action.Amount
		case transaction.KindWithdraw:
			if tx.Action.Amount > balance {
				return 0, fmt.Errorf("%w: tx %d overdraws %q", ErrCorruptedLog, tx.ID, name)
			}
			balance -= tx.Action.Amount
		case transaction.KindTransfer:
			sender := name == tx.AccountName
			receiver := name == tx.Action.To
			switch {
			case sender && receiver:
				// A self-transfer nets out to the fee.
				if tx.Action.Fee > balance {
					return 0, fmt.Errorf("%w: tx %d overdraws %q", ErrCorruptedLog, tx.ID, name)
				}
				balance -= tx.Action.Fee
			case sender:
				out := tx.Action.Amount + tx.Action.Fee
				if out > balance {
					return 0, fmt.Errorf("%w: tx %d overdraws %q", ErrCorruptedLog, tx.ID, name)
				}
				balance -= out
			case receiver:
				balance += tx.Action.Amount
			}
		default:
			return 0, fmt.Errorf("%w: tx %d has unknown action %q", ErrCorruptedLog, tx.ID, tx.Action.Kind)
		}
	}
	return balance, nil
}
