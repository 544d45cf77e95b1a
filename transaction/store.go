package transaction

import "context"

// Store is the append-only transaction log contract. Records are never
// mutated or removed once appended.
type Store interface {
	// Append assigns the next id (previous maximum + 1, starting at 1),
	// stores the record and returns it.
	Append(ctx context.Context, accountName string, action Action) (*Transaction, error)

	// All returns every transaction in creation order.
	All(ctx context.Context) ([]*Transaction, error)

	// ByID returns the transaction with the given id.
	ByID(ctx context.Context, id uint64) (*Transaction, error)
}
