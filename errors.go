package ledger

import "errors"

// Sentinel errors for every failure the ledger can report. Operations
// return one of these (possibly wrapped with context via %w), never an
// untyped error.
var (
	// Account errors
	ErrAccountAlreadyExists = errors.New("ledger: account already exists")
	ErrAccountNotFound      = errors.New("ledger: account not found")
	ErrReservedAccount      = errors.New("ledger: account name is reserved")

	// Transaction errors
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
	ErrEmptyTransaction    = errors.New("ledger: zero-value transaction")
	ErrNotEnoughMoney      = errors.New("ledger: not enough money")

	// Store errors
	ErrStorage      = errors.New("ledger: storage failure")
	ErrCorruptedLog = errors.New("ledger: transaction log is corrupted")
)

// IsNotFound returns true if the error reports a missing account or
// transaction.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsRejected returns true if the error rejects the request itself rather
// than reporting a backend failure; retrying such a request unchanged
// cannot succeed.
func IsRejected(err error) bool {
	return errors.Is(err, ErrAccountAlreadyExists) ||
		errors.Is(err, ErrReservedAccount) ||
		errors.Is(err, ErrEmptyTransaction) ||
		errors.Is(err, ErrNotEnoughMoney) ||
		IsNotFound(err)
}

// IsStorage returns true if the error is an opaque backend failure. The
// ledger never retries these internally; the caller decides.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
