package ledger

import (
	"github.com/corebank/ledger/account"
	"github.com/corebank/ledger/transaction"
)

// Re-export domain types for convenience so users don't have to import
// the account and transaction packages for common cases.

// Account is re-exported from the account package.
type Account = account.Account

// Transaction is re-exported from the transaction package.
type Transaction = transaction.Transaction

// Action is re-exported from the transaction package.
type Action = transaction.Action

// FeeAccountName is the reserved name of the fee-collecting account.
const FeeAccountName = account.FeeAccountName
