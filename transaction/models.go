package transaction

import "fmt"

// Kind discriminates the closed set of transaction actions.
type Kind string

const (
	KindRegistration Kind = "registration"
	KindAdd          Kind = "add"
	KindWithdraw     Kind = "withdraw"
	KindTransfer     Kind = "transfer"
)

// Action is one member of the closed action set. Kind selects the variant;
// the remaining fields are meaningful only for the kinds that carry them
// (Amount for add/withdraw/transfer, To and Fee for transfer).
type Action struct {
	Kind   Kind   `json:"kind"`
	Amount uint64 `json:"amount,omitempty"`
	To     string `json:"to,omitempty"`
	Fee    uint64 `json:"fee,omitempty"`
}

// Registration builds the action recorded once per account, at creation.
func Registration() Action {
	return Action{Kind: KindRegistration}
}

// Add builds a credit action.
func Add(amount uint64) Action {
	return Action{Kind: KindAdd, Amount: amount}
}

// Withdraw builds a debit action.
func Withdraw(amount uint64) Action {
	return Action{Kind: KindWithdraw, Amount: amount}
}

// Transfer builds a transfer action. Amount is the value received by `to`;
// Fee is paid by the sender on top of Amount.
func Transfer(to string, amount, fee uint64) Action {
	return Action{Kind: KindTransfer, Amount: amount, To: to, Fee: fee}
}

func (a Action) String() string {
	switch a.Kind {
	case KindRegistration:
		return "registration"
	case KindAdd:
		return fmt.Sprintf("add %d", a.Amount)
	case KindWithdraw:
		return fmt.Sprintf("withdraw %d", a.Amount)
	case KindTransfer:
		return fmt.Sprintf("transfer %d to %q (fee %d)", a.Amount, a.To, a.Fee)
	default:
		return fmt.Sprintf("unknown action %q", string(a.Kind))
	}
}

// Transaction is an immutable record of one balance-affecting event.
// IDs are assigned by the store in strictly increasing order starting at 1
// and are global across all accounts.
type Transaction struct {
	ID          uint64 `json:"id"`
	AccountName string `json:"account_name"`
	Action      Action `json:"action"`
}

func (t *Transaction) String() string {
	return fmt.Sprintf("tx %d: %s: %s", t.ID, t.AccountName, t.Action)
}
