package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementTransaction is one parsed row from a bank or card statement
// export, a candidate economic event not yet in the ledger.
type StatementTransaction struct {
	Reference   string // deterministic per-row id, e.g. card_20250103_WILLYS
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = refund/return
	Source      string          // parser format that produced it
}

// IsRefund reports whether the transaction is a refund or return.
func (t StatementTransaction) IsRefund() bool {
	return t.Amount.IsNegative()
}
