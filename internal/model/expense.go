package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostAssignment says who is economically responsible for an expense when no
// explicit share breakdown exists.
type CostAssignment string

const (
	AssignmentPersonal CostAssignment = "personal"
	AssignmentShared   CostAssignment = "shared"
	AssignmentPartner  CostAssignment = "partner"
)

// SwishRecipient identifies which household member received the out-of-band
// reimbursement for a group purchase's non-household portion.
type SwishRecipient string

const (
	SwishUser    SwishRecipient = "user"
	SwishPartner SwishRecipient = "partner"
	SwishShared  SwishRecipient = "shared"
)

// GroupPurchase describes a single charge paid in full on the household's
// instrument but shared with people outside the household. The explicit
// shares belong to the two members; the remainder was reimbursed via Swish
// to SwishRecipient, who therefore owes it on the invoice.
type GroupPurchase struct {
	TotalAmount    decimal.Decimal
	UserShare      decimal.Decimal
	PartnerShare   decimal.Decimal
	SwishRecipient SwishRecipient
}

// ReimbursedRemainder returns totalAmount - userShare - partnerShare,
// clamped to zero so malformed rows degrade instead of going negative.
func (g GroupPurchase) ReimbursedRemainder() decimal.Decimal {
	r := g.TotalAmount.Sub(g.UserShare).Sub(g.PartnerShare)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Expense is a row in a period's expenses.csv.
type Expense struct {
	EntryID     string
	Date        time.Time
	Description string
	Category    string
	Amount      decimal.Decimal // zero when Group is set
	Assignment  CostAssignment
	CreditLine  bool           // rides the shared credit card (vs. paid directly)
	Group       *GroupPurchase // nil unless this is a group purchase
	Reference   string         // statement reference when created by import
	Notes       string
}

// RegisteredAmount returns the expense's contribution to a period's
// registered total: the full charge for a group purchase, otherwise Amount.
func (e Expense) RegisteredAmount() decimal.Decimal {
	if e.Group != nil {
		return e.Group.TotalAmount
	}
	return e.Amount
}
