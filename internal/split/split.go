// Package split computes each household member's liability for one invoice
// period, reconciling recorded expenses against the invoice's actual amount.
package split

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tandem-dev/tandem/internal/model"
)

var two = decimal.NewFromInt(2)

type member int

const (
	memberUser member = iota
	memberPartner
)

// Result is the liability report for one invoice period. Amounts are kept in
// full precision; call Rounded before displaying or persisting them.
type Result struct {
	UserAmount             decimal.Decimal
	PartnerAmount          decimal.Decimal
	RegisteredTotal        decimal.Decimal
	UnregisteredDifference decimal.Decimal

	// HasWarning is set when more has been recorded than the invoice shows,
	// which usually means a duplicate or misdated entry. It is reported,
	// never auto-corrected.
	HasWarning bool

	// Anomalies lists well-formed-but-suspicious inputs the calculator
	// degraded gracefully on, for the caller to surface.
	Anomalies []string

	residualTo member
}

// Compute attributes every expense in the bucket to the two members and
// reconciles the registered total against the invoice's actual amount.
// A nil or non-positive actual means the invoice has not arrived yet: the
// result is then the raw attributed sums with no warning and no gap.
func Compute(expenses []model.Expense, actual *decimal.Decimal) Result {
	var res Result
	res.UserAmount = decimal.Zero
	res.PartnerAmount = decimal.Zero
	res.RegisteredTotal = decimal.Zero
	res.UnregisteredDifference = decimal.Zero

	// Largest single attributed share decides who absorbs the rounding
	// residual. Ties go to the user.
	largest := decimal.Zero
	res.residualTo = memberUser

	attribute := func(m member, amt decimal.Decimal) {
		switch m {
		case memberUser:
			res.UserAmount = res.UserAmount.Add(amt)
		case memberPartner:
			res.PartnerAmount = res.PartnerAmount.Add(amt)
		}
		if amt.GreaterThan(largest) {
			largest = amt
			res.residualTo = m
		}
	}

	for _, e := range expenses {
		if e.Group != nil {
			g := e.Group
			attribute(memberUser, g.UserShare)
			attribute(memberPartner, g.PartnerShare)

			raw := g.TotalAmount.Sub(g.UserShare).Sub(g.PartnerShare)
			if raw.IsNegative() {
				res.Anomalies = append(res.Anomalies, fmt.Sprintf(
					"%s: group shares %s exceed total %s, remainder clamped to 0",
					e.EntryID, g.UserShare.Add(g.PartnerShare).StringFixed(2), g.TotalAmount.StringFixed(2)))
			}
			r := g.ReimbursedRemainder()
			switch g.SwishRecipient {
			case model.SwishUser:
				attribute(memberUser, r)
			case model.SwishPartner:
				attribute(memberPartner, r)
			case model.SwishShared:
				attribute(memberUser, r.Div(two))
				attribute(memberPartner, r.Div(two))
			}
			res.RegisteredTotal = res.RegisteredTotal.Add(g.TotalAmount)
			continue
		}

		switch e.Assignment {
		case model.AssignmentPersonal:
			attribute(memberUser, e.Amount)
		case model.AssignmentPartner:
			attribute(memberPartner, e.Amount)
		case model.AssignmentShared:
			attribute(memberUser, e.Amount.Div(two))
			attribute(memberPartner, e.Amount.Div(two))
		}
		res.RegisteredTotal = res.RegisteredTotal.Add(e.Amount)
	}

	// Ground truth reconciliation, only once the invoice amount is known.
	if actual != nil && actual.IsPositive() {
		res.HasWarning = res.RegisteredTotal.GreaterThan(*actual)

		gap := actual.Sub(res.RegisteredTotal)
		if gap.IsPositive() {
			// Unexplained credit-line spending is treated as joint until
			// itemized: split the gap evenly.
			res.UnregisteredDifference = gap
			res.UserAmount = res.UserAmount.Add(gap.Div(two))
			res.PartnerAmount = res.PartnerAmount.Add(gap.Div(two))
		}
	}

	return res
}

// Rounded returns the result with amounts rounded half-up to the currency
// minor unit. Any sub-unit residual between the rounded member amounts and
// the rounded period total is assigned to the member holding the period's
// largest single attributed share, so displayed totals reconcile exactly.
func (r Result) Rounded() Result {
	out := r
	out.UserAmount = r.UserAmount.Round(2)
	out.PartnerAmount = r.PartnerAmount.Round(2)
	out.RegisteredTotal = r.RegisteredTotal.Round(2)
	out.UnregisteredDifference = r.UnregisteredDifference.Round(2)

	target := r.RegisteredTotal.Add(r.UnregisteredDifference).Round(2)
	residual := target.Sub(out.UserAmount.Add(out.PartnerAmount))
	if !residual.IsZero() {
		if r.residualTo == memberPartner {
			out.PartnerAmount = out.PartnerAmount.Add(residual)
		} else {
			out.UserAmount = out.UserAmount.Add(residual)
		}
	}
	return out
}
