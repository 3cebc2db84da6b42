package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tandem-dev/tandem/internal/cycle"
	"github.com/tandem-dev/tandem/internal/id"
	"github.com/tandem-dev/tandem/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.EntryID, e.Description)
}

// ValidateExpenses enforces 7 invariants on a period's expenses. This is the
// gate that keeps the split calculator total: anything it admits can be
// attributed without error handling downstream.
func ValidateExpenses(expenses []model.Expense, period model.Period, cutoffDay int) []ValidationError {
	var errs []ValidationError

	hundred := decimal.NewFromInt(100)
	wholeMinor := func(d decimal.Decimal) bool {
		scaled := d.Mul(hundred)
		return scaled.Equal(scaled.Floor())
	}

	for _, e := range expenses {
		if e.Group == nil {
			// Invariant 1: positive amount.
			if !e.Amount.IsPositive() {
				errs = append(errs, ValidationError{
					Invariant:   1,
					EntryID:     e.EntryID,
					Description: fmt.Sprintf("amount %s must be positive", e.Amount),
				})
			}
			// Invariant 6: at most 2 decimal places.
			if !wholeMinor(e.Amount) {
				errs = append(errs, ValidationError{
					Invariant:   6,
					EntryID:     e.EntryID,
					Description: fmt.Sprintf("amount %s has more than 2 decimal places", e.Amount),
				})
			}
		} else {
			g := e.Group

			// Invariant 1: positive total.
			if !g.TotalAmount.IsPositive() {
				errs = append(errs, ValidationError{
					Invariant:   1,
					EntryID:     e.EntryID,
					Description: fmt.Sprintf("group total %s must be positive", g.TotalAmount),
				})
			}

			// Invariant 2: shares non-negative and within the total.
			if g.UserShare.IsNegative() || g.PartnerShare.IsNegative() {
				errs = append(errs, ValidationError{
					Invariant:   2,
					EntryID:     e.EntryID,
					Description: "group shares must not be negative",
				})
			}
			if g.UserShare.Add(g.PartnerShare).GreaterThan(g.TotalAmount) {
				errs = append(errs, ValidationError{
					Invariant:   2,
					EntryID:     e.EntryID,
					Description: fmt.Sprintf("shares %s exceed group total %s", g.UserShare.Add(g.PartnerShare).StringFixed(2), g.TotalAmount.StringFixed(2)),
				})
			}

			// Invariant 3: a Swish recipient whenever money was reimbursed.
			if g.ReimbursedRemainder().IsPositive() && g.SwishRecipient == "" {
				errs = append(errs, ValidationError{
					Invariant:   3,
					EntryID:     e.EntryID,
					Description: "reimbursed remainder is positive but no swish recipient chosen",
				})
			}

			// Invariant 4: group purchases only on shared credit-line rows.
			// A personal group purchase is a contradiction we refuse to store.
			if e.Assignment != model.AssignmentShared || !e.CreditLine {
				errs = append(errs, ValidationError{
					Invariant:   4,
					EntryID:     e.EntryID,
					Description: "group purchase must be a shared credit-line expense",
				})
			}

			// Invariant 6: at most 2 decimal places on every group field.
			for _, d := range []decimal.Decimal{g.TotalAmount, g.UserShare, g.PartnerShare} {
				if !wholeMinor(d) {
					errs = append(errs, ValidationError{
						Invariant:   6,
						EntryID:     e.EntryID,
						Description: fmt.Sprintf("group amount %s has more than 2 decimal places", d),
					})
					break
				}
			}
		}

		// Invariant 5: the date's assigned period matches the file's period.
		if got := cycle.AssignPeriod(e.Date, cutoffDay); got != period {
			errs = append(errs, ValidationError{
				Invariant:   5,
				EntryID:     e.EntryID,
				Description: fmt.Sprintf("date %s assigns to period %s, not %s", e.Date.Format("2006-01-02"), got, period),
			})
		}
	}

	// Invariant 7: unique contiguous sequence numbers 1..N.
	seqSeen := make(map[int]bool)
	for _, e := range expenses {
		p, seq, err := id.ParseEntryID(e.EntryID)
		if err != nil {
			errs = append(errs, ValidationError{
				Invariant:   7,
				EntryID:     e.EntryID,
				Description: fmt.Sprintf("invalid entry ID: %v", err),
			})
			continue
		}
		if p != period {
			errs = append(errs, ValidationError{
				Invariant:   7,
				EntryID:     e.EntryID,
				Description: fmt.Sprintf("entry ID period %s does not match file period %s", p, period),
			})
			continue
		}
		if seqSeen[seq] {
			errs = append(errs, ValidationError{
				Invariant:   7,
				EntryID:     e.EntryID,
				Description: fmt.Sprintf("duplicate sequence %d", seq),
			})
		}
		seqSeen[seq] = true
	}
	for i := 1; i <= len(seqSeen); i++ {
		if !seqSeen[i] {
			errs = append(errs, ValidationError{
				Invariant:   7,
				EntryID:     fmt.Sprintf("seq %d", i),
				Description: fmt.Sprintf("missing sequence %d in 1..%d", i, len(seqSeen)),
			})
		}
	}

	return errs
}
