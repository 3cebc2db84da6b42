// Package reconcile detects when an imported statement transaction is the
// same economic event as an already-recorded expense, and tracks the user's
// per-transaction resolution so nothing is double-counted.
package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tandem-dev/tandem/internal/model"
)

// Config controls the matching heuristic. The window is asymmetric because
// statement postings usually lag the day the expense was recorded.
type Config struct {
	// WindowBefore is how many days an expense may precede the statement
	// posting date and still be considered.
	WindowBefore int
	// WindowAfter is how many days an expense may follow the posting date.
	WindowAfter int
	// AmountTolerance is the maximum absolute amount difference for a pair
	// to be comparable. Zero means exact-amount-only, the default.
	AmountTolerance decimal.Decimal
}

// DefaultConfig returns the default matching window: expenses dated up to
// four days before or two days after the statement posting, exact amounts.
func DefaultConfig() Config {
	return Config{WindowBefore: 4, WindowAfter: 2, AmountTolerance: decimal.Zero}
}

// Candidate associates one statement transaction with one expense that may
// be the same event. Candidates are ephemeral: recomputed from scratch on
// every input change, never persisted.
type Candidate struct {
	ExpenseID string
	// Rank orders candidates for one transaction, best match first (1-based).
	Rank int
	// DateDeltaDays is expense date minus transaction date, in days.
	DateDeltaDays int
	// ExactAmount is set when the magnitudes match to the öre.
	ExactAmount bool
	// Plausible is cleared for pairs that match on magnitude alone but look
	// economically unrelated, e.g. a refund against an ordinary purchase
	// with a foreign description. They are still surfaced; the user judges.
	Plausible bool
}

// FindCandidates proposes duplicate candidates for each transaction.
// Deterministic: identical inputs always produce an identical map with
// identical ranking order. Transactions with no candidates are absent from
// the map and immediately eligible for import.
func FindCandidates(cfg Config, txns []model.StatementTransaction, expenses []model.Expense) map[string][]Candidate {
	out := make(map[string][]Candidate)
	for _, t := range txns {
		cands := candidatesFor(cfg, t, expenses)
		if len(cands) > 0 {
			out[t.Reference] = cands
		}
	}
	return out
}

func candidatesFor(cfg Config, t model.StatementTransaction, expenses []model.Expense) []Candidate {
	magnitude := t.Amount.Abs()

	var cands []Candidate
	for _, e := range expenses {
		delta := daysBetween(t.Date, e.Date)
		if delta < -cfg.WindowBefore || delta > cfg.WindowAfter {
			continue
		}
		diff := e.RegisteredAmount().Sub(magnitude).Abs()
		if diff.GreaterThan(cfg.AmountTolerance) {
			continue
		}
		cands = append(cands, Candidate{
			ExpenseID:     e.EntryID,
			DateDeltaDays: delta,
			ExactAmount:   diff.IsZero(),
			Plausible:     !t.IsRefund() || descriptionsOverlap(t.Description, e.Description),
		})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.ExactAmount != b.ExactAmount {
			return a.ExactAmount
		}
		if a.Plausible != b.Plausible {
			return a.Plausible
		}
		ai, bi := abs(a.DateDeltaDays), abs(b.DateDeltaDays)
		if ai != bi {
			return ai < bi
		}
		return a.ExpenseID < b.ExpenseID
	})
	for i := range cands {
		cands[i].Rank = i + 1
	}
	return cands
}

// daysBetween returns the calendar-day difference to - from, ignoring the
// time-of-day component.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// descriptionsOverlap reports whether the two free-text descriptions share
// at least one token of three or more characters. Cheap plausibility signal
// for pairing refunds with the purchase they reverse.
func descriptionsOverlap(a, b string) bool {
	seen := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToUpper(a)) {
		if len(tok) >= 3 {
			seen[tok] = true
		}
	}
	for _, tok := range strings.Fields(strings.ToUpper(b)) {
		if len(tok) >= 3 && seen[tok] {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
