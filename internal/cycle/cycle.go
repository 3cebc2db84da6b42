// Package cycle assigns expenses to invoice billing periods based on the
// household's statement cutoff day.
package cycle

import (
	"sort"
	"time"

	"github.com/tandem-dev/tandem/internal/model"
)

// AssignPeriod maps an expense date to its invoice period. A charge dated
// after the cutoff day rolls into the next month's invoice; on or before the
// cutoff it stays in the current month. The comparison uses the date's real
// day-of-month, so a cutoff of 31 in a 30-day month keeps the whole month in
// the current period.
func AssignPeriod(date time.Time, cutoffDay int) model.Period {
	p := model.Period{Year: date.Year(), Month: date.Month()}
	if date.Day() > cutoffDay {
		return p.Next()
	}
	return p
}

// Grouping is a stable multi-map of expenses bucketed by invoice period.
// Buckets preserve input order; Periods preserves first-appearance order.
type Grouping struct {
	buckets map[model.Period][]model.Expense
	order   []model.Period
}

// GroupByPeriod buckets expenses by their assigned invoice period.
func GroupByPeriod(expenses []model.Expense, cutoffDay int) *Grouping {
	g := &Grouping{buckets: make(map[model.Period][]model.Expense)}
	for _, e := range expenses {
		p := AssignPeriod(e.Date, cutoffDay)
		if _, seen := g.buckets[p]; !seen {
			g.order = append(g.order, p)
		}
		g.buckets[p] = append(g.buckets[p], e)
	}
	return g
}

// Bucket returns the expenses assigned to a period, in input order.
func (g *Grouping) Bucket(p model.Period) []model.Expense {
	return g.buckets[p]
}

// Periods returns the periods in order of first appearance in the input.
func (g *Grouping) Periods() []model.Period {
	return g.order
}

// SortedPeriods returns the periods in chronological order.
func (g *Grouping) SortedPeriods() []model.Period {
	out := make([]model.Period, len(g.order))
	copy(out, g.order)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
