// Package ledger stores household expenses as one expenses.csv per invoice
// period and enforces the input invariants the split calculator relies on.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tandem-dev/tandem/internal/cycle"
	"github.com/tandem-dev/tandem/internal/id"
	"github.com/tandem-dev/tandem/internal/model"
)

// Service provides business logic for the expense ledger.
type Service struct {
	repoRoot  string
	cutoffDay int
}

// NewService creates a ledger Service. cutoffDay decides which invoice
// period a new expense lands in.
func NewService(repoRoot string, cutoffDay int) *Service {
	return &Service{repoRoot: repoRoot, cutoffDay: cutoffDay}
}

// AddParams holds parameters for recording an expense.
type AddParams struct {
	Date        time.Time
	Description string
	Category    string
	Amount      decimal.Decimal
	Assignment  model.CostAssignment
	CreditLine  bool
	Group       *model.GroupPurchase
	Reference   string
	Notes       string
}

// Add assigns the expense to its invoice period, validates the whole period
// together, and appends it to that period's expenses.csv. Returns the entry ID.
func (s *Service) Add(params AddParams) (string, error) {
	period := cycle.AssignPeriod(params.Date, s.cutoffDay)

	seq, err := s.NextEntrySeq(period)
	if err != nil {
		return "", err
	}

	expense := model.Expense{
		EntryID:     id.FormatEntryID(period, seq),
		Date:        params.Date,
		Description: params.Description,
		Category:    params.Category,
		Amount:      params.Amount,
		Assignment:  params.Assignment,
		CreditLine:  params.CreditLine,
		Group:       params.Group,
		Reference:   params.Reference,
		Notes:       params.Notes,
	}

	existing, err := s.ReadPeriod(period)
	if err != nil {
		return "", err
	}

	all := append(existing, expense)
	if verrs := ValidateExpenses(all, period, s.cutoffDay); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return "", fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	path := s.periodPath(period)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating period dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening expenses file: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return "", fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendExpenses(f, []model.Expense{expense}); err != nil {
		return "", fmt.Errorf("appending expense: %w", err)
	}

	return expense.EntryID, nil
}

// ReadPeriod reads all expenses recorded for an invoice period.
func (s *Service) ReadPeriod(p model.Period) ([]model.Expense, error) {
	path := s.periodPath(p)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening expenses %s: %w", path, err)
	}
	defer f.Close()

	expenses, err := ReadExpenses(f)
	if err != nil {
		return nil, fmt.Errorf("reading expenses %s: %w", path, err)
	}
	return expenses, nil
}

// ReadAll reads every period's expenses, ordered by period.
func (s *Service) ReadAll() ([]model.Expense, error) {
	paths, err := filepath.Glob(filepath.Join(s.repoRoot, "*", "expenses.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing period files: %w", err)
	}

	var all []model.Expense
	for _, path := range paths {
		p, err := model.ParsePeriod(filepath.Base(filepath.Dir(path)))
		if err != nil {
			continue // not a period directory
		}
		expenses, err := s.ReadPeriod(p)
		if err != nil {
			return nil, err
		}
		all = append(all, expenses...)
	}
	return all, nil
}

// FindByReference returns the expense that was imported from the given
// statement reference, if any. This is the at-most-once import gate: a
// reference already in the ledger must never create a second expense.
func (s *Service) FindByReference(ref string) (model.Expense, bool, error) {
	if ref == "" {
		return model.Expense{}, false, nil
	}
	all, err := s.ReadAll()
	if err != nil {
		return model.Expense{}, false, err
	}
	for _, e := range all {
		if e.Reference == ref {
			return e, true, nil
		}
	}
	return model.Expense{}, false, nil
}

// NextEntrySeq returns the next available sequence number for a period.
func (s *Service) NextEntrySeq(p model.Period) (int, error) {
	expenses, err := s.ReadPeriod(p)
	if err != nil {
		return 0, err
	}

	maxSeq := 0
	for _, e := range expenses {
		_, seq, err := id.ParseEntryID(e.EntryID)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1, nil
}

func (s *Service) periodPath(p model.Period) string {
	return filepath.Join(s.repoRoot, p.String(), "expenses.csv")
}
