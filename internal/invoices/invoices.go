// Package invoices stores the ground-truth actual amount of each invoice
// period, recorded by a member from the physical or digital bill.
package invoices

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tandem-dev/tandem/internal/model"
)

// Header is the CSV header for invoices.csv.
const Header = "period,actual_amount,recorded_at"

const (
	numFields     = 3
	fileName      = "invoices.csv"
	colPeriod     = 0
	colAmount     = 1
	colRecordedAt = 2
)

// Entry is one recorded invoice amount.
type Entry struct {
	Period       model.Period
	ActualAmount decimal.Decimal
	RecordedAt   time.Time
}

// Store provides lookup and upsert over invoices.csv. Set is last-write-wins
// per period; concurrent edits by both members resolve to whoever saved last.
type Store struct {
	repoRoot string
	entries  map[model.Period]Entry
}

// Load reads invoices.csv from the repo root. A missing file is an empty store.
func Load(repoRoot string) (*Store, error) {
	s := &Store{repoRoot: repoRoot, entries: make(map[model.Period]Entry)}

	f, err := os.Open(filepath.Join(repoRoot, fileName))
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fileName, err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	for _, e := range entries {
		s.entries[e.Period] = e
	}
	return s, nil
}

// Get returns the actual amount recorded for a period, if any.
func (s *Store) Get(p model.Period) (decimal.Decimal, bool) {
	e, ok := s.entries[p]
	if !ok {
		return decimal.Zero, false
	}
	return e.ActualAmount, true
}

// Set upserts a period's actual amount and writes the store back to disk.
func (s *Store) Set(p model.Period, amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("invoice amount %s must be positive", amount)
	}
	s.entries[p] = Entry{Period: p, ActualAmount: amount, RecordedAt: now}
	return s.save()
}

// Entries returns all recorded invoices in period order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}

func (s *Store) save() error {
	f, err := os.Create(filepath.Join(s.repoRoot, fileName))
	if err != nil {
		return fmt.Errorf("writing %s: %w", fileName, err)
	}
	defer f.Close()
	return WriteEntries(f, s.Entries())
}

// ReadEntries reads all entries from an invoices.csv reader.
func ReadEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading invoices CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := unmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes entries to an invoices.csv writer (including header).
func WriteEntries(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		row := make([]string, numFields)
		row[colPeriod] = e.Period.String()
		row[colAmount] = e.ActualAmount.StringFixed(2)
		row[colRecordedAt] = e.RecordedAt.UTC().Format(time.RFC3339)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

func unmarshalEntry(record []string) (Entry, error) {
	p, err := model.ParsePeriod(record[colPeriod])
	if err != nil {
		return Entry{}, err
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing actual_amount %q: %w", record[colAmount], err)
	}
	recordedAt, err := time.Parse(time.RFC3339, record[colRecordedAt])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing recorded_at %q: %w", record[colRecordedAt], err)
	}
	return Entry{Period: p, ActualAmount: amount, RecordedAt: recordedAt}, nil
}
