// Package auditlog keeps an append-only record of reconciliation decisions:
// which statement transactions were matched, dismissed, or imported, and in
// which session. It is the durable evidence behind the at-most-once import
// guarantee.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Action is the decision recorded for a transaction.
type Action string

const (
	ActionHandled   Action = "handled"
	ActionDismissed Action = "dismissed"
	ActionUndone    Action = "undone"
	ActionImported  Action = "imported"
)

// Entry is one row in the reconcile log.
type Entry struct {
	Timestamp time.Time
	SessionID string
	TxnRef    string
	Action    Action
	ExpenseID string // matched or created expense, where applicable
	Details   string
}

// Header is the CSV header for reconcile-log.csv.
const Header = "timestamp,session_id,txn_ref,action,expense_id,details"

const (
	numFields    = 6
	logDir       = "logs"
	logFile      = "logs/reconcile-log.csv"
	colTimestamp = 0
	colSessionID = 1
	colTxnRef    = 2
	colAction    = 3
	colExpenseID = 4
	colDetails   = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colSessionID] = e.SessionID
	row[colTxnRef] = e.TxnRef
	row[colAction] = string(e.Action)
	row[colExpenseID] = e.ExpenseID
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp: ts,
		SessionID: record[colSessionID],
		TxnRef:    record[colTxnRef],
		Action:    Action(record[colAction]),
		ExpenseID: record[colExpenseID],
		Details:   record[colDetails],
	}, nil
}

// Append adds entries to <repoRoot>/logs/reconcile-log.csv, creating the
// file with a header if needed.
func Append(repoRoot string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(repoRoot, logFile)
	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening reconcile log: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	cw := csv.NewWriter(f)
	defer cw.Flush()
	for _, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing log row: %w", err)
		}
	}
	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/reconcile-log.csv in file
// order. A missing file is an empty log.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(repoRoot, logFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening reconcile log: %w", err)
	}
	defer f.Close()

	return ReadEntries(f)
}

// ReadEntries reads all entries from a reconcile-log.csv reader.
func ReadEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading reconcile log: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
