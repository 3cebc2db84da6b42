package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tandem-dev/tandem/internal/model"
)

// Header is the CSV header for expenses.csv.
const Header = "entry_id,date,description,category,amount,assignment,credit_line,group_total,user_share,partner_share,swish_recipient,reference,notes"

const (
	numFields    = 13
	dateFormat   = "2006-01-02"
	colEntryID   = 0
	colDate      = 1
	colDesc      = 2
	colCategory  = 3
	colAmount    = 4
	colAssign    = 5
	colCredit    = 6
	colGroupTot  = 7
	colUserShare = 8
	colPartShare = 9
	colSwish     = 10
	colRef       = 11
	colNotes     = 12
)

// ReadExpenses reads all expenses from an expenses.csv reader.
func ReadExpenses(r io.Reader) ([]model.Expense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading expenses CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var expenses []model.Expense
	for i, rec := range records[1:] {
		e, err := UnmarshalExpense(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// WriteExpenses writes expenses to an expenses.csv writer (including header).
func WriteExpenses(w io.Writer, expenses []model.Expense) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range expenses {
		if err := cw.Write(MarshalExpense(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// AppendExpenses appends expenses to an existing expenses.csv writer (no header).
func AppendExpenses(w io.Writer, expenses []model.Expense) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, e := range expenses {
		if err := cw.Write(MarshalExpense(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalExpense converts an Expense to a CSV row ([]string).
func MarshalExpense(e model.Expense) []string {
	row := make([]string, numFields)
	row[colEntryID] = e.EntryID
	row[colDate] = e.Date.Format(dateFormat)
	row[colDesc] = e.Description
	row[colCategory] = e.Category
	row[colAssign] = string(e.Assignment)
	row[colCredit] = strconv.FormatBool(e.CreditLine)
	row[colRef] = e.Reference
	row[colNotes] = e.Notes

	if e.Group != nil {
		row[colGroupTot] = e.Group.TotalAmount.StringFixed(2)
		row[colUserShare] = e.Group.UserShare.StringFixed(2)
		row[colPartShare] = e.Group.PartnerShare.StringFixed(2)
		row[colSwish] = string(e.Group.SwishRecipient)
	} else {
		row[colAmount] = e.Amount.StringFixed(2)
	}

	return row
}

// UnmarshalExpense converts a CSV row to an Expense.
func UnmarshalExpense(record []string) (model.Expense, error) {
	if len(record) != numFields {
		return model.Expense{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.Expense{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	creditLine, err := strconv.ParseBool(record[colCredit])
	if err != nil {
		return model.Expense{}, fmt.Errorf("parsing credit_line %q: %w", record[colCredit], err)
	}

	e := model.Expense{
		EntryID:     record[colEntryID],
		Date:        date,
		Description: record[colDesc],
		Category:    record[colCategory],
		Assignment:  model.CostAssignment(record[colAssign]),
		CreditLine:  creditLine,
		Reference:   record[colRef],
		Notes:       record[colNotes],
	}

	if record[colAmount] != "" {
		e.Amount, err = decimal.NewFromString(record[colAmount])
		if err != nil {
			return model.Expense{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
		}
	}

	// A group_total marks the row as a group purchase.
	if record[colGroupTot] != "" {
		g := &model.GroupPurchase{SwishRecipient: model.SwishRecipient(record[colSwish])}
		g.TotalAmount, err = decimal.NewFromString(record[colGroupTot])
		if err != nil {
			return model.Expense{}, fmt.Errorf("parsing group_total %q: %w", record[colGroupTot], err)
		}
		g.UserShare, err = decimal.NewFromString(record[colUserShare])
		if err != nil {
			return model.Expense{}, fmt.Errorf("parsing user_share %q: %w", record[colUserShare], err)
		}
		g.PartnerShare, err = decimal.NewFromString(record[colPartShare])
		if err != nil {
			return model.Expense{}, fmt.Errorf("parsing partner_share %q: %w", record[colPartShare], err)
		}
		e.Group = g
	}

	return e, nil
}
