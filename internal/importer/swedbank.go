package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tandem-dev/tandem/internal/model"
)

// SwedbankParser parses Swedbank account exports: semicolon-separated,
// comma decimal separator, outflows negative. Signs are flipped on parse so
// that charges come out positive and refunds negative, matching the card
// convention the reconciler expects.
type SwedbankParser struct{}

const (
	swedbankDateFormat = "2006-01-02"
	swedbankNumFields  = 3
	swedbankColDate    = 0
	swedbankColDesc    = 1
	swedbankColAmount  = 2
)

// Format returns the parser name.
func (p *SwedbankParser) Format() string { return "swedbank" }

// Parse reads a Swedbank CSV and returns StatementTransactions.
func (p *SwedbankParser) Parse(r io.Reader) ([]model.StatementTransaction, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = swedbankNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading swedbank CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.StatementTransaction
	for i, rec := range records[1:] {
		txn, err := parseSwedbankRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	assignRefs("swedbank", txns)
	return txns, nil
}

func parseSwedbankRow(rec []string) (model.StatementTransaction, error) {
	date, err := time.Parse(swedbankDateFormat, rec[swedbankColDate])
	if err != nil {
		return model.StatementTransaction{}, fmt.Errorf("parsing date %q: %w", rec[swedbankColDate], err)
	}

	// Swedbank writes "-1 234,56"; normalize to a parseable decimal.
	raw := strings.ReplaceAll(rec[swedbankColAmount], " ", "")
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.ReplaceAll(raw, ",", ".")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return model.StatementTransaction{}, fmt.Errorf("parsing amount %q: %w", rec[swedbankColAmount], err)
	}

	return model.StatementTransaction{
		Date:        date,
		Description: rec[swedbankColDesc],
		Amount:      amount.Neg(), // outflow -> positive charge
		Source:      "swedbank",
	}, nil
}
