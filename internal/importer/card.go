package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tandem-dev/tandem/internal/model"
)

// CardParser parses the shared credit card's transaction export:
// date, description, amount. Charges are positive, refunds negative,
// which matches the engine's sign convention directly.
type CardParser struct{}

const (
	cardDateFormat = "2006-01-02"
	cardNumFields  = 3
	cardColDate    = 0
	cardColDesc    = 1
	cardColAmount  = 2
)

// Format returns the parser name.
func (p *CardParser) Format() string { return "card" }

// Parse reads a card CSV and returns StatementTransactions.
func (p *CardParser) Parse(r io.Reader) ([]model.StatementTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = cardNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading card CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.StatementTransaction
	for i, rec := range records[1:] {
		txn, err := parseCardRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	assignRefs("card", txns)
	return txns, nil
}

func parseCardRow(rec []string) (model.StatementTransaction, error) {
	date, err := time.Parse(cardDateFormat, rec[cardColDate])
	if err != nil {
		return model.StatementTransaction{}, fmt.Errorf("parsing date %q: %w", rec[cardColDate], err)
	}

	amount, err := decimal.NewFromString(rec[cardColAmount])
	if err != nil {
		return model.StatementTransaction{}, fmt.Errorf("parsing amount %q: %w", rec[cardColAmount], err)
	}

	return model.StatementTransaction{
		Date:        date,
		Description: rec[cardColDesc],
		Amount:      amount,
		Source:      "card",
	}, nil
}
