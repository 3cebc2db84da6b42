package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tandem-dev/tandem/internal/model"
)

// FormatEntryID returns an expense entry ID like "2025-01-001": the invoice
// period the expense belongs to plus a per-period sequence number.
func FormatEntryID(p model.Period, seq int) string {
	return fmt.Sprintf("%s-%03d", p.String(), seq)
}

// ParseEntryID parses "2025-01-001" into its period and sequence.
func ParseEntryID(id string) (model.Period, int, error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 {
		return model.Period{}, 0, fmt.Errorf("invalid entry ID format: %q", id)
	}

	p, err := model.ParsePeriod(parts[0] + "-" + parts[1])
	if err != nil {
		return model.Period{}, 0, fmt.Errorf("invalid period in entry ID %q: %w", id, err)
	}

	seq, err := strconv.Atoi(parts[2])
	if err != nil {
		return model.Period{}, 0, fmt.Errorf("invalid sequence in entry ID %q: %w", id, err)
	}

	return p, seq, nil
}
