package split

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tandem-dev/tandem/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func plain(id, amount string, a model.CostAssignment) model.Expense {
	return model.Expense{
		EntryID:    id,
		Date:       time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		Amount:     dec(amount),
		Assignment: a,
		CreditLine: true,
	}
}

func TestCompute_Assignments(t *testing.T) {
	expenses := []model.Expense{
		plain("2025-03-001", "100.00", model.AssignmentPersonal),
		plain("2025-03-002", "200.00", model.AssignmentPartner),
		plain("2025-03-003", "50.00", model.AssignmentShared),
	}

	res := Compute(expenses, nil)

	assert.True(t, res.UserAmount.Equal(dec("125.00")), "got %s", res.UserAmount)
	assert.True(t, res.PartnerAmount.Equal(dec("225.00")), "got %s", res.PartnerAmount)
	assert.True(t, res.RegisteredTotal.Equal(dec("350.00")))
	assert.False(t, res.HasWarning)
	assert.True(t, res.UnregisteredDifference.IsZero())
}

func TestCompute_GroupPurchase(t *testing.T) {
	// 900 charged, 300 each for the members, 300 reimbursed to the user.
	e := model.Expense{
		EntryID:    "2025-03-001",
		Assignment: model.AssignmentShared,
		CreditLine: true,
		Group: &model.GroupPurchase{
			TotalAmount:    dec("900.00"),
			UserShare:      dec("300.00"),
			PartnerShare:   dec("300.00"),
			SwishRecipient: model.SwishUser,
		},
	}

	res := Compute([]model.Expense{e}, nil)

	assert.True(t, res.UserAmount.Equal(dec("600.00")), "got %s", res.UserAmount)
	assert.True(t, res.PartnerAmount.Equal(dec("300.00")), "got %s", res.PartnerAmount)
	assert.True(t, res.RegisteredTotal.Equal(dec("900.00")))
	assert.Empty(t, res.Anomalies)
}

func TestCompute_GroupPurchaseSharedRecipient(t *testing.T) {
	e := model.Expense{
		EntryID:    "2025-03-001",
		Assignment: model.AssignmentShared,
		CreditLine: true,
		Group: &model.GroupPurchase{
			TotalAmount:    dec("1000.00"),
			UserShare:      dec("250.00"),
			PartnerShare:   dec("350.00"),
			SwishRecipient: model.SwishShared,
		},
	}

	res := Compute([]model.Expense{e}, nil)

	// Remainder 400 splits 200/200.
	assert.True(t, res.UserAmount.Equal(dec("450.00")), "got %s", res.UserAmount)
	assert.True(t, res.PartnerAmount.Equal(dec("550.00")), "got %s", res.PartnerAmount)
}

func TestCompute_GroupPurchaseClampsMalformedRemainder(t *testing.T) {
	// Shares exceed the total: validation should have caught this, but the
	// calculator degrades instead of crashing and flags the anomaly.
	e := model.Expense{
		EntryID:    "2025-03-001",
		Assignment: model.AssignmentShared,
		CreditLine: true,
		Group: &model.GroupPurchase{
			TotalAmount:    dec("500.00"),
			UserShare:      dec("300.00"),
			PartnerShare:   dec("300.00"),
			SwishRecipient: model.SwishUser,
		},
	}

	res := Compute([]model.Expense{e}, nil)

	assert.True(t, res.UserAmount.Equal(dec("300.00")))
	assert.True(t, res.PartnerAmount.Equal(dec("300.00")))
	require.Len(t, res.Anomalies, 1)
	assert.Contains(t, res.Anomalies[0], "clamped")
}

func TestCompute_WarningWhenOverRegistered(t *testing.T) {
	expenses := []model.Expense{plain("2025-03-001", "5000.00", model.AssignmentShared)}

	res := Compute(expenses, decPtr("4500.00"))

	assert.True(t, res.HasWarning)
	assert.True(t, res.UnregisteredDifference.IsZero())
	assert.True(t, res.UserAmount.Equal(dec("2500.00")))
	assert.True(t, res.PartnerAmount.Equal(dec("2500.00")))
}

func TestCompute_UnregisteredDifferenceSplitEvenly(t *testing.T) {
	expenses := []model.Expense{plain("2025-03-001", "4000.00", model.AssignmentShared)}

	res := Compute(expenses, decPtr("4500.00"))

	assert.False(t, res.HasWarning)
	assert.True(t, res.UnregisteredDifference.Equal(dec("500.00")))
	assert.True(t, res.UserAmount.Equal(dec("2250.00")), "got %s", res.UserAmount)
	assert.True(t, res.PartnerAmount.Equal(dec("2250.00")), "got %s", res.PartnerAmount)
}

func TestCompute_NilActualIsEstimatedView(t *testing.T) {
	expenses := []model.Expense{plain("2025-03-001", "4000.00", model.AssignmentShared)}

	res := Compute(expenses, nil)

	assert.False(t, res.HasWarning)
	assert.True(t, res.UnregisteredDifference.IsZero())
	assert.True(t, res.UserAmount.Add(res.PartnerAmount).Equal(res.RegisteredTotal))
}

func TestCompute_NonPositiveActualIgnored(t *testing.T) {
	expenses := []model.Expense{plain("2025-03-001", "100.00", model.AssignmentShared)}

	res := Compute(expenses, decPtr("0.00"))

	assert.False(t, res.HasWarning)
	assert.True(t, res.UnregisteredDifference.IsZero())
}

func TestCompute_EmptyBucket(t *testing.T) {
	res := Compute(nil, decPtr("300.00"))

	// Nothing itemized: whole invoice is unregistered and splits evenly.
	assert.True(t, res.UnregisteredDifference.Equal(dec("300.00")))
	assert.True(t, res.UserAmount.Equal(dec("150.00")))
	assert.True(t, res.PartnerAmount.Equal(dec("150.00")))
}

func TestRounded_Conservation(t *testing.T) {
	// 100.01 shared splits into 50.005 each; naive rounding would display
	// 50.01 + 50.01 = 100.02. The residual öre lands on one member so the
	// displayed sum still equals the registered total.
	expenses := []model.Expense{plain("2025-03-001", "100.01", model.AssignmentShared)}

	res := Compute(expenses, nil).Rounded()

	sum := res.UserAmount.Add(res.PartnerAmount)
	assert.True(t, sum.Equal(dec("100.01")), "got %s", sum)
}

func TestRounded_ResidualToLargestShare(t *testing.T) {
	expenses := []model.Expense{
		plain("2025-03-001", "100.01", model.AssignmentShared),
		plain("2025-03-002", "500.00", model.AssignmentPartner),
	}

	res := Compute(expenses, nil).Rounded()

	// Partner holds the largest single attributed share (500.00), so the
	// sub-unit residual is theirs.
	sum := res.UserAmount.Add(res.PartnerAmount)
	assert.True(t, sum.Equal(dec("600.01")), "got %s", sum)
	assert.True(t, res.UserAmount.Equal(dec("50.01")), "got %s", res.UserAmount)
	assert.True(t, res.PartnerAmount.Equal(dec("550.00")), "got %s", res.PartnerAmount)
}

func TestRounded_ConservesActualAmount(t *testing.T) {
	expenses := []model.Expense{
		plain("2025-03-001", "33.33", model.AssignmentShared),
		plain("2025-03-002", "66.67", model.AssignmentShared),
	}

	res := Compute(expenses, decPtr("150.01")).Rounded()

	sum := res.UserAmount.Add(res.PartnerAmount)
	assert.True(t, sum.Equal(dec("150.01")), "got %s", sum)
}
