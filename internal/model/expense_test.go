package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestReimbursedRemainder(t *testing.T) {
	g := GroupPurchase{
		TotalAmount:  dec("900.00"),
		UserShare:    dec("300.00"),
		PartnerShare: dec("300.00"),
	}
	assert.True(t, g.ReimbursedRemainder().Equal(dec("300.00")))
}

func TestReimbursedRemainder_ClampsToZero(t *testing.T) {
	g := GroupPurchase{
		TotalAmount:  dec("500.00"),
		UserShare:    dec("300.00"),
		PartnerShare: dec("300.00"),
	}
	assert.True(t, g.ReimbursedRemainder().IsZero())
}

func TestRegisteredAmount(t *testing.T) {
	plain := Expense{Amount: dec("129.00")}
	assert.True(t, plain.RegisteredAmount().Equal(dec("129.00")))

	group := Expense{
		Amount: decimal.Zero,
		Group: &GroupPurchase{
			TotalAmount:  dec("900.00"),
			UserShare:    dec("300.00"),
			PartnerShare: dec("300.00"),
		},
	}
	assert.True(t, group.RegisteredAmount().Equal(dec("900.00")))
}

func TestStatementTransactionIsRefund(t *testing.T) {
	assert.True(t, StatementTransaction{Amount: dec("-249.00")}.IsRefund())
	assert.False(t, StatementTransaction{Amount: dec("249.00")}.IsRefund())
}
