package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestAssembleBurgerWithExtras(t *testing.T) {
	lines, totals := Assemble([]LineInput{{
		ProductName: "Burger",
		Qty:         dec("2"),
		PriceUnit:   dec("5.0"),
		Discount:    dec("10"),
		Extras:      []ExtraInput{{Name: "Cheese", Price: dec("1.0")}},
	}}, Overrides{})

	require.Len(t, lines, 1)
	assert.True(t, dec("6").Equal(lines[0].PriceUnit))
	assert.True(t, dec("10.8").Equal(lines[0].PriceSubtotal), lines[0].PriceSubtotal.String())
	assert.True(t, lines[0].PriceSubtotal.Equal(lines[0].PriceSubtotalIncl))
	assert.Equal(t, "\nExtras: + Cheese (+$1.00)", lines[0].CustomerNote)

	assert.True(t, dec("10.8").Equal(totals.AmountTotal))
	assert.True(t, dec("10.8").Equal(totals.AmountPaid))
	assert.True(t, totals.AmountReturn.IsZero())
	assert.True(t, totals.AmountTax.IsZero())
}

func TestAssembleTotalIsSumOfSubtotals(t *testing.T) {
	lines, totals := Assemble([]LineInput{
		{ProductName: "A", Qty: dec("3"), PriceUnit: dec("2.5")},
		{ProductName: "B", Qty: dec("1"), PriceUnit: dec("10"), Discount: dec("50"),
			Extras: []ExtraInput{{Name: "X", Price: dec("2")}, {Name: "Free", Price: dec("0")}, {Name: "Neg", Price: dec("-3")}}},
	}, Overrides{})

	require.Len(t, lines, 2)
	assert.True(t, dec("7.5").Equal(lines[0].PriceSubtotal))
	assert.True(t, dec("6").Equal(lines[1].PriceSubtotal), lines[1].PriceSubtotal.String())
	assert.True(t, dec("13.5").Equal(totals.AmountTotal))
	assert.Equal(t, "\nExtras: + X (+$2.00), + Free, + Neg", lines[1].CustomerNote)
}

func TestAssembleAmountReturnDefaultsToChange(t *testing.T) {
	_, totals := Assemble([]LineInput{
		{ProductName: "Combo", Qty: dec("1"), PriceUnit: dec("42.50")},
	}, Overrides{AmountPaid: decPtr("50")})

	assert.True(t, dec("42.5").Equal(totals.AmountTotal))
	assert.True(t, dec("50").Equal(totals.AmountPaid))
	assert.True(t, dec("7.5").Equal(totals.AmountReturn))
}

func TestAssembleAmountReturnNeverNegative(t *testing.T) {
	_, totals := Assemble([]LineInput{
		{ProductName: "Combo", Qty: dec("1"), PriceUnit: dec("42.50")},
	}, Overrides{AmountPaid: decPtr("40")})

	assert.True(t, totals.AmountReturn.IsZero())
}

func TestAssembleHonoursOverrides(t *testing.T) {
	_, totals := Assemble([]LineInput{
		{ProductName: "Combo", Qty: dec("1"), PriceUnit: dec("10")},
	}, Overrides{AmountTax: decPtr("1.9"), AmountPaid: decPtr("20"), AmountReturn: decPtr("3")})

	assert.True(t, dec("1.9").Equal(totals.AmountTax))
	assert.True(t, dec("3").Equal(totals.AmountReturn))
}

func TestAssembleNotePrefersCustomerNote(t *testing.T) {
	lines, _ := Assemble([]LineInput{
		{ProductName: "A", Qty: dec("1"), CustomerNote: "no onions", Note: "ignored",
			Extras: []ExtraInput{{Name: "", Price: dec("5")}}},
		{ProductName: "B", Qty: dec("1"), Note: "well done"},
	}, Overrides{})

	assert.Equal(t, "no onions", lines[0].CustomerNote)
	assert.True(t, lines[0].PriceUnit.IsZero())
	assert.Equal(t, "well done", lines[1].CustomerNote)
}

func TestValidateLines(t *testing.T) {
	assert.ErrorIs(t, ValidateLines(nil), ErrNoLines)
	assert.ErrorIs(t, ValidateLines([]LineInput{{ProductName: "A"}, {ProductName: " "}}), ErrMissingProductName)
	assert.NoError(t, ValidateLines([]LineInput{{ProductName: "A"}}))
}
