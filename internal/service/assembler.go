package service

import (
	"fmt"
	"strings"

	"pos-order-api/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ExtraInput is an add-on priced on top of a line's base price
type ExtraInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// LineInput is one storefront order line
type LineInput struct {
	ProductName  string          `json:"product_name"`
	Qty          decimal.Decimal `json:"qty"`
	PriceUnit    decimal.Decimal `json:"price_unit"`
	Discount     decimal.Decimal `json:"discount"`
	CustomerNote string          `json:"customer_note"`
	Note         string          `json:"note"`
	Extras       []ExtraInput    `json:"extras"`
}

// Overrides are caller supplied totals; nil fields are computed
type Overrides struct {
	AmountTax    *decimal.Decimal
	AmountPaid   *decimal.Decimal
	AmountReturn *decimal.Decimal
}

// Totals are the aggregate amounts of an order
type Totals struct {
	AmountTotal  decimal.Decimal
	AmountTax    decimal.Decimal
	AmountPaid   decimal.Decimal
	AmountReturn decimal.Decimal
}

// ValidateLines rejects requests that must not touch the store at all
func ValidateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	for i, line := range lines {
		if strings.TrimSpace(line.ProductName) == "" {
			return fmt.Errorf("%w (line %d)", ErrMissingProductName, i+1)
		}
	}
	return nil
}

// Assemble prices the raw lines and computes the order totals. Product ids
// are left zero for the caller to fill after resolution.
func Assemble(raw []LineInput, o Overrides) ([]models.OrderLine, Totals) {
	lines := make([]models.OrderLine, 0, len(raw))
	total := decimal.Zero

	for _, in := range raw {
		extrasPrice, extrasText := renderExtras(in.Extras)
		priceUnit := in.PriceUnit.Add(extrasPrice)
		subtotal := in.Qty.Mul(priceUnit).Mul(decimal.NewFromInt(1).Sub(in.Discount.Div(hundred)))

		note := in.CustomerNote
		if note == "" {
			note = in.Note
		}

		lines = append(lines, models.OrderLine{
			Qty:               in.Qty,
			PriceUnit:         priceUnit,
			Discount:          in.Discount,
			PriceSubtotal:     subtotal,
			PriceSubtotalIncl: subtotal,
			CustomerNote:      note + extrasText,
		})
		total = total.Add(subtotal)
	}

	totals := Totals{
		AmountTotal: total,
		AmountTax:   decimal.Zero,
		AmountPaid:  total,
	}
	if o.AmountTax != nil {
		totals.AmountTax = *o.AmountTax
	}
	if o.AmountPaid != nil {
		totals.AmountPaid = *o.AmountPaid
	}
	if o.AmountReturn != nil {
		totals.AmountReturn = *o.AmountReturn
	} else {
		totals.AmountReturn = decimal.Max(decimal.Zero, totals.AmountPaid.Sub(totals.AmountTotal))
	}

	return lines, totals
}

// renderExtras sums the positive extra prices and renders the note suffix.
// Extras without a name are ignored.
func renderExtras(extras []ExtraInput) (decimal.Decimal, string) {
	sum := decimal.Zero
	parts := make([]string, 0, len(extras))

	for _, extra := range extras {
		if extra.Name == "" {
			continue
		}
		if extra.Price.IsPositive() {
			parts = append(parts, fmt.Sprintf("+ %s (+$%s)", extra.Name, extra.Price.StringFixed(2)))
			sum = sum.Add(extra.Price)
		} else {
			parts = append(parts, "+ "+extra.Name)
		}
	}

	if len(parts) == 0 {
		return sum, ""
	}
	return sum, "\nExtras: " + strings.Join(parts, ", ")
}
