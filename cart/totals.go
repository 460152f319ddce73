package cart

import (
	"github.com/shopspring/decimal"

	"shopfront/model"
)

// DefaultTaxRate is the flat rate applied at checkout display time.
var DefaultTaxRate = decimal.NewFromFloat(0.08)

// Totals is a derived value recomputed on demand; it is never persisted.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums the line items and applies taxRate. Tax is rounded to
// two decimal places before entering the total, so the displayed figures
// always add up.
func ComputeTotals(items []model.CartItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	tax := subtotal.Mul(taxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
