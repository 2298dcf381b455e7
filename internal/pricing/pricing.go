// Package pricing computes order totals with exact decimal arithmetic.
// All money flows through shopspring/decimal; float64 never touches an
// amount.
package pricing

import (
	"github.com/shopspring/decimal"
)

// LineInput is one purchasable line: the effective unit price already
// resolved (sale price when active) and the quantity requested.
type LineInput struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the full price breakdown for an order.
type Totals struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// Engine computes totals from configured tax and shipping parameters.
type Engine struct {
	taxRate     decimal.Decimal // fractional, e.g. 0.06
	shippingFee decimal.Decimal
}

// NewEngine builds an engine from a percentage tax rate ("6" means 6%) and a
// flat shipping fee in dollars.
func NewEngine(taxRatePercent, shippingFeeUSD decimal.Decimal) *Engine {
	return &Engine{
		taxRate:     taxRatePercent.Div(decimal.NewFromInt(100)),
		shippingFee: shippingFeeUSD,
	}
}

// ComputeTotals sums the lines, applies tax to the subtotal only, and adds
// the flat shipping fee. Tax is rounded half-up to cents before entering the
// total so the stored breakdown always reconciles exactly:
// total = subtotal + tax + shipping. An empty line list still incurs tax
// (zero) and the shipping fee; callers reject empty carts before pricing.
func (e *Engine) ComputeTotals(lines []LineInput) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(e.taxRate).Round(2)
	total := subtotal.Add(tax).Add(e.shippingFee)

	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		ShippingFee: e.shippingFee,
		Total:       total,
	}
}

// TaxRate exposes the fractional rate for diagnostics.
func (e *Engine) TaxRate() decimal.Decimal { return e.taxRate }

// ShippingFee exposes the flat fee.
func (e *Engine) ShippingFee() decimal.Decimal { return e.shippingFee }
