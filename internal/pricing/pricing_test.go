package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	rate, err := decimal.NewFromString("6")
	require.NoError(t, err)
	fee, err := decimal.NewFromString("11.95")
	require.NoError(t, err)
	return NewEngine(rate, fee)
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func TestComputeTotals_SingleLine(t *testing.T) {
	e := newTestEngine(t)

	totals := e.ComputeTotals([]LineInput{
		{UnitPrice: d(t, "100.00"), Quantity: 1},
	})

	assert.True(t, totals.Subtotal.Equal(d(t, "100.00")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.Tax.Equal(d(t, "6.00")), "tax %s", totals.Tax)
	assert.True(t, totals.ShippingFee.Equal(d(t, "11.95")))
	assert.True(t, totals.Total.Equal(d(t, "117.95")), "total %s", totals.Total)
}

func TestComputeTotals_MultipleLines(t *testing.T) {
	e := newTestEngine(t)

	totals := e.ComputeTotals([]LineInput{
		{UnitPrice: d(t, "140.00"), Quantity: 2},
		{UnitPrice: d(t, "19.99"), Quantity: 3},
	})

	// 280.00 + 59.97 = 339.97; tax 20.3982 -> 20.40
	assert.True(t, totals.Subtotal.Equal(d(t, "339.97")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.Tax.Equal(d(t, "20.40")), "tax %s", totals.Tax)
	assert.True(t, totals.Total.Equal(d(t, "372.32")), "total %s", totals.Total)
}

func TestComputeTotals_TaxRoundingHalfUp(t *testing.T) {
	e := newTestEngine(t)

	// 10.25 * 0.06 = 0.615 -> rounds to 0.62
	totals := e.ComputeTotals([]LineInput{
		{UnitPrice: d(t, "10.25"), Quantity: 1},
	})

	assert.True(t, totals.Tax.Equal(d(t, "0.62")), "tax %s", totals.Tax)
	assert.True(t, totals.Total.Equal(d(t, "22.82")), "total %s", totals.Total)
}

func TestComputeTotals_EmptyLines(t *testing.T) {
	e := newTestEngine(t)

	totals := e.ComputeTotals(nil)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.Equal(d(t, "11.95")), "total %s", totals.Total)
}

func TestComputeTotals_BreakdownReconciles(t *testing.T) {
	e := newTestEngine(t)

	totals := e.ComputeTotals([]LineInput{
		{UnitPrice: d(t, "33.33"), Quantity: 3},
		{UnitPrice: d(t, "0.01"), Quantity: 7},
	})

	sum := totals.Subtotal.Add(totals.Tax).Add(totals.ShippingFee)
	assert.True(t, totals.Total.Equal(sum), "total %s vs sum %s", totals.Total, sum)
}
