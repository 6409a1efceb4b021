package sale

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(price string, qty int) Line {
	return Line{ProductID: "p-" + price, UnitPrice: dec(price), Quantity: qty}
}

func assertDecEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestComputeTotals_NoDiscount(t *testing.T) {
	// Two lines, 18% tax, no discount: 40*2 + 20*4 = 160.00.
	totals, err := ComputeTotals(
		[]Line{line("40.00", 2), line("20.00", 4)},
		DiscountFlat, decimal.Zero, dec("18"),
	)

	require.NoError(t, err)
	assertDecEqual(t, "160.00", totals.Subtotal)
	assertDecEqual(t, "0.00", totals.Discount)
	assertDecEqual(t, "28.80", totals.Tax)
	assertDecEqual(t, "188.80", totals.Total)
}

func TestComputeTotals_FlatDiscount(t *testing.T) {
	totals, err := ComputeTotals(
		[]Line{line("100.00", 1)},
		DiscountFlat, dec("10"), dec("18"),
	)

	require.NoError(t, err)
	assertDecEqual(t, "100.00", totals.Subtotal)
	assertDecEqual(t, "10.00", totals.Discount)
	assertDecEqual(t, "16.20", totals.Tax)
	assertDecEqual(t, "106.20", totals.Total)
}

func TestComputeTotals_PercentageDiscount(t *testing.T) {
	totals, err := ComputeTotals(
		[]Line{line("19.99", 3)},
		DiscountPercentage, dec("10"), dec("18"),
	)

	require.NoError(t, err)
	assertDecEqual(t, "59.97", totals.Subtotal)
	assertDecEqual(t, "6.00", totals.Discount) // 5.997 rounds up
	assertDecEqual(t, "9.71", totals.Tax)      // 53.97 * 0.18 = 9.7146
	assertDecEqual(t, "63.68", totals.Total)
}

func TestComputeTotals_SubtotalRoundsOnceAtEnd(t *testing.T) {
	// 0.333 * 3 = 0.999 -> 1.00. Rounding each line first would give 0.99.
	totals, err := ComputeTotals(
		[]Line{line("0.333", 3)},
		DiscountFlat, decimal.Zero, decimal.Zero,
	)

	require.NoError(t, err)
	assertDecEqual(t, "1.00", totals.Subtotal)
	assertDecEqual(t, "1.00", totals.Total)
}

func TestComputeTotals_FlatDiscountClampedToSubtotal(t *testing.T) {
	totals, err := ComputeTotals(
		[]Line{line("10.00", 1)},
		DiscountFlat, dec("999"), dec("18"),
	)

	require.NoError(t, err)
	assertDecEqual(t, "10.00", totals.Discount)
	assertDecEqual(t, "0.00", totals.Tax)
	assertDecEqual(t, "0.00", totals.Total)
}

func TestComputeTotals_HundredPercentDiscount(t *testing.T) {
	totals, err := ComputeTotals(
		[]Line{line("50.00", 2)},
		DiscountPercentage, dec("100"), dec("18"),
	)

	require.NoError(t, err)
	assertDecEqual(t, "100.00", totals.Discount)
	assertDecEqual(t, "0.00", totals.Total)
}

func TestComputeTotals_PercentageOverHundred(t *testing.T) {
	_, err := ComputeTotals(
		[]Line{line("50.00", 1)},
		DiscountPercentage, dec("101"), decimal.Zero,
	)
	require.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestComputeTotals_NegativeDiscount(t *testing.T) {
	_, err := ComputeTotals(
		[]Line{line("50.00", 1)},
		DiscountFlat, dec("-5"), decimal.Zero,
	)
	require.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestComputeTotals_UnsupportedDiscountType(t *testing.T) {
	_, err := ComputeTotals(
		[]Line{line("50.00", 1)},
		DiscountType("bogus"), dec("5"), decimal.Zero,
	)
	require.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestComputeTotals_NegativeTaxRate(t *testing.T) {
	_, err := ComputeTotals(
		[]Line{line("50.00", 1)},
		DiscountFlat, decimal.Zero, dec("-1"),
	)
	require.ErrorIs(t, err, ErrInvalidTaxRate)
}

func TestComputeTotals_InvalidQuantity(t *testing.T) {
	_, err := ComputeTotals(
		[]Line{{ProductID: "p1", UnitPrice: dec("5.00"), Quantity: 0}},
		DiscountFlat, decimal.Zero, decimal.Zero,
	)

	var qtyErr *InvalidQuantityError
	require.ErrorAs(t, err, &qtyErr)
	assert.Equal(t, "p1", qtyErr.ProductID)
}

func TestComputeTotals_NegativePrice(t *testing.T) {
	_, err := ComputeTotals(
		[]Line{{ProductID: "p1", UnitPrice: dec("-5.00"), Quantity: 1}},
		DiscountFlat, decimal.Zero, decimal.Zero,
	)
	require.ErrorIs(t, err, ErrNegativePrice)
}

func TestComputeTotals_EmptyCartIsZero(t *testing.T) {
	// The service rejects empty carts before pricing; the calculator itself
	// just returns zeros.
	totals, err := ComputeTotals(nil, DiscountFlat, decimal.Zero, dec("18"))

	require.NoError(t, err)
	assertDecEqual(t, "0.00", totals.Subtotal)
	assertDecEqual(t, "0.00", totals.Total)
}

func TestChangeDue(t *testing.T) {
	assertDecEqual(t, "11.20", ChangeDue(dec("188.80"), dec("200.00")))
	assertDecEqual(t, "0.00", ChangeDue(dec("188.80"), dec("188.80")))
	// Underpayment never yields negative change.
	assertDecEqual(t, "0.00", ChangeDue(dec("188.80"), dec("100.00")))
}
