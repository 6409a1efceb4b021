package sale

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Line is the pricing input for one cart position. Quantities and unit
// prices are validated by ComputeTotals rather than trusted.
type Line struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the deterministic money breakdown of a cart. All fields are
// rounded to 2 decimal places.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives the full breakdown for a cart:
//
//	subtotal = round2(sum of unit price * quantity)
//	discount = percentage of subtotal, or the flat amount clamped to [0, subtotal]
//	tax      = round2((subtotal - discount) * taxRate / 100)
//	total    = subtotal - discount + tax
//
// The sum is accumulated at full precision and rounded once, so many small
// lines cannot drift the subtotal. Percentage values outside [0, 100],
// negative flat amounts, negative tax rates, non-positive quantities, and
// negative prices are all rejected.
func ComputeTotals(lines []Line, discountType DiscountType, discountValue, taxRate decimal.Decimal) (Totals, error) {
	if taxRate.IsNegative() {
		return Totals{}, errors.Wrapf(ErrInvalidTaxRate, "rate %s", taxRate)
	}

	subtotal := zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			return Totals{}, &InvalidQuantityError{ProductID: l.ProductID, Quantity: l.Quantity}
		}
		if l.UnitPrice.IsNegative() {
			return Totals{}, errors.Wrapf(ErrNegativePrice, "product %s", l.ProductID)
		}
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	discount, err := computeDiscount(discountType, discountValue, subtotal)
	if err != nil {
		return Totals{}, err
	}

	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate).Div(hundred).Round(2)
	total := taxable.Add(tax).Round(2)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    total,
	}, nil
}

func computeDiscount(discountType DiscountType, value, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if value.IsNegative() {
		return zero, errors.Wrapf(ErrInvalidDiscount, "negative value %s", value)
	}

	switch discountType {
	case DiscountPercentage:
		if value.GreaterThan(hundred) {
			return zero, errors.Wrapf(ErrInvalidDiscount, "percentage %s exceeds 100", value)
		}
		return subtotal.Mul(value).Div(hundred).Round(2), nil
	case DiscountFlat, "":
		// A flat discount larger than the subtotal would produce a negative
		// taxable amount; clamp instead.
		return decimal.Min(value, subtotal).Round(2), nil
	default:
		return zero, errors.Wrapf(ErrInvalidDiscount, "unsupported type %q", discountType)
	}
}

// ChangeDue returns how much to hand back: max(0, paid - total).
// Overpaying with card or UPI is impossible by construction, so only cash
// sales ever produce change.
func ChangeDue(total, paid decimal.Decimal) decimal.Decimal {
	change := paid.Sub(total)
	if change.IsNegative() {
		return zero
	}
	return change.Round(2)
}
