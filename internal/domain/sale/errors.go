package sale

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for checkout validation and the invoice sequencer.
var (
	ErrNotFound           = errors.New("sale not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidDiscount    = errors.New("invalid discount")
	ErrInvalidTaxRate     = errors.New("invalid tax rate")
	ErrNegativePrice      = errors.New("negative unit price")
	ErrInvalidPayment     = errors.New("invalid payment method")
	ErrMalformedInvoiceNo = errors.New("malformed invoice number")

	// ErrInvoiceConflict means another checkout won the same invoice number.
	// Retryable: the next attempt allocates a fresh number.
	ErrInvoiceConflict = errors.New("invoice number conflict")
)

// ProductNotFoundError indicates a cart line references a product that does
// not exist for the tenant.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// ProductInactiveError indicates a cart line references a deactivated
// product.
type ProductInactiveError struct {
	ProductID string
}

func (e *ProductInactiveError) Error() string {
	return fmt.Sprintf("product %s is inactive", e.ProductID)
}

// InvalidQuantityError indicates a cart line with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity %d is invalid for product %s", e.Quantity, e.ProductID)
}

// InsufficientStockError reports exactly how short a product is, so the
// cashier can tell the customer what is still available.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InsufficientPaymentError indicates a cash payment smaller than the total.
type InsufficientPaymentError struct {
	Total decimal.Decimal
	Paid  decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("paid amount %s is less than total %s", e.Paid, e.Total)
}
