// Package sale implements the checkout core: deterministic total
// calculation, invoice number sequencing, and the atomic persistence
// contract that ties a sale, its line items, and stock levels together.
package sale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer settled the sale.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

// Valid reports whether m is one of the supported payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// PaymentStatus tracks settlement state. Cash and card sales are recorded
// as paid immediately; UPI sales stay pending until the payment intent is
// confirmed.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// DiscountType selects how the sale-level discount is interpreted.
type DiscountType string

const (
	DiscountFlat       DiscountType = "flat"
	DiscountPercentage DiscountType = "percentage"
)

// Status is the lifecycle state of a sale row. Held carts live in their own
// table and never become a Sale until checked out, so completed is the only
// state checkout ever writes.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusHeld      Status = "held"
)

// Sale is a finalized checkout with its full money breakdown.
type Sale struct {
	ID            string
	TenantID      string
	StoreID       string
	InvoiceNo     string
	CustomerID    string
	CashierID     string
	Items         []Item
	Subtotal      decimal.Decimal
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	Discount      decimal.Decimal
	TaxRate       decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Paid          decimal.Decimal
	Change        decimal.Decimal
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Status        Status
	CreatedAt     time.Time
}

// Item is a single sale line. Name and UnitPrice are snapshots taken at
// checkout time so receipts survive later catalog edits.
type Item struct {
	ID        string
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	From          time.Time
	To            time.Time
	CustomerID    string
	CashierID     string
	PaymentMethod PaymentMethod
	Status        Status
	Limit         int
	Offset        int
}

// Summary aggregates completed sales over a period.
type Summary struct {
	Count       int
	Revenue     decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	ByMethod    []MethodTotal
	TopProducts []ProductSales
}

// MethodTotal is the per-payment-method slice of a Summary.
type MethodTotal struct {
	Method PaymentMethod
	Count  int
	Amount decimal.Decimal
}

// ProductSales ranks a product by units sold over the summary period.
type ProductSales struct {
	ProductID string
	Name      string
	Quantity  int
	Revenue   decimal.Decimal
}

// Repository defines persistence operations for sales.
//
// Create is the atomic checkout commit: inside one transaction it allocates
// the next invoice number for the sale's tenant and year, locks the sold
// products, re-validates that each is active with enough stock, inserts the
// sale and its items, and decrements stock. On any failure nothing is
// persisted. Create fills in s.InvoiceNo on success.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, tenantID, id string) (*Sale, error)
	List(ctx context.Context, tenantID string, f ListFilter) ([]Sale, error)
	NextInvoiceNo(ctx context.Context, tenantID string, year int) (string, error)
	Summary(ctx context.Context, tenantID string, from, to time.Time) (*Summary, error)
	UpdatePaymentStatus(ctx context.Context, tenantID, id string, status PaymentStatus) error
}
