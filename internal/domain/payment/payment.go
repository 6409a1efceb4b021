// Package payment records UPI payment intents for sales. The provider
// integration is a pass-through: intents are created and settled against
// these rows, and the sale's payment status follows the intent.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for payment operations.
var (
	ErrNotFound = errors.New("payment not found")
	// ErrSettled is returned when confirming or failing an intent that
	// already reached a terminal state.
	ErrSettled = errors.New("payment already settled")
	// ErrNotPayable is returned when creating an intent for a sale that is
	// not an unpaid UPI sale.
	ErrNotPayable = errors.New("sale is not awaiting UPI payment")
)

// Status is the lifecycle state of a payment intent.
type Status string

const (
	StatusCreated   Status = "created"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Payment is one UPI intent. Amounts are stored in paise (the smallest
// currency unit) to match the provider wire format exactly.
type Payment struct {
	ID               string
	TenantID         string
	StoreID          string
	SaleID           string
	ProviderOrderID  string
	AmountPaise      int64
	Currency         string
	Status           Status
	Attempts         int
	ErrorCode        string
	ErrorDescription string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CapturedAt       *time.Time
}

// Repository defines persistence operations for payment intents.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, tenantID, id string) (*Payment, error)
	GetBySaleID(ctx context.Context, tenantID, saleID string) (*Payment, error)
	// GetByProviderOrderID resolves the intent a gateway callback refers to.
	GetByProviderOrderID(ctx context.Context, tenantID, providerOrderID string) (*Payment, error)
	// SetStatus transitions the intent, bumping attempts and recording the
	// capture time for confirmations.
	SetStatus(ctx context.Context, tenantID, id string, status Status, errCode, errDesc string) (*Payment, error)
}
