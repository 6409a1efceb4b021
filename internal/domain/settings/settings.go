// Package settings holds per-tenant store configuration. A tenant's row is
// created lazily with defaults on first read, so a fresh tenant can check
// out immediately with a zero tax rate.
package settings

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidTaxRate is returned when an update carries a negative tax rate.
var ErrInvalidTaxRate = errors.New("tax rate must not be negative")

// Settings is the per-tenant store profile used on receipts and during
// checkout. TaxRate is a percentage, e.g. 18 for 18% GST.
type Settings struct {
	ID                string
	TenantID          string
	StoreName         string
	StoreAddress      string
	StorePhone        string
	StoreEmail        string
	TaxRate           decimal.Decimal
	CurrencySymbol    string
	CurrencyCode      string
	UPIID             string
	LowStockThreshold int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Update carries a partial settings change. Nil fields are left untouched.
type Update struct {
	StoreName         *string
	StoreAddress      *string
	StorePhone        *string
	StoreEmail        *string
	TaxRate           *decimal.Decimal
	CurrencySymbol    *string
	CurrencyCode      *string
	UPIID             *string
	LowStockThreshold *int
}

// Validate rejects updates that would leave settings unusable for checkout.
func (u Update) Validate() error {
	if u.TaxRate != nil && u.TaxRate.IsNegative() {
		return errors.Wrapf(ErrInvalidTaxRate, "rate %s", u.TaxRate)
	}
	return nil
}

// Repository defines persistence operations for tenant settings.
type Repository interface {
	// GetOrInit returns the tenant's settings, inserting the default row
	// first if none exists yet.
	GetOrInit(ctx context.Context, tenantID string) (*Settings, error)
	Update(ctx context.Context, tenantID string, u Update) (*Settings, error)
}
