// Package customer defines the tenant-scoped customer directory used to
// attach repeat buyers to sales.
package customer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for customer operations.
var (
	ErrNotFound      = errors.New("customer not found")
	ErrNameRequired  = errors.New("customer name is required")
	ErrPhoneRequired = errors.New("customer phone is required")
)

// DuplicatePhoneError indicates the tenant already has a customer with this
// phone number. Phone is the lookup key at the counter, so it stays unique
// per tenant.
type DuplicatePhoneError struct {
	Phone string
}

func (e *DuplicatePhoneError) Error() string {
	return fmt.Sprintf("customer with phone %s already exists", e.Phone)
}

// Customer is a repeat buyer. Sales keep a nullable reference to it; walk-in
// sales carry no customer at all.
type Customer struct {
	ID        string
	TenantID  string
	StoreID   string
	Name      string
	Phone     string
	CreatedAt time.Time
}

// Validate checks the fields a customer row cannot be stored without.
func (c *Customer) Validate() error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.Phone == "" {
		return ErrPhoneRequired
	}
	return nil
}

// Repository defines persistence operations for customers.
type Repository interface {
	// List returns the tenant's customers, optionally filtered by a
	// case-insensitive name or phone prefix.
	List(ctx context.Context, tenantID, query string) ([]Customer, error)
	GetByID(ctx context.Context, tenantID, id string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, tenantID, id string) error
}
