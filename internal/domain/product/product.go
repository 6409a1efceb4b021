// Package product defines the tenant-scoped catalog: the items a store
// sells, their prices, and their stock levels.
package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// DuplicateSKUError indicates the tenant already has a product with this SKU.
type DuplicateSKUError struct {
	SKU string
}

func (e *DuplicateSKUError) Error() string {
	return fmt.Sprintf("product with SKU %s already exists", e.SKU)
}

// Status marks whether a product is sellable. Inactive products stay
// visible in the catalog and in past sales but are rejected at checkout.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Product is a catalog item. Stock is the authoritative on-hand count and
// is only ever decremented inside a checkout transaction.
type Product struct {
	ID                string
	TenantID          string
	StoreID           string
	Name              string
	SKU               string
	Barcode           string
	Category          string
	Price             decimal.Decimal
	Stock             int
	LowStockThreshold int
	ImageURL          string
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Sellable reports whether the product can be sold at all (ignoring stock).
func (p *Product) Sellable() bool {
	return p.Status == StatusActive
}

// LowStock reports whether the on-hand count is at or below the product's
// reorder threshold.
func (p *Product) LowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Query    string
	Category string
	Status   Status
	LowStock bool
	Limit    int
	Offset   int
}

// Repository defines persistence operations for the catalog.
type Repository interface {
	List(ctx context.Context, tenantID string, f ListFilter) ([]Product, error)
	GetByID(ctx context.Context, tenantID, id string) (*Product, error)
	GetByIDs(ctx context.Context, tenantID string, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	AdjustStock(ctx context.Context, tenantID, id string, delta int) (*Product, error)
	Delete(ctx context.Context, tenantID, id string) error
}
