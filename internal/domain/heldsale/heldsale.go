// Package heldsale stores parked carts. Holding a sale snapshots the cart
// lines only: no invoice number is allocated and no stock moves until the
// cart is resumed and checked out for real.
package heldsale

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/cart"
)

// ErrNotFound is returned when a requested held sale does not exist.
var ErrNotFound = errors.New("held sale not found")

// HeldSale is a parked cart with an optional cashier-facing label
// ("table 4", "blue shirt guy").
type HeldSale struct {
	ID        string
	TenantID  string
	StoreID   string
	Label     string
	Lines     []cart.Line
	CreatedAt time.Time
}

// Repository defines persistence operations for held sales.
type Repository interface {
	Create(ctx context.Context, h *HeldSale) error
	List(ctx context.Context, tenantID string) ([]HeldSale, error)
	GetByID(ctx context.Context, tenantID, id string) (*HeldSale, error)
	Delete(ctx context.Context, tenantID, id string) error
}
