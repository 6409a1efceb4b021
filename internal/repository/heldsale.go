package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/cart"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/heldsale"
)

const (
	createHeldSaleSQL = `INSERT INTO held_sales (id, tenant_id, store_id, label, cart, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	listHeldSalesSQL = `SELECT id, tenant_id, store_id, label, cart, created_at
	FROM held_sales WHERE tenant_id = $1 ORDER BY created_at DESC`

	getHeldSaleByIDSQL = `SELECT id, tenant_id, store_id, label, cart, created_at
	FROM held_sales WHERE tenant_id = $1 AND id = $2`

	deleteHeldSaleSQL = `DELETE FROM held_sales WHERE tenant_id = $1 AND id = $2`
)

var _ heldsale.Repository = (*HeldSaleRepository)(nil)

// HeldSaleRepository implements heldsale.Repository backed by PostgreSQL.
type HeldSaleRepository struct {
	pool *pgxpool.Pool
}

// NewHeldSaleRepository returns a HeldSaleRepository that uses the given pool.
func NewHeldSaleRepository(pool *pgxpool.Pool) *HeldSaleRepository {
	return &HeldSaleRepository{pool: pool}
}

// Create parks a cart. The cart lines are serialized to JSON for storage in
// the JSONB column.
func (r *HeldSaleRepository) Create(ctx context.Context, h *heldsale.HeldSale) error {
	cartJSON, err := json.Marshal(h.Lines)
	if err != nil {
		return fmt.Errorf("marshaling held cart: %w", err)
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}

	_, err = r.pool.Exec(ctx, createHeldSaleSQL,
		h.ID, h.TenantID, nullable(h.StoreID), h.Label, cartJSON, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating held sale %q: %w", h.ID, err)
	}

	return nil
}

// List returns all held sales for a tenant, newest first.
func (r *HeldSaleRepository) List(ctx context.Context, tenantID string) ([]heldsale.HeldSale, error) {
	rows, err := r.pool.Query(ctx, listHeldSalesSQL, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing held sales: %w", err)
	}

	held, err := pgx.CollectRows(rows, scanHeldSale)
	if err != nil {
		return nil, fmt.Errorf("scanning held sales: %w", err)
	}

	return held, nil
}

// GetByID returns a single held sale or heldsale.ErrNotFound.
func (r *HeldSaleRepository) GetByID(ctx context.Context, tenantID, id string) (*heldsale.HeldSale, error) {
	rows, err := r.pool.Query(ctx, getHeldSaleByIDSQL, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("querying held sale %q: %w", id, err)
	}

	h, err := pgx.CollectExactlyOneRow(rows, scanHeldSale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, heldsale.ErrNotFound
		}
		return nil, fmt.Errorf("scanning held sale %q: %w", id, err)
	}

	return &h, nil
}

// Delete removes a held sale, typically after it has been resumed.
func (r *HeldSaleRepository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, deleteHeldSaleSQL, tenantID, id)
	if err != nil {
		return fmt.Errorf("deleting held sale %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return heldsale.ErrNotFound
	}

	return nil
}

func scanHeldSale(row pgx.CollectableRow) (heldsale.HeldSale, error) {
	var (
		h        heldsale.HeldSale
		storeID  *string
		cartJSON []byte
		created  time.Time
	)
	if err := row.Scan(&h.ID, &h.TenantID, &storeID, &h.Label, &cartJSON, &created); err != nil {
		return heldsale.HeldSale{}, err
	}
	if storeID != nil {
		h.StoreID = *storeID
	}
	if err := json.Unmarshal(cartJSON, &h.Lines); err != nil {
		return heldsale.HeldSale{}, fmt.Errorf("unmarshaling held cart: %w", err)
	}
	if h.Lines == nil {
		h.Lines = []cart.Line{}
	}
	h.CreatedAt = created
	return h, nil
}
