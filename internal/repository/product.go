package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/product"
)

const (
	selectProductColumns = `id, tenant_id, store_id, name, sku, barcode, category,
		price, stock, low_stock_threshold, image_url, status, created_at, updated_at`

	getProductByIDSQL = `SELECT ` + selectProductColumns + ` FROM products
		WHERE tenant_id = $1 AND id = $2`

	getProductsByIDsSQL = `SELECT ` + selectProductColumns + ` FROM products
		WHERE tenant_id = $1 AND id = ANY($2)`

	insertProductSQL = `INSERT INTO products (
			id, tenant_id, store_id, name, sku, barcode, category,
			price, stock, low_stock_threshold, image_url, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	updateProductSQL = `UPDATE products SET
			name = $3, sku = $4, barcode = $5, category = $6, price = $7,
			low_stock_threshold = $8, image_url = $9, status = $10, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`

	adjustStockSQL = `UPDATE products
		SET stock = GREATEST(stock + $3, 0), updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING ` + selectProductColumns

	deleteProductSQL = `DELETE FROM products WHERE tenant_id = $1 AND id = $2`

	// Default name PostgreSQL assigns to UNIQUE (tenant_id, sku).
	skuUniqueConstraint = "products_tenant_id_sku_key"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the tenant's catalog matching the filter, ordered by name.
func (r *ProductRepository) List(ctx context.Context, tenantID string, f product.ListFilter) ([]product.Product, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + selectProductColumns + ` FROM products WHERE tenant_id = $1`)
	args := []any{tenantID}

	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		fmt.Fprintf(&b, " AND (name ILIKE $%d OR sku ILIKE $%d OR barcode ILIKE $%d)",
			len(args), len(args), len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		fmt.Fprintf(&b, " AND category = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		fmt.Fprintf(&b, " AND status = $%d", len(args))
	}
	if f.LowStock {
		b.WriteString(" AND stock <= low_stock_threshold")
	}

	b.WriteString(" ORDER BY name")

	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, tenantID, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new catalog item.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.TenantID, nullable(p.StoreID), p.Name, p.SKU, nullable(p.Barcode), nullable(p.Category),
		p.Price, p.Stock, p.LowStockThreshold, nullable(p.ImageURL), string(p.Status),
	)
	if err != nil {
		if uniqueViolation(err, skuUniqueConstraint) {
			return &product.DuplicateSKUError{SKU: p.SKU}
		}
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update rewrites the editable fields of a product. Stock is deliberately
// excluded: it changes only via AdjustStock or a checkout transaction.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.TenantID, p.ID, p.Name, p.SKU, nullable(p.Barcode), nullable(p.Category),
		p.Price, p.LowStockThreshold, nullable(p.ImageURL), string(p.Status),
	)
	if err != nil {
		if uniqueViolation(err, skuUniqueConstraint) {
			return &product.DuplicateSKUError{SKU: p.SKU}
		}
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// AdjustStock applies a manual stock delta (goods received, shrinkage
// corrections), clamping at zero, and returns the updated product.
func (r *ProductRepository) AdjustStock(ctx context.Context, tenantID, id string, delta int) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, adjustStockSQL, tenantID, id, delta)
	if err != nil {
		return nil, fmt.Errorf("adjusting stock for %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("adjusting stock for %q: %w", id, err)
	}
	return &p, nil
}

// Delete removes a product. Past sale items keep their snapshots; their
// product reference is nulled by the schema.
func (r *ProductRepository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, tenantID, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p                          product.Product
		storeID, barcode, category *string
		imageURL                   *string
		status                     string
	)
	err := row.Scan(
		&p.ID, &p.TenantID, &storeID, &p.Name, &p.SKU, &barcode, &category,
		&p.Price, &p.Stock, &p.LowStockThreshold, &imageURL, &status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if storeID != nil {
		p.StoreID = *storeID
	}
	if barcode != nil {
		p.Barcode = *barcode
	}
	if category != nil {
		p.Category = *category
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	p.Status = product.Status(status)
	return p, err
}
