package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/sale"
)

const (
	allocateInvoiceSQL = `INSERT INTO invoice_counters (tenant_id, year, counter)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, year) DO UPDATE SET counter = invoice_counters.counter + 1
		RETURNING counter`

	peekInvoiceCounterSQL = `SELECT counter FROM invoice_counters
		WHERE tenant_id = $1 AND year = $2`

	lockProductsSQL = `SELECT id, stock, status FROM products
		WHERE tenant_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE`

	insertSaleSQL = `INSERT INTO sales (
			id, tenant_id, store_id, invoice_no, customer_id, cashier_id,
			subtotal, discount_type, discount_value, discount, tax_rate, tax,
			total, paid_amount, change_amount,
			payment_method, payment_status, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18, $19
		)`

	insertSaleItemSQL = `INSERT INTO sale_items (id, tenant_id, sale_id, product_id, name, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	decrementStockSQL = `UPDATE products SET stock = GREATEST(stock - $3, 0), updated_at = now()
		WHERE tenant_id = $1 AND id = $2`

	selectSaleColumns = `id, tenant_id, store_id, invoice_no, customer_id, cashier_id,
		subtotal, discount_type, discount_value, discount, tax_rate, tax,
		total, paid_amount, change_amount, payment_method, payment_status, status, created_at`

	getSaleByIDSQL = `SELECT ` + selectSaleColumns + ` FROM sales
		WHERE tenant_id = $1 AND id = $2`

	getSaleItemsSQL = `SELECT id, product_id, name, quantity, unit_price, total
		FROM sale_items WHERE sale_id = $1 ORDER BY name`

	updatePaymentStatusSQL = `UPDATE sales SET payment_status = $3
		WHERE tenant_id = $1 AND id = $2`

	summarySQL = `SELECT COUNT(*),
			COALESCE(SUM(total), 0), COALESCE(SUM(tax), 0), COALESCE(SUM(discount), 0)
		FROM sales
		WHERE tenant_id = $1 AND status = 'completed' AND created_at >= $2 AND created_at < $3`

	summaryByMethodSQL = `SELECT payment_method, COUNT(*), COALESCE(SUM(total), 0)
		FROM sales
		WHERE tenant_id = $1 AND status = 'completed' AND created_at >= $2 AND created_at < $3
		GROUP BY payment_method
		ORDER BY payment_method`

	topProductsSQL = `SELECT si.product_id, si.name, SUM(si.quantity), COALESCE(SUM(si.total), 0)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.tenant_id = $1 AND s.status = 'completed' AND s.created_at >= $2 AND s.created_at < $3
		GROUP BY si.product_id, si.name
		ORDER BY SUM(si.quantity) DESC, si.name
		LIMIT 5`

	// Default name PostgreSQL assigns to UNIQUE (tenant_id, invoice_no).
	invoiceUniqueConstraint = "sales_tenant_id_invoice_no_key"
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// Create commits a checkout atomically. Within one transaction it:
//
//  1. allocates the next invoice number from the tenant's counter row,
//  2. locks the sold products in a deterministic order,
//  3. re-validates that each product is active with enough stock for the
//     aggregated cart quantity,
//  4. inserts the sale and its items,
//  5. decrements stock.
//
// Any failure rolls the whole transaction back: no invoice number is
// burned, no stock moves, nothing is persisted.
func (r *SaleRepository) Create(ctx context.Context, s *sale.Sale) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	year := s.CreatedAt.Year()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning checkout tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var seq int
	if err := tx.QueryRow(ctx, allocateInvoiceSQL, s.TenantID, year).Scan(&seq); err != nil {
		return fmt.Errorf("allocating invoice number: %w", err)
	}
	s.InvoiceNo = sale.FormatInvoiceNo(year, seq)

	if err := r.validateStock(ctx, tx, s); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, insertSaleSQL,
		s.ID, s.TenantID, nullable(s.StoreID), s.InvoiceNo, nullable(s.CustomerID), nullable(s.CashierID),
		s.Subtotal, string(s.DiscountType), s.DiscountValue, s.Discount, s.TaxRate, s.Tax,
		s.Total, s.Paid, s.Change,
		string(s.PaymentMethod), string(s.PaymentStatus), string(s.Status), s.CreatedAt,
	)
	if err != nil {
		if uniqueViolation(err, invoiceUniqueConstraint) {
			return sale.ErrInvoiceConflict
		}
		return fmt.Errorf("inserting sale %q: %w", s.ID, err)
	}

	for _, item := range s.Items {
		_, err = tx.Exec(ctx, insertSaleItemSQL,
			item.ID, s.TenantID, s.ID, item.ProductID, item.Name,
			item.Quantity, item.UnitPrice, item.Total,
		)
		if err != nil {
			return fmt.Errorf("inserting sale item %q: %w", item.ProductID, err)
		}
	}

	for productID, qty := range aggregateQuantities(s.Items) {
		if _, err := tx.Exec(ctx, decrementStockSQL, s.TenantID, productID, qty); err != nil {
			return fmt.Errorf("decrementing stock for %q: %w", productID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing checkout tx: %w", err)
	}
	return nil
}

// validateStock locks the sold products and checks existence, status, and
// stock against the aggregated cart quantities.
func (r *SaleRepository) validateStock(ctx context.Context, tx pgx.Tx, s *sale.Sale) error {
	needed := aggregateQuantities(s.Items)
	ids := make([]string, 0, len(needed))
	for id := range needed {
		ids = append(ids, id)
	}

	rows, err := tx.Query(ctx, lockProductsSQL, s.TenantID, ids)
	if err != nil {
		return fmt.Errorf("locking products: %w", err)
	}

	type lockedProduct struct {
		stock  int
		status string
	}
	locked := make(map[string]lockedProduct, len(ids))
	for rows.Next() {
		var (
			id string
			lp lockedProduct
		)
		if err := rows.Scan(&id, &lp.stock, &lp.status); err != nil {
			rows.Close()
			return fmt.Errorf("scanning locked product: %w", err)
		}
		locked[id] = lp
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading locked products: %w", err)
	}

	for _, item := range s.Items {
		lp, ok := locked[item.ProductID]
		if !ok {
			return &sale.ProductNotFoundError{ProductID: item.ProductID}
		}
		if lp.status != "active" {
			return &sale.ProductInactiveError{ProductID: item.ProductID}
		}
		if qty := needed[item.ProductID]; lp.stock < qty {
			return &sale.InsufficientStockError{
				ProductID: item.ProductID,
				Requested: qty,
				Available: lp.stock,
			}
		}
	}
	return nil
}

// aggregateQuantities sums quantities per product across sale items. The
// service already merges duplicate cart lines, but stock math must never
// depend on that.
func aggregateQuantities(items []sale.Item) map[string]int {
	agg := make(map[string]int, len(items))
	for _, item := range items {
		agg[item.ProductID] += item.Quantity
	}
	return agg
}

// GetByID returns a single sale with its items.
func (r *SaleRepository) GetByID(ctx context.Context, tenantID, id string) (*sale.Sale, error) {
	rows, err := r.pool.Query(ctx, getSaleByIDSQL, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("getting sale %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sale.ErrNotFound
		}
		return nil, fmt.Errorf("getting sale %q: %w", id, err)
	}

	items, err := r.getItems(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return &s, nil
}

func (r *SaleRepository) getItems(ctx context.Context, saleID string) ([]sale.Item, error) {
	rows, err := r.pool.Query(ctx, getSaleItemsSQL, saleID)
	if err != nil {
		return nil, fmt.Errorf("getting items for sale %q: %w", saleID, err)
	}
	return pgx.CollectRows(rows, scanSaleItem)
}

// List returns the tenant's sales matching the filter, newest first.
// Items are not loaded; use GetByID for the full receipt.
func (r *SaleRepository) List(ctx context.Context, tenantID string, f sale.ListFilter) ([]sale.Sale, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + selectSaleColumns + ` FROM sales WHERE tenant_id = $1`)
	args := []any{tenantID}

	if !f.From.IsZero() {
		args = append(args, f.From)
		fmt.Fprintf(&b, " AND created_at >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		fmt.Fprintf(&b, " AND created_at < $%d", len(args))
	}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		fmt.Fprintf(&b, " AND customer_id = $%d", len(args))
	}
	if f.CashierID != "" {
		args = append(args, f.CashierID)
		fmt.Fprintf(&b, " AND cashier_id = $%d", len(args))
	}
	if f.PaymentMethod != "" {
		args = append(args, string(f.PaymentMethod))
		fmt.Fprintf(&b, " AND payment_method = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		fmt.Fprintf(&b, " AND status = $%d", len(args))
	}

	b.WriteString(" ORDER BY created_at DESC, invoice_no DESC")

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
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	return pgx.CollectRows(rows, scanSale)
}

// NextInvoiceNo previews the number the next checkout would receive. It
// reads the counter without bumping it, so it is advisory only: concurrent
// checkouts may claim the number first.
func (r *SaleRepository) NextInvoiceNo(ctx context.Context, tenantID string, year int) (string, error) {
	var counter int
	err := r.pool.QueryRow(ctx, peekInvoiceCounterSQL, tenantID, year).Scan(&counter)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("peeking invoice counter: %w", err)
	}
	return sale.FormatInvoiceNo(year, counter+1), nil
}

// Summary aggregates completed sales in [from, to).
func (r *SaleRepository) Summary(ctx context.Context, tenantID string, from, to time.Time) (*sale.Summary, error) {
	var sum sale.Summary
	err := r.pool.QueryRow(ctx, summarySQL, tenantID, from, to).Scan(
		&sum.Count, &sum.Revenue, &sum.Tax, &sum.Discount,
	)
	if err != nil {
		return nil, fmt.Errorf("summarizing sales: %w", err)
	}

	rows, err := r.pool.Query(ctx, summaryByMethodSQL, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarizing sales by method: %w", err)
	}
	byMethod, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (sale.MethodTotal, error) {
		var (
			mt     sale.MethodTotal
			method string
		)
		err := row.Scan(&method, &mt.Count, &mt.Amount)
		mt.Method = sale.PaymentMethod(method)
		return mt, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning method totals: %w", err)
	}
	sum.ByMethod = byMethod

	rows, err = r.pool.Query(ctx, topProductsSQL, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ranking top products: %w", err)
	}
	top, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (sale.ProductSales, error) {
		var (
			ps        sale.ProductSales
			productID *string
		)
		err := row.Scan(&productID, &ps.Name, &ps.Quantity, &ps.Revenue)
		if productID != nil {
			ps.ProductID = *productID
		}
		return ps, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning top products: %w", err)
	}
	sum.TopProducts = top
	return &sum, nil
}

// UpdatePaymentStatus transitions a sale's settlement state.
func (r *SaleRepository) UpdatePaymentStatus(ctx context.Context, tenantID, id string, status sale.PaymentStatus) error {
	tag, err := r.pool.Exec(ctx, updatePaymentStatusSQL, tenantID, id, string(status))
	if err != nil {
		return fmt.Errorf("updating payment status for sale %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrNotFound
	}
	return nil
}

func scanSale(row pgx.CollectableRow) (sale.Sale, error) {
	var (
		s                              sale.Sale
		storeID, customerID, cashierID *string
		discountType                   string
		paymentMethod, paymentStatus   string
		status                         string
	)
	err := row.Scan(
		&s.ID, &s.TenantID, &storeID, &s.InvoiceNo, &customerID, &cashierID,
		&s.Subtotal, &discountType, &s.DiscountValue, &s.Discount, &s.TaxRate, &s.Tax,
		&s.Total, &s.Paid, &s.Change, &paymentMethod, &paymentStatus, &status, &s.CreatedAt,
	)
	if storeID != nil {
		s.StoreID = *storeID
	}
	if customerID != nil {
		s.CustomerID = *customerID
	}
	if cashierID != nil {
		s.CashierID = *cashierID
	}
	s.DiscountType = sale.DiscountType(discountType)
	s.PaymentMethod = sale.PaymentMethod(paymentMethod)
	s.PaymentStatus = sale.PaymentStatus(paymentStatus)
	s.Status = sale.Status(status)
	return s, err
}

func scanSaleItem(row pgx.CollectableRow) (sale.Item, error) {
	var (
		item      sale.Item
		productID *string
	)
	err := row.Scan(&item.ID, &productID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Total)
	if productID != nil {
		item.ProductID = *productID
	}
	return item, err
}
