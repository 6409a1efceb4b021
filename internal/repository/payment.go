package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/payment"
)

const (
	selectPaymentColumns = `id, tenant_id, store_id, sale_id, provider_order_id,
		amount_paise, currency, status, attempts, error_code, error_description,
		created_at, updated_at, captured_at`

	createPaymentSQL = `INSERT INTO payments (id, tenant_id, store_id, sale_id,
		provider_order_id, amount_paise, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getPaymentByIDSQL = `SELECT ` + selectPaymentColumns + ` FROM payments
		WHERE tenant_id = $1 AND id = $2`

	getPaymentBySaleSQL = `SELECT ` + selectPaymentColumns + ` FROM payments
		WHERE tenant_id = $1 AND sale_id = $2
		ORDER BY created_at DESC LIMIT 1`

	getPaymentByOrderSQL = `SELECT ` + selectPaymentColumns + ` FROM payments
		WHERE tenant_id = $1 AND provider_order_id = $2`

	setPaymentStatusSQL = `UPDATE payments SET
		status = $3,
		attempts = attempts + 1,
		error_code = $4,
		error_description = $5,
		updated_at = now(),
		captured_at = CASE WHEN $3 = 'confirmed' THEN now() ELSE captured_at END
		WHERE tenant_id = $1 AND id = $2
		RETURNING ` + selectPaymentColumns
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create persists a new payment intent.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.pool.Exec(ctx, createPaymentSQL,
		p.ID, p.TenantID, nullable(p.StoreID), nullable(p.SaleID),
		p.ProviderOrderID, p.AmountPaise, p.Currency, string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("creating payment %q: %w", p.ID, err)
	}

	return nil
}

// GetByID returns a single payment intent or payment.ErrNotFound.
func (r *PaymentRepository) GetByID(ctx context.Context, tenantID, id string) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, getPaymentByIDSQL, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("querying payment %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("scanning payment %q: %w", id, err)
	}

	return &p, nil
}

// GetBySaleID returns the most recent payment intent for a sale, or
// payment.ErrNotFound when the sale has none.
func (r *PaymentRepository) GetBySaleID(ctx context.Context, tenantID, saleID string) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, getPaymentBySaleSQL, tenantID, saleID)
	if err != nil {
		return nil, fmt.Errorf("querying payment for sale %q: %w", saleID, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("scanning payment for sale %q: %w", saleID, err)
	}

	return &p, nil
}

// GetByProviderOrderID resolves the intent behind a provider order
// reference, or payment.ErrNotFound.
func (r *PaymentRepository) GetByProviderOrderID(ctx context.Context, tenantID, providerOrderID string) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, getPaymentByOrderSQL, tenantID, providerOrderID)
	if err != nil {
		return nil, fmt.Errorf("querying payment for order %q: %w", providerOrderID, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("scanning payment for order %q: %w", providerOrderID, err)
	}

	return &p, nil
}

// SetStatus transitions a payment intent, bumping the attempt counter. A
// transition to confirmed also stamps captured_at.
func (r *PaymentRepository) SetStatus(ctx context.Context, tenantID, id string, status payment.Status, errCode, errDesc string) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, setPaymentStatusSQL,
		tenantID, id, string(status), nullable(errCode), nullable(errDesc),
	)
	if err != nil {
		return nil, fmt.Errorf("updating payment %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("scanning payment %q: %w", id, err)
	}

	return &p, nil
}

func scanPayment(row pgx.CollectableRow) (payment.Payment, error) {
	var (
		p                payment.Payment
		storeID, saleID  *string
		errCode, errDesc *string
		status           string
	)
	if err := row.Scan(&p.ID, &p.TenantID, &storeID, &saleID, &p.ProviderOrderID,
		&p.AmountPaise, &p.Currency, &status, &p.Attempts, &errCode, &errDesc,
		&p.CreatedAt, &p.UpdatedAt, &p.CapturedAt); err != nil {
		return payment.Payment{}, err
	}
	if storeID != nil {
		p.StoreID = *storeID
	}
	if saleID != nil {
		p.SaleID = *saleID
	}
	if errCode != nil {
		p.ErrorCode = *errCode
	}
	if errDesc != nil {
		p.ErrorDescription = *errDesc
	}
	p.Status = payment.Status(status)
	return p, nil
}
