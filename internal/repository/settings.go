package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/settings"
)

const (
	selectSettingsColumns = `id, tenant_id, store_name, store_address, store_phone, store_email,
		tax_rate, currency_symbol, currency_code, upi_id, low_stock_threshold, created_at, updated_at`

	// Lazy init: the column defaults carry the initial values, and the
	// ON CONFLICT makes concurrent first reads race-tolerant.
	initSettingsSQL = `INSERT INTO settings (tenant_id) VALUES ($1)
		ON CONFLICT (tenant_id) DO NOTHING`

	getSettingsSQL = `SELECT ` + selectSettingsColumns + ` FROM settings
		WHERE tenant_id = $1`
)

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository implements settings.Repository backed by PostgreSQL.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// GetOrInit returns the tenant's settings, creating the default row first
// if this is the tenant's first read.
func (r *SettingsRepository) GetOrInit(ctx context.Context, tenantID string) (*settings.Settings, error) {
	if _, err := r.pool.Exec(ctx, initSettingsSQL, tenantID); err != nil {
		return nil, fmt.Errorf("initializing settings: %w", err)
	}

	rows, err := r.pool.Query(ctx, getSettingsSQL, tenantID)
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSettings)
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}
	return &s, nil
}

// Update applies a partial settings change and returns the updated row.
func (r *SettingsRepository) Update(ctx context.Context, tenantID string, u settings.Update) (*settings.Settings, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	// Ensure the row exists so a partial update on a fresh tenant works.
	if _, err := r.pool.Exec(ctx, initSettingsSQL, tenantID); err != nil {
		return nil, fmt.Errorf("initializing settings: %w", err)
	}

	sets := []string{"updated_at = now()"}
	args := []any{tenantID}

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.StoreName != nil {
		set("store_name", *u.StoreName)
	}
	if u.StoreAddress != nil {
		set("store_address", nullable(*u.StoreAddress))
	}
	if u.StorePhone != nil {
		set("store_phone", nullable(*u.StorePhone))
	}
	if u.StoreEmail != nil {
		set("store_email", nullable(*u.StoreEmail))
	}
	if u.TaxRate != nil {
		set("tax_rate", *u.TaxRate)
	}
	if u.CurrencySymbol != nil {
		set("currency_symbol", *u.CurrencySymbol)
	}
	if u.CurrencyCode != nil {
		set("currency_code", *u.CurrencyCode)
	}
	if u.UPIID != nil {
		set("upi_id", nullable(*u.UPIID))
	}
	if u.LowStockThreshold != nil {
		set("low_stock_threshold", *u.LowStockThreshold)
	}

	query := fmt.Sprintf(`UPDATE settings SET %s WHERE tenant_id = $1 RETURNING %s`,
		strings.Join(sets, ", "), selectSettingsColumns)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating settings: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSettings)
	if err != nil {
		return nil, fmt.Errorf("updating settings: %w", err)
	}
	return &s, nil
}

func scanSettings(row pgx.CollectableRow) (settings.Settings, error) {
	var (
		s                        settings.Settings
		storeAddress, storePhone *string
		storeEmail, upiID        *string
	)
	err := row.Scan(
		&s.ID, &s.TenantID, &s.StoreName, &storeAddress, &storePhone, &storeEmail,
		&s.TaxRate, &s.CurrencySymbol, &s.CurrencyCode, &upiID, &s.LowStockThreshold,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if storeAddress != nil {
		s.StoreAddress = *storeAddress
	}
	if storePhone != nil {
		s.StorePhone = *storePhone
	}
	if storeEmail != nil {
		s.StoreEmail = *storeEmail
	}
	if upiID != nil {
		s.UPIID = *upiID
	}
	return s, err
}
