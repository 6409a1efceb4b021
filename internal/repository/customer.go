package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/customer"
)

const (
	selectCustomerColumns = `id, tenant_id, store_id, name, phone, created_at`

	listCustomersSQL = `SELECT ` + selectCustomerColumns + ` FROM customers
		WHERE tenant_id = $1 ORDER BY name`

	searchCustomersSQL = `SELECT ` + selectCustomerColumns + ` FROM customers
		WHERE tenant_id = $1 AND (name ILIKE $2 OR phone LIKE $2)
		ORDER BY name`

	getCustomerByIDSQL = `SELECT ` + selectCustomerColumns + ` FROM customers
		WHERE tenant_id = $1 AND id = $2`

	insertCustomerSQL = `INSERT INTO customers (id, tenant_id, store_id, name, phone)
		VALUES ($1, $2, $3, $4, $5)`

	updateCustomerSQL = `UPDATE customers SET name = $3, phone = $4
		WHERE tenant_id = $1 AND id = $2`

	deleteCustomerSQL = `DELETE FROM customers WHERE tenant_id = $1 AND id = $2`

	// Default name PostgreSQL assigns to UNIQUE (tenant_id, phone).
	phoneUniqueConstraint = "customers_tenant_id_phone_key"
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// List returns the tenant's customers, optionally filtered by a name or
// phone fragment.
func (r *CustomerRepository) List(ctx context.Context, tenantID, query string) ([]customer.Customer, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if query == "" {
		rows, err = r.pool.Query(ctx, listCustomersSQL, tenantID)
	} else {
		rows, err = r.pool.Query(ctx, searchCustomersSQL, tenantID, "%"+query+"%")
	}
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

// GetByID returns a single customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, tenantID, id string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerByIDSQL, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}
	return &c, nil
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	_, err := r.pool.Exec(ctx, insertCustomerSQL,
		c.ID, c.TenantID, nullable(c.StoreID), c.Name, c.Phone,
	)
	if err != nil {
		if uniqueViolation(err, phoneUniqueConstraint) {
			return &customer.DuplicatePhoneError{Phone: c.Phone}
		}
		return fmt.Errorf("creating customer %q: %w", c.ID, err)
	}
	return nil
}

// Update rewrites a customer's name and phone.
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	tag, err := r.pool.Exec(ctx, updateCustomerSQL, c.TenantID, c.ID, c.Name, c.Phone)
	if err != nil {
		if uniqueViolation(err, phoneUniqueConstraint) {
			return &customer.DuplicatePhoneError{Phone: c.Phone}
		}
		return fmt.Errorf("updating customer %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// Delete removes a customer. Their sales remain with a nulled reference.
func (r *CustomerRepository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCustomerSQL, tenantID, id)
	if err != nil {
		return fmt.Errorf("deleting customer %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var (
		c       customer.Customer
		storeID *string
	)
	err := row.Scan(&c.ID, &c.TenantID, &storeID, &c.Name, &c.Phone, &c.CreatedAt)
	if storeID != nil {
		c.StoreID = *storeID
	}
	return c, err
}
