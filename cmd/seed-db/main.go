package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/repository"
)

// demoProduct is one catalog row seeded for local development and demos.
type demoProduct struct {
	name     string
	sku      string
	barcode  string
	category string
	price    string
	stock    int
}

var demoProducts = []demoProduct{
	{name: "Basmati Rice 5kg", sku: "RICE-5KG", barcode: "8901030510397", category: "Grocery", price: "520.00", stock: 40},
	{name: "Toor Dal 1kg", sku: "DAL-1KG", barcode: "8901030511233", category: "Grocery", price: "165.00", stock: 60},
	{name: "Sunflower Oil 1L", sku: "OIL-1L", barcode: "8901030512445", category: "Grocery", price: "139.00", stock: 35},
	{name: "Sugar 1kg", sku: "SUGR-1KG", barcode: "8901030513557", category: "Grocery", price: "45.50", stock: 80},
	{name: "Assam Tea 250g", sku: "TEA-250G", barcode: "8901030514669", category: "Beverages", price: "120.00", stock: 50},
	{name: "Milk 500ml", sku: "MILK-500", barcode: "8901030515771", category: "Dairy", price: "27.00", stock: 24},
	{name: "Brown Bread 400g", sku: "BRED-400", barcode: "8901030516883", category: "Bakery", price: "40.00", stock: 15},
	{name: "Iodised Salt 1kg", sku: "SALT-1KG", barcode: "8901030517995", category: "Grocery", price: "24.00", stock: 90},
	{name: "Glucose Biscuits 200g", sku: "BISC-200", barcode: "8901030518007", category: "Snacks", price: "20.00", stock: 120},
	{name: "Detergent Bar 250g", sku: "DETG-250", barcode: "8901030519119", category: "Household", price: "32.00", stock: 45},
}

// demoCustomer is one customer row seeded for local development and demos.
type demoCustomer struct {
	name  string
	phone string
}

var demoCustomers = []demoCustomer{
	{name: "Asha Verma", phone: "9876543210"},
	{name: "Ravi Iyer", phone: "9812345678"},
}

func main() {
	var (
		databaseURL  string
		tenantName   string
		storeName    string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&tenantName, "tenant", "Demo Tenant", "tenant name to seed")
	flag.StringVar(&storeName, "store", "Main Street Store", "store name to seed")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or POS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or POS_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("POS_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or POS_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("POS_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, tenantName, storeName, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, tenantName, storeName, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	tenantID, err := ensureTenant(ctx, pool, tenantName)
	if err != nil {
		return errors.Wrap(err, "ensure tenant")
	}

	storeID, err := ensureStore(ctx, pool, tenantID, storeName)
	if err != nil {
		return errors.Wrap(err, "ensure store")
	}

	if err := seedSettings(ctx, pool, tenantID, storeName); err != nil {
		return errors.Wrap(err, "seed settings")
	}

	if err := seedAPIKey(ctx, pool, tenantID, storeID, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	if err := seedProducts(ctx, pool, tenantID, storeID); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCustomers(ctx, pool, tenantID, storeID); err != nil {
		return errors.Wrap(err, "seed customers")
	}

	return nil
}

// ensureTenant looks up the tenant by name and creates it if missing.
// Tenant names are not unique in the schema, so the lookup keeps re-runs
// from multiplying demo tenants.
func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string

	err := pool.QueryRow(ctx, `SELECT id FROM tenants WHERE name = $1 ORDER BY created_at LIMIT 1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = pool.QueryRow(ctx, `INSERT INTO tenants (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	}
	if err != nil {
		return "", errors.Wrapf(err, "tenant %q", name)
	}

	slog.Info("tenant ready", slog.String("id", id), slog.String("name", name))

	return id, nil
}

func ensureStore(ctx context.Context, pool *pgxpool.Pool, tenantID, name string) (string, error) {
	var id string

	err := pool.QueryRow(ctx,
		`SELECT id FROM stores WHERE tenant_id = $1 AND name = $2 ORDER BY created_at LIMIT 1`,
		tenantID, name,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = pool.QueryRow(ctx,
			`INSERT INTO stores (tenant_id, name) VALUES ($1, $2) RETURNING id`,
			tenantID, name,
		).Scan(&id)
	}
	if err != nil {
		return "", errors.Wrapf(err, "store %q", name)
	}

	slog.Info("store ready", slog.String("id", id), slog.String("name", name))

	return id, nil
}

// seedSettings writes initial store settings. Re-runs never overwrite what
// the operator has changed through the API.
func seedSettings(ctx context.Context, pool *pgxpool.Pool, tenantID, storeName string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO settings (tenant_id, store_name, store_address, store_phone, tax_rate, currency_symbol, currency_code, upi_id)
		VALUES ($1, $2, '12 MG Road, Bengaluru', '+91 80 4266 1234', 18.00, 'Rs.', 'INR', 'demostore@okhdfcbank')
		ON CONFLICT (tenant_id) DO NOTHING`,
		tenantID, storeName,
	)
	if err != nil {
		return errors.Wrap(err, "insert settings")
	}

	slog.Info("settings ready", slog.String("tenant_id", tenantID))

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, tenantID, storeID, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx, `
		INSERT INTO api_keys (tenant_id, store_id, key_hash, name, scopes, active)
		VALUES ($1, $2, $3, $4, $5, true)
		ON CONFLICT (key_hash) DO UPDATE
		SET tenant_id = EXCLUDED.tenant_id, store_id = EXCLUDED.store_id, active = true`,
		tenantID, storeID, keyHash, "Default counter key", []string{"checkout"},
	)
	if err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("name", "Default counter key"))

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, tenantID, storeID string) error {
	slog.Info("upserting products", slog.Int("count", len(demoProducts)))

	for _, p := range demoProducts {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return errors.Wrapf(err, "parse price for product %s", p.sku)
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO products (tenant_id, store_id, name, sku, barcode, category, price, stock, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active')
			ON CONFLICT (tenant_id, sku) DO UPDATE
			SET name = EXCLUDED.name, barcode = EXCLUDED.barcode, category = EXCLUDED.category,
			    price = EXCLUDED.price, stock = EXCLUDED.stock, status = 'active', updated_at = now()`,
			tenantID, storeID, p.name, p.sku, p.barcode, p.category, price, p.stock,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.sku)
		}

		slog.Info("upserted product", slog.String("sku", p.sku), slog.String("name", p.name))
	}

	return nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool, tenantID, storeID string) error {
	slog.Info("upserting customers", slog.Int("count", len(demoCustomers)))

	for _, c := range demoCustomers {
		_, err := pool.Exec(ctx, `
			INSERT INTO customers (tenant_id, store_id, name, phone)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tenant_id, phone) DO UPDATE SET name = EXCLUDED.name`,
			tenantID, storeID, c.name, c.phone,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert customer %s", c.phone)
		}

		slog.Info("upserted customer", slog.String("name", c.name), slog.String("phone", c.phone))
	}

	return nil
}
