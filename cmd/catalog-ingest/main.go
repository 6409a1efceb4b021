// Command catalog-ingest bulk-imports products from gzipped JSONL feed
// files into the catalog of one tenant.
//
// Each line is a single product object:
//
//	{"sku":"RICE-5KG","name":"Basmati Rice 5kg","barcode":"8901030510397","category":"Grocery","price":"520.00","stock":40}
//
// Price is a JSON string so feeds never round money through floats.
// Feed files may overlap; the first occurrence of a SKU in the run wins
// and later ones are dropped before they reach the database.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	dbWorkers     = 4
	queueSize     = 1024
	progressEvery = 100_000
)

// productRow is one validated feed line, ready for upsert.
type productRow struct {
	sku      string
	name     string
	barcode  string
	category string
	price    decimal.Decimal
	stock    int
}

// dedup is a concurrency-safe first-wins SKU screen shared by all file
// readers. Bloom false positives drop a fresh SKU at the configured rate;
// the DB upsert is idempotent, so the next feed run repairs any gap.
type dedup struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

func newDedup() *dedup {
	return &dedup{filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR)}
}

// seen reports whether the SKU was already ingested this run, marking it
// as ingested if not.
func (d *dedup) seen(sku string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter.TestAndAddString(sku)
}

// stats aggregates counters across all file readers and DB writers.
type stats struct {
	parsed     atomic.Int64
	invalid    atomic.Int64
	duplicates atomic.Int64
	written    atomic.Int64
}

func main() {
	var (
		dataDir     string
		databaseURL string
		tenantName  string
		storeName   string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz feed files (ignored when files are passed as args)")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&tenantName, "tenant", "Demo Tenant", "tenant whose catalog receives the feed")
	flag.StringVar(&storeName, "store", "", "store to attach products to (optional)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
		if err != nil {
			slog.Error("bad data dir", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if len(files) == 0 {
		slog.Error("no feed files found", slog.String("data_dir", dataDir))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, tenantName, storeName, files); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, databaseURL, tenantName, storeName string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	tenantID, storeID, err := resolveScope(ctx, pool, tenantName, storeName)
	if err != nil {
		return err
	}

	slog.Info("ingesting feed files",
		slog.Int("files", len(files)),
		slog.String("tenant_id", tenantID),
	)

	st := &stats{}
	if err := ingestFiles(ctx, pool, tenantID, storeID, files, st); err != nil {
		return err
	}

	slog.Info("ingest summary",
		slog.Int64("parsed", st.parsed.Load()),
		slog.Int64("invalid", st.invalid.Load()),
		slog.Int64("duplicates", st.duplicates.Load()),
		slog.Int64("written", st.written.Load()),
	)

	return nil
}

// resolveScope maps tenant and store names to IDs. The tenant must already
// exist; ingesting into a tenant nobody seeded is always a mistake.
func resolveScope(ctx context.Context, pool *pgxpool.Pool, tenantName, storeName string) (tenantID, storeID string, err error) {
	err = pool.QueryRow(ctx,
		`SELECT id FROM tenants WHERE name = $1 ORDER BY created_at LIMIT 1`, tenantName,
	).Scan(&tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", errors.Errorf("tenant %q not found: run seed-db first", tenantName)
	}
	if err != nil {
		return "", "", errors.Wrap(err, "resolve tenant")
	}

	if storeName == "" {
		return tenantID, "", nil
	}

	err = pool.QueryRow(ctx,
		`SELECT id FROM stores WHERE tenant_id = $1 AND name = $2 ORDER BY created_at LIMIT 1`,
		tenantID, storeName,
	).Scan(&storeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", errors.Errorf("store %q not found for tenant %q", storeName, tenantName)
	}
	if err != nil {
		return "", "", errors.Wrap(err, "resolve store")
	}

	return tenantID, storeID, nil
}

// ingestFiles runs one reader goroutine per feed file and a pool of DB
// writers, connected by a bounded channel. The rows channel closes once
// every reader is done, which lets the writers drain and exit.
func ingestFiles(ctx context.Context, pool *pgxpool.Pool, tenantID, storeID string, files []string, st *stats) error {
	rows := make(chan productRow, queueSize)
	ded := newDedup()

	g, gctx := errgroup.WithContext(ctx)

	for range dbWorkers {
		g.Go(writeRows(gctx, pool, tenantID, storeID, rows, st))
	}

	readers, rctx := errgroup.WithContext(gctx)
	for i, f := range files {
		readers.Go(readFile(rctx, i, f, ded, rows, st))
	}

	g.Go(func() error {
		defer close(rows)
		return readers.Wait()
	})

	return g.Wait()
}

func readFile(ctx context.Context, idx int, path string, ded *dedup, rows chan<- productRow, st *stats) func() error {
	return func() error {
		var count, bad int64

		err := streamGzLines(ctx, path, func(line []byte) error {
			count++
			if count%progressEvery == 0 {
				slog.Info("read progress",
					slog.Int("file", idx+1),
					slog.Int64("lines", count),
				)
			}

			row, err := parseLine(line)
			if err != nil {
				bad++
				st.invalid.Add(1)
				if bad == 1 {
					slog.Warn("skipping invalid line",
						slog.String("file", path),
						slog.Int64("line", count),
						slog.String("error", err.Error()),
					)
				}
				return nil
			}

			st.parsed.Add(1)

			if ded.seen(row.sku) {
				st.duplicates.Add(1)
				return nil
			}

			select {
			case rows <- row:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			return errors.Wrapf(err, "read feed file %s", path)
		}

		slog.Info("read complete",
			slog.Int("file", idx+1),
			slog.Int64("lines", count),
			slog.Int64("invalid", bad),
		)

		return nil
	}
}

func writeRows(ctx context.Context, pool *pgxpool.Pool, tenantID, storeID string, rows <-chan productRow, st *stats) func() error {
	return func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case row, ok := <-rows:
				if !ok {
					return nil
				}
				if err := upsertProduct(ctx, pool, tenantID, storeID, row); err != nil {
					return errors.Wrapf(err, "upsert product %s", row.sku)
				}
				if n := st.written.Add(1); n%progressEvery == 0 {
					slog.Info("write progress", slog.Int64("written", n))
				}
			}
		}
	}
}

// upsertProduct inserts or refreshes one catalog row. A feed never
// re-activates a product the operator turned off.
func upsertProduct(ctx context.Context, pool *pgxpool.Pool, tenantID, storeID string, row productRow) error {
	var store any
	if storeID != "" {
		store = storeID
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO products (tenant_id, store_id, name, sku, barcode, category, price, stock, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active')
		ON CONFLICT (tenant_id, sku) DO UPDATE
		SET name = EXCLUDED.name, barcode = EXCLUDED.barcode, category = EXCLUDED.category,
		    price = EXCLUDED.price, stock = EXCLUDED.stock, updated_at = now()`,
		tenantID, store, row.name, row.sku, row.barcode, row.category, row.price, row.stock,
	)

	return err
}

// streamGzLines opens a gzip-compressed file and calls fn for each line.
func streamGzLines(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// parseLine decodes and validates a single feed line.
func parseLine(data []byte) (productRow, error) {
	var row productRow

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "sku":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "sku")
			}
			row.sku = v
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			row.name = v
		case "barcode":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "barcode")
			}
			row.barcode = v
		case "category":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "category")
			}
			row.category = v
		case "price":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "price")
			}
			p, err := decimal.NewFromString(v)
			if err != nil {
				return errors.Wrap(err, "price")
			}
			row.price = p
		case "stock":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "stock")
			}
			row.stock = v
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return productRow{}, errors.Wrap(err, "decode")
	}

	switch {
	case row.sku == "":
		return productRow{}, errors.New("missing sku")
	case row.name == "":
		return productRow{}, errors.New("missing name")
	case row.price.IsNegative():
		return productRow{}, errors.New("negative price")
	case row.stock < 0:
		return productRow{}, errors.New("negative stock")
	}

	return row, nil
}
