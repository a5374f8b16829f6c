package integration

import (
	"context"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		URL:             connStr,
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProducts inserts the test catalogue.
//
//	P001 Runner  200000  Shoes   42:2  43:5
//	P002 Tee     100000  Shirts  M:10
//	P003 Boot    600000  Shoes   41:4
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		id       string
		name     string
		price    int64
		brand    string
		category string
		sizes    map[string]int
	}{
		{"P001", "Runner", 200000, "stride", "Shoes", map[string]int{"42": 2, "43": 5}},
		{"P002", "Tee", 100000, "basic", "Shirts", map[string]int{"M": 10}},
		{"P003", "Boot", 600000, "stride", "Shoes", map[string]int{"41": 4}},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, price, brand_id, category_id) VALUES ($1, $2, $3, $4, $5)",
			p.id, p.name, p.price, p.brand, p.category,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}

		for size, qty := range p.sizes {
			_, err := pool.Exec(ctx,
				"INSERT INTO product_sizes (product_id, size, quantity) VALUES ($1, $2, $3)",
				p.id, size, qty,
			)
			if err != nil {
				t.Fatalf("failed to seed size %s/%s: %v", p.id, size, err)
			}
		}
	}
}

// Stock returns the quantity on hand and the sell count of one product size.
func Stock(t *testing.T, pool *pgxpool.Pool, productID, size string) (quantity, sellCount int) {
	t.Helper()

	err := pool.QueryRow(context.Background(), `
		SELECT ps.quantity, p.sell_count
		FROM product_sizes ps
		JOIN products p ON p.id = ps.product_id
		WHERE ps.product_id = $1 AND ps.size = $2`,
		productID, size,
	).Scan(&quantity, &sellCount)
	if err != nil {
		t.Fatalf("failed to read stock for %s/%s: %v", productID, size, err)
	}
	return quantity, sellCount
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE voucher_usages, order_status_history, order_items, orders,
			vouchers, discount_rules, product_sizes, products`)
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}
