// Package testhelpers sets up a real Postgres for integration tests. Tests
// using it are skipped unless TEST_DATABASE_URL is set.
package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"orderhub/internal/models"
	"orderhub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool *pgxpool.Pool
}

// SetupTestDB connects, migrates and empties every table. The pool is closed
// when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, connString, 4, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, products, customers CASCADE`); err != nil {
		t.Fatalf("Failed to reset test database: %v", err)
	}
	return &TestDB{Pool: pool}
}

// SetupTestCustomer inserts an active customer and returns its ID.
func SetupTestCustomer(t *testing.T, db *TestDB) uuid.UUID {
	t.Helper()

	customerID := uuid.New()
	query := `
		INSERT INTO customers (id, name, email, address, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)
	`
	address := []byte(`{"street":"1 Test Street","city":"Testville","postalCode":"00000","country":"US"}`)
	_, err := db.Pool.Exec(context.Background(), query, customerID, "Test Customer", customerID.String()+"@example.com", address, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test customer: %v", err)
	}
	return customerID
}

// SetupTestProduct inserts a product with the given sku and price.
func SetupTestProduct(t *testing.T, db *TestDB, sku, price string) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:        uuid.New(),
		Sku:       sku,
		Name:      "Test Product " + sku,
		Category:  "test",
		Price:     decimal.RequireFromString(price),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO products (id, sku, name, category, price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		product.ID, product.Sku, product.Name, product.Category, product.Price.String(),
		product.IsActive, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	return product
}

// CountRows returns the number of rows in table matching where.
func CountRows(t *testing.T, db *TestDB, table, where string, args ...any) int {
	t.Helper()

	var n int
	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	if err := db.Pool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}
