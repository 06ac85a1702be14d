// Package pgtest opens the Postgres database named by POS_TEST_POSTGRES_DSN
// for repository tests. Tests that call Open are skipped when it is unset.
package pgtest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kapehan/pos-backend/internal/postgres"
)

const EnvDSN = "POS_TEST_POSTGRES_DSN"

// Open returns a pool whose search_path is a schema private to the calling
// package, migrated and emptied. Packages run in parallel under go test, so
// each passes its own schema name.
func Open(t testing.TB, schema string) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvDSN)
	}
	ctx := context.Background()

	admin, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+schema)
	admin.Close()
	require.NoError(t, err)

	db, err := postgres.Connect(ctx, withSearchPath(dsn, schema))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, postgres.Migrate(ctx, db))
	_, err = db.Exec(ctx, `TRUNCATE cancelled_orders, sale_items, sales, cashier_sessions RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

func withSearchPath(dsn, schema string) string {
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&search_path=" + schema
	}
	return dsn + "?search_path=" + schema
}

// Item is one sale_items row for InsertSale.
type Item struct {
	Name     string
	Quantity int
	Price    string
}

// InsertSale writes a sale and its items directly. createdAt is a SQL
// expression such as NOW() or NOW() - INTERVAL '2 days'.
func InsertSale(t testing.TB, db *pgxpool.Pool, cashier, method, status, createdAt string, items ...Item) int64 {
	t.Helper()
	ctx := context.Background()
	var id int64
	err := db.QueryRow(ctx, `
		INSERT INTO sales(order_type, payment_method, cashier_name, total_discount_amount, status, created_at)
		VALUES ('Dine In', $1, $2, 0, $3, `+createdAt+`)
		RETURNING sale_id`, method, cashier, status).Scan(&id)
	require.NoError(t, err)
	for _, it := range items {
		_, err := db.Exec(ctx, `
			INSERT INTO sale_items(sale_id, item_name, quantity, unit_price, category)
			VALUES ($1, $2, $3, $4, 'Coffee')`, id, it.Name, it.Quantity, decimal.RequireFromString(it.Price))
		require.NoError(t, err)
	}
	return id
}
