package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sales (
		sale_id               BIGSERIAL PRIMARY KEY,
		order_type            TEXT NOT NULL,
		payment_method        TEXT NOT NULL,
		cashier_name          TEXT NOT NULL,
		total_discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		status                TEXT NOT NULL,
		payment_reference     TEXT,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS sales_payment_reference_online_uq
		ON sales (payment_reference) WHERE payment_reference LIKE 'ONLINE-%'`,
	`CREATE INDEX IF NOT EXISTS sales_cashier_created_idx ON sales (cashier_name, created_at)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		sale_item_id BIGSERIAL PRIMARY KEY,
		sale_id      BIGINT NOT NULL REFERENCES sales(sale_id),
		item_name    TEXT NOT NULL,
		quantity     INTEGER NOT NULL,
		unit_price   NUMERIC(12,2) NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		addons       JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS sale_items_sale_idx ON sale_items (sale_id)`,
	`CREATE TABLE IF NOT EXISTS cancelled_orders (
		sale_id          BIGINT PRIMARY KEY REFERENCES sales(sale_id),
		manager_username TEXT NOT NULL,
		cancelled_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS cashier_sessions (
		session_id          BIGSERIAL PRIMARY KEY,
		cashier_name        TEXT NOT NULL,
		status              TEXT NOT NULL DEFAULT 'Active',
		initial_cash        NUMERIC(12,2) NOT NULL,
		session_start       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		session_end         TIMESTAMPTZ,
		closing_cash        NUMERIC(12,2),
		cash_sales_at_close NUMERIC(12,2)
	)`,
	// one Active session per cashier
	`CREATE UNIQUE INDEX IF NOT EXISTS cashier_sessions_active_uq
		ON cashier_sessions (cashier_name) WHERE status = 'Active'`,
}

// Migrate creates the tables the sales and session services read and write.
func Migrate(ctx context.Context, db DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
