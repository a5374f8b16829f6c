package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema is the DDL for every table the service uses. Statements are idempotent.
const Schema = `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price BIGINT NOT NULL CHECK (price >= 0),
		brand_id TEXT NOT NULL DEFAULT '',
		category_id TEXT NOT NULL DEFAULT '',
		sell_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS product_sizes (
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		size TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		PRIMARY KEY (product_id, size)
	);

	CREATE TABLE IF NOT EXISTS discount_rules (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		terms TEXT NOT NULL DEFAULT '',
		target_kind TEXT NOT NULL,
		target_ref TEXT,
		target_refs TEXT[] NOT NULL DEFAULT '{}',
		percentage NUMERIC(5,2) NOT NULL CHECK (percentage >= 0 AND percentage <= 100),
		priority INTEGER NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (end_date IS NULL OR end_date > start_date)
	);

	CREATE INDEX IF NOT EXISTS idx_discount_rules_active ON discount_rules(is_active, start_date);

	CREATE TABLE IF NOT EXISTS vouchers (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		discount_type TEXT NOT NULL,
		discount_value BIGINT NOT NULL CHECK (discount_value > 0),
		max_discount BIGINT,
		min_order_value BIGINT NOT NULL DEFAULT 0,
		start_date TIMESTAMPTZ NOT NULL,
		expiry_date TIMESTAMPTZ NOT NULL,
		usage_limit INTEGER,
		used_count INTEGER NOT NULL DEFAULT 0 CHECK (used_count >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		applicable_products TEXT[] NOT NULL DEFAULT '{}',
		applicable_categories TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (expiry_date > start_date)
	);

	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		number BIGINT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		recipient_name TEXT NOT NULL,
		phone TEXT NOT NULL,
		address TEXT NOT NULL,
		total_amount BIGINT NOT NULL,
		voucher_id UUID REFERENCES vouchers(id) ON DELETE SET NULL,
		voucher_code TEXT,
		voucher_discount BIGINT,
		final_amount BIGINT NOT NULL,
		payment_method TEXT NOT NULL,
		status TEXT NOT NULL,
		estimated_delivery TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

	CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id),
		name TEXT NOT NULL,
		size TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS order_status_history (
		id BIGSERIAL PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		status TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_order_status_history_order_id ON order_status_history(order_id);

	CREATE TABLE IF NOT EXISTS voucher_usages (
		voucher_id UUID NOT NULL REFERENCES vouchers(id) ON DELETE CASCADE,
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		order_value BIGINT NOT NULL,
		used_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (voucher_id, order_id)
	);
`

// Migrate applies Schema to the database behind pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	logger.Info().Msg("applying database schema")

	if _, err := pool.Exec(ctx, Schema); err != nil {
		logger.Error().Err(err).Msg("failed to apply database schema")
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info().Msg("database schema applied")

	return nil
}
