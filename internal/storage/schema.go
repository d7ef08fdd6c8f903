package storage

import "context"

// schemaStatements uses only DDL accepted by both SQLite and PostgreSQL.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		base_price DOUBLE PRECISION NOT NULL,
		unit TEXT NOT NULL DEFAULT 'each',
		sku TEXT NOT NULL DEFAULT '',
		stock INTEGER NOT NULL DEFAULT 0,
		category_id TEXT NOT NULL REFERENCES categories(id),
		image_url TEXT NOT NULL DEFAULT '',
		is_seasonal BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_tags (
		product_id TEXT NOT NULL REFERENCES products(id),
		tag TEXT NOT NULL,
		PRIMARY KEY (product_id, tag)
	)`,
	`CREATE TABLE IF NOT EXISTS product_substitutes (
		product_id TEXT NOT NULL REFERENCES products(id),
		substitute_id TEXT NOT NULL REFERENCES products(id),
		PRIMARY KEY (product_id, substitute_id)
	)`,
	`CREATE TABLE IF NOT EXISTS discounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		discount_type TEXT NOT NULL,
		discount_value DOUBLE PRECISION NOT NULL,
		applies_to TEXT NOT NULL,
		valid_from TIMESTAMP NOT NULL,
		valid_until TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS discount_targets (
		discount_id TEXT NOT NULL REFERENCES discounts(id),
		target_id TEXT NOT NULL,
		PRIMARY KEY (discount_id, target_id)
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		user_id TEXT PRIMARY KEY,
		revision BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		user_id TEXT NOT NULL REFERENCES carts(user_id),
		product_id TEXT NOT NULL REFERENCES products(id),
		name_snapshot TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit TEXT NOT NULL DEFAULT 'each',
		notes TEXT NOT NULL DEFAULT '',
		added_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT NOT NULL REFERENCES orders(id),
		product_id TEXT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL,
		price_at_purchase DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (order_id, product_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_discounts_window ON discounts(valid_from, valid_until)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
