package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Initialize creates and returns a database connection
func Initialize(databaseURL string) (*sql.DB, error) {
	// Add SQLite-specific parameters for better concurrent access
	if databaseURL == "ratacueva.db" {
		databaseURL = "ratacueva.db?_busy_timeout=30000&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=1"
	}

	db, err := sql.Open("sqlite3", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	return db, nil
}

// Migrate creates all tables and indexes
func Migrate(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			second_last_name TEXT NOT NULL DEFAULT '',
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'client',
			phone TEXT,
			avatar_url TEXT,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			verification_token TEXT,
			verification_token_expires DATETIME,
			password_reset_token TEXT,
			password_reset_token_expires DATETIME,
			last_login_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS addresses (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			postal_code TEXT NOT NULL,
			street TEXT NOT NULL,
			external_number TEXT,
			internal_number TEXT,
			neighborhood TEXT,
			city TEXT NOT NULL,
			state TEXT NOT NULL,
			country TEXT NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payment_methods (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			last4 TEXT,
			provider TEXT,
			expiration TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			price REAL NOT NULL,
			stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
			brand TEXT,
			images TEXT NOT NULL DEFAULT '[]',
			videos TEXT NOT NULL DEFAULT '[]',
			section TEXT NOT NULL,
			category TEXT NOT NULL,
			subcategory TEXT,
			specs TEXT NOT NULL DEFAULT '{}',
			discount_percentage REAL NOT NULL DEFAULT 0,
			rating REAL NOT NULL DEFAULT 0,
			is_featured BOOLEAN NOT NULL DEFAULT FALSE,
			is_new BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			id TEXT PRIMARY KEY,
			cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			price_at_addition REAL NOT NULL,
			selected_variation TEXT NOT NULL DEFAULT '',
			added_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			subtotal REAL NOT NULL,
			shipping_cost REAL NOT NULL DEFAULT 0,
			tax_amount REAL NOT NULL DEFAULT 0,
			discount_amount REAL NOT NULL DEFAULT 0,
			total_amount REAL NOT NULL CHECK (total_amount >= 0),
			currency TEXT NOT NULL DEFAULT 'MXN',
			order_status TEXT NOT NULL DEFAULT 'pending',
			payment_status TEXT NOT NULL DEFAULT 'pending',
			shipping_status TEXT NOT NULL DEFAULT 'pending',
			shipping_address TEXT NOT NULL,
			billing_address TEXT NOT NULL,
			payment_type TEXT NOT NULL,
			payment_transaction_id TEXT,
			tracking_number TEXT,
			shipping_provider TEXT,
			estimated_delivery_date DATETIME,
			notes TEXT,
			shipped_at DATETIME,
			delivered_at DATETIME,
			cancelled_at DATETIME,
			refunded_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			price_at_purchase REAL NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			selected_variation TEXT NOT NULL DEFAULT '',
			image_url TEXT,
			discount_percentage_applied REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS shipments (
			id TEXT PRIMARY KEY,
			order_id TEXT UNIQUE NOT NULL REFERENCES orders(id),
			tracking_number TEXT UNIQUE NOT NULL,
			shipping_provider TEXT NOT NULL,
			current_status TEXT NOT NULL DEFAULT 'pending_pickup',
			shipping_address TEXT NOT NULL,
			estimated_delivery_date DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS shipment_items (
			shipment_id TEXT NOT NULL REFERENCES shipments(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			PRIMARY KEY (shipment_id, product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS tracking_events (
			id TEXT PRIMARY KEY,
			shipment_id TEXT NOT NULL REFERENCES shipments(id) ON DELETE CASCADE,
			status TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			location TEXT,
			notes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			user_name TEXT NOT NULL,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			text TEXT,
			images TEXT NOT NULL DEFAULT '[]',
			videos TEXT NOT NULL DEFAULT '[]',
			rating REAL NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			added_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS pc_builds (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			processor_type TEXT NOT NULL,
			processor_id TEXT NOT NULL,
			motherboard_id TEXT NOT NULL,
			cooler_id TEXT NOT NULL,
			ram_id TEXT NOT NULL,
			extra_ram_id TEXT,
			gpu_id TEXT NOT NULL,
			storage_id TEXT NOT NULL,
			extra_storage_id TEXT,
			case_id TEXT NOT NULL,
			power_supply_id TEXT NOT NULL,
			assembly TEXT NOT NULL,
			total_price REAL NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_section ON products(section, category)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart_id ON cart_items(cart_id)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(order_status)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_id ON reviews(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments(current_status)",
		"CREATE INDEX IF NOT EXISTS idx_tracking_events_shipment ON tracking_events(shipment_id, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_id ON addresses(user_id)",
	}
	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
