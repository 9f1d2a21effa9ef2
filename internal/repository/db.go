package repository

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicateRef is returned when an insert collides with an existing
// ref_id. The first write wins; a colliding attempt must never create a
// second charge.
var ErrDuplicateRef = errors.New("duplicate ref_id")

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			ref_id TEXT PRIMARY KEY,
			customer_no TEXT NOT NULL,
			product_code TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			rc TEXT NOT NULL DEFAULT '',
			sn TEXT NOT NULL DEFAULT '',
			price TEXT NOT NULL DEFAULT '0',
			buyer_last_saldo TEXT NOT NULL DEFAULT '0',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions(customer_no)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_updated_at ON transactions(updated_at)`,

		`CREATE TABLE IF NOT EXISTS products (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			brand TEXT NOT NULL,
			cost_price TEXT NOT NULL,
			selling_price TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			synced_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
		`CREATE INDEX IF NOT EXISTS idx_products_enabled ON products(enabled)`,

		`CREATE TABLE IF NOT EXISTS anomalies (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			ref_id TEXT NOT NULL,
			stored_status TEXT NOT NULL DEFAULT '',
			reported_status TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL,
			detected_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_anomalies_type ON anomalies(type)`,
		`CREATE INDEX IF NOT EXISTS idx_anomalies_ref ON anomalies(ref_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
