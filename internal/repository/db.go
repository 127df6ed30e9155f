package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

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

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			transaction_reference TEXT UNIQUE NOT NULL,
			status TEXT NOT NULL,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			lease_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			payer_phone TEXT NOT NULL,
			response_payload TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			paid_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_provider ON payments(provider)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_tenant ON payments(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_created_at ON payments(created_at)`,

		// UNIQUE(payment_id) makes concurrent transfer creation fail
		// closed: the second writer's INSERT OR IGNORE affects zero rows.
		`CREATE TABLE IF NOT EXISTS transfers (
			id TEXT PRIMARY KEY,
			payment_id TEXT UNIQUE NOT NULL,
			landlord_id TEXT NOT NULL,
			gross_amount INTEGER NOT NULL,
			fee_amount INTEGER NOT NULL,
			net_amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			destination_phone TEXT NOT NULL,
			partner_transaction_id TEXT UNIQUE NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (payment_id) REFERENCES payments(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_landlord ON transfers(landlord_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_status ON transfers(status)`,

		`CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			owner_phone TEXT NOT NULL,
			label TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS leases (
			id TEXT PRIMARY KEY,
			property_id TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			landlord_id TEXT,
			landlord_phone TEXT,
			rent_amount INTEGER NOT NULL,
			FOREIGN KEY (property_id) REFERENCES properties(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leases_property ON leases(property_id)`,
		`CREATE INDEX IF NOT EXISTS idx_leases_tenant ON leases(tenant_id)`,

		`CREATE TABLE IF NOT EXISTS api_usage (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			endpoint TEXT NOT NULL,
			reference TEXT,
			status_code INTEGER NOT NULL,
			detail TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_usage_reference ON api_usage(reference)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
