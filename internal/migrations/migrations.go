package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema. The invoices table is dropped and
// recreated on every start, so invoices do not survive a restart; users and
// products are created only if absent.
func Run(db *sqlx.DB) {
	if err := run(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
}

func run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS products (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            price REAL NOT NULL,
            description TEXT DEFAULT '',
            image TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`DROP TABLE IF EXISTS invoices;`,
		`CREATE TABLE invoices (
            id TEXT PRIMARY KEY,
            customer_name TEXT NOT NULL,
            customer_phone TEXT DEFAULT '',
            customer_address TEXT DEFAULT '',
            date TEXT NOT NULL,
            items TEXT NOT NULL,
            subtotal REAL DEFAULT 0,
            tax REAL DEFAULT 0,
            total REAL NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
