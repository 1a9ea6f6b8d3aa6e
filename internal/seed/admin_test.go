package seed

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mr-fahad-03/invoice-builder/internal/auth"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", "file:"+filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT NOT NULL UNIQUE,
        password TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    )`); err != nil {
		t.Fatalf("create users: %v", err)
	}
	return db
}

func TestAdminSeedsOnce(t *testing.T) {
	db := openTestDB(t)

	Admin(db)
	Admin(db)

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM users WHERE email = ?`, AdminEmail); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("admin rows = %d, want 1", count)
	}

	var hash string
	if err := db.Get(&hash, `SELECT password FROM users WHERE email = ?`, AdminEmail); err != nil {
		t.Fatalf("fetch hash: %v", err)
	}
	if !auth.CheckPassword(AdminPassword, hash) {
		t.Error("seeded password hash does not verify")
	}
	if hash == AdminPassword {
		t.Error("password stored in plaintext")
	}
}
