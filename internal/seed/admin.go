package seed

import (
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/mr-fahad-03/invoice-builder/internal/auth"
)

// Default admin credentials. There is no signup endpoint, so this account is
// the only way into the API; change the password after first login.
const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin123"
)

// Admin inserts the default admin user if it does not exist yet.
func Admin(db *sqlx.DB) {
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM users WHERE email = ?`, AdminEmail); err != nil {
		log.Fatalf("unable to check for admin user: %v", err)
	}
	if count > 0 {
		return
	}

	hashed, err := auth.HashPassword(AdminPassword)
	if err != nil {
		log.Fatalf("unable to hash admin password: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO users (email, password) VALUES (?, ?)`, AdminEmail, hashed); err != nil {
		log.Fatalf("unable to seed admin user: %v", err)
	}
	log.Printf("seeded default admin user %s", AdminEmail)
}
