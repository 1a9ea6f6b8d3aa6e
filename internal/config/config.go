package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration values.
type Config struct {
	Secret      string
	DatabaseDSN string
	HTTPPort    string
	UploadDir   string
}

// Load reads configuration from environment variables with fixed fallbacks.
// The fallback SECRET is a known liability kept for compatibility; supply a
// real SECRET in any deployment.
func Load() Config {
	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "your-secret-key-change-in-production"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "file:invoice.db"
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid PORT value %q, defaulting to 5000", port)
		port = "5000"
	}

	return Config{Secret: secret, DatabaseDSN: dsn, HTTPPort: port, UploadDir: uploadDir}
}
