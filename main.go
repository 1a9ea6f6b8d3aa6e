package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/mr-fahad-03/invoice-builder/internal/api"
	"github.com/mr-fahad-03/invoice-builder/internal/config"
	"github.com/mr-fahad-03/invoice-builder/internal/database"
	"github.com/mr-fahad-03/invoice-builder/internal/migrations"
	"github.com/mr-fahad-03/invoice-builder/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	seed.Admin(db)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("unable to create upload directory: %v", err)
	}

	handler := api.New(db, cfg.Secret, cfg.UploadDir)

	log.Printf("invoice-builder server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
