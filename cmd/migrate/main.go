// migrate applies the embedded goose migrations to DATABASE_URL.
// Run: go run ./cmd/migrate
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/studnotes/notes-api/internal/infrastructure/postgres"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	if err := postgres.Migrate(context.Background(), databaseURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("migrations applied")
}
