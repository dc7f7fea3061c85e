// seed inserts a test user and a handful of students into the local dev
// database, and prints the bearer key to exchange at /session/start.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/studnotes/notes-api/internal/infrastructure/postgres"
)

const (
	seedName  = "Seed Tester"
	seedEmail = "seed@test.local"
	seedKey   = "seed-key-0000000000000000000000000000000000"
)

var studNrs = []int64{100001, 100002, 100003, 100117, 100118, 202400, 202401}

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool)
	students := postgres.NewStudentRepository(pool)

	user, err := users.UpsertCredential(ctx, seedName, seedEmail, seedKey,
		time.Now().UTC().Add(14*24*time.Hour))
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}

	for i, nr := range studNrs {
		if _, err := students.Create(ctx, nr, i%3 == 0); err != nil {
			log.Fatalf("seed student %d: %v", nr, err)
		}
	}

	fmt.Printf("seeded user %s (%s)\n", user.ID, seedEmail)
	fmt.Printf("bearer key: %s\n", seedKey)
	fmt.Printf("students: %d\n", len(studNrs))
}
