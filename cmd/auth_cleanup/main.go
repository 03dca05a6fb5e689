package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"railbook/internal/database"
	"railbook/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("level=warn msg=\".env not loaded\" err=%v", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL, database.Options{Silent: true})
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := repository.NewOneTimeCodeRepository(db).DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Fatalf("cleanup one_time_codes failed: %v", err)
	}

	log.Printf("auth cleanup completed: one_time_codes=%d", n)
}
