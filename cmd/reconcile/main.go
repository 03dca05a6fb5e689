package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/modules/booking"
	"railbook/internal/modules/fare"
	"railbook/internal/repository"
)

// reconcile rewrites every train's available_seats from its confirmed bookings.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("level=warn msg=\".env not loaded\" err=%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, database.Options{Silent: true})
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	svc := booking.NewService(
		repository.NewLedgerRepository(db),
		repository.NewTrainRepository(db),
		repository.NewUserRepository(db),
		fare.Default(),
		nil, nil, nil, nil,
		booking.Config{MaxRetries: cfg.BookingMaxRetries},
		log.Printf,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	results, err := svc.ReconcileAll(ctx)
	changed := 0
	for _, r := range results {
		if r.Changed {
			changed++
			log.Printf("train=%d confirmed=%d available %d -> %d", r.TrainID, r.Confirmed, r.Before, r.After)
		}
	}
	if err != nil {
		log.Fatalf("reconcile failed after %d trains: %v", len(results), err)
	}
	log.Printf("reconcile completed: trains=%d changed=%d", len(results), changed)
}
