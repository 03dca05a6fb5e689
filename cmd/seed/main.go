package main

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/domain"
)

type trainSeed struct {
	number, name        string
	source, destination string
	departure, arrival  string
	seats               int
	fare                string
}

var trains = []trainSeed{
	{"12001", "Shatabdi Express", "Delhi", "Bhopal", "2025-04-12T06:00:00Z", "2025-04-12T12:30:00Z", 200, "850"},
	{"12951", "Rajdhani Express", "Mumbai", "Delhi", "2025-04-12T16:00:00Z", "2025-04-13T08:00:00Z", 300, "1450"},
	{"12627", "Karnataka Express", "Bangalore", "Delhi", "2025-04-13T07:20:00Z", "2025-04-14T12:10:00Z", 250, "1750"},
	{"11061", "Pawan Express", "Mumbai", "Darbhanga", "2025-04-13T11:00:00Z", "2025-04-14T20:00:00Z", 180, "1300"},
	{"12559", "Shiv Ganga Express", "Varanasi", "Delhi", "2025-04-14T19:00:00Z", "2025-04-15T05:00:00Z", 220, "900"},
	{"12615", "Grand Trunk Express", "Chennai", "Delhi", "2025-04-15T18:00:00Z", "2025-04-17T07:30:00Z", 270, "1850"},
	{"12487", "Seemanchal Express", "Jogbani", "Delhi", "2025-04-16T08:30:00Z", "2025-04-17T04:15:00Z", 160, "1100"},
}

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
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	log.Println("Creating users...")
	seedUser(db, "admin", "admin@railbook.local", "Admin@123", domain.RoleAdmin)
	seedUser(db, "traveller", "traveller@railbook.local", "Travel@123", domain.RoleClient)

	log.Println("Creating trains...")
	for _, s := range trains {
		dep, err := time.Parse(time.RFC3339, s.departure)
		if err != nil {
			log.Fatalf("train %s: departure: %v", s.number, err)
		}
		arr, err := time.Parse(time.RFC3339, s.arrival)
		if err != nil {
			log.Fatalf("train %s: arrival: %v", s.number, err)
		}
		t := domain.Train{
			TrainNumber:    s.number,
			Name:           s.name,
			Source:         s.source,
			Destination:    s.destination,
			DepartureTime:  dep,
			ArrivalTime:    arr,
			TotalSeats:     s.seats,
			AvailableSeats: s.seats,
			BaseFare:       decimal.RequireFromString(s.fare),
		}
		// Re-running the seed must not reset inventory of trains that already have bookings.
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "train_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "source", "destination", "departure_time", "arrival_time", "base_fare", "updated_at"}),
		}).Create(&t)
		if res.Error != nil {
			log.Fatalf("train %s: %v", s.number, res.Error)
		}
	}

	log.Println("Seed completed!")
	log.Println("Admin: admin@railbook.local / Admin@123")
	log.Println("Client: traveller@railbook.local / Travel@123")
}

func seedUser(db *gorm.DB, username, email, password string, role domain.UserRole) {
	var existing domain.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Printf("user %s exists, skipping", email)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("lookup %s: %v", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	u := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(&u).Error; err != nil {
		log.Fatalf("create %s: %v", email, err)
	}
}
