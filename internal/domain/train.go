package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Train struct {
	ID             int64           `json:"id" gorm:"primaryKey"`
	TrainNumber    string          `json:"train_number" gorm:"size:32;uniqueIndex;not null"`
	Name           string          `json:"name" gorm:"size:128;not null"`
	Source         string          `json:"source" gorm:"size:64;index:idx_trains_route;not null"`
	Destination    string          `json:"destination" gorm:"size:64;index:idx_trains_route;not null"`
	DepartureTime  time.Time       `json:"departure_time" gorm:"index;not null"`
	ArrivalTime    time.Time       `json:"arrival_time" gorm:"not null"`
	TotalSeats     int             `json:"total_seats" gorm:"not null"`
	AvailableSeats int             `json:"available_seats" gorm:"not null"`
	BaseFare       decimal.Decimal `json:"base_fare" gorm:"type:decimal(10,2);not null"`
	Version        int64           `json:"-" gorm:"not null;default:0"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (Train) TableName() string { return "trains" }

// SoldSeats is derived from the inventory counter, not from the bookings table.
func (t *Train) SoldSeats() int {
	return t.TotalSeats - t.AvailableSeats
}

func (t *Train) HasAvailability() bool {
	return t.AvailableSeats > 0
}
