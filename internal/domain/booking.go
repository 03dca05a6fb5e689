package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID                     int64           `json:"id" gorm:"primaryKey"`
	Reference              string          `json:"reference" gorm:"size:36;uniqueIndex;not null"`
	TrainID                int64           `json:"train_id" gorm:"index;not null"`
	UserID                 int64           `json:"user_id" gorm:"index;not null"`
	PassengerName          string          `json:"passenger_name" gorm:"size:128;not null"`
	PassengerAge           int             `json:"passenger_age" gorm:"not null"`
	SeatNumber             string          `json:"seat_number" gorm:"size:16;not null"`
	SeatClass              string          `json:"seat_class" gorm:"size:32;not null"`
	Fare                   decimal.Decimal `json:"fare" gorm:"type:decimal(10,2);not null"`
	PaymentAuthorizationID *string         `json:"payment_authorization_id,omitempty" gorm:"size:128"`
	Status                 BookingStatus   `json:"status" gorm:"size:16;index;not null"`
	BookedAt               time.Time       `json:"booked_at" gorm:"index;not null"`
	CancelledAt            *time.Time      `json:"cancelled_at,omitempty"`

	// Relations
	Train *Train `json:"train,omitempty" gorm:"foreignKey:TrainID"`
	User  *User  `json:"-" gorm:"foreignKey:UserID"`
}

func (Booking) TableName() string { return "bookings" }

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingCancelled
}
