package notification

import (
	"time"

	"railbook/internal/domain"
)

// Event types, also used as AMQP routing keys.
const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
)

type BookingDetails struct {
	Reference     string     `json:"reference"`
	PassengerName string     `json:"passenger_name"`
	PassengerAge  int        `json:"passenger_age"`
	SeatNumber    string     `json:"seat_number"`
	SeatClass     string     `json:"seat_class"`
	Fare          string     `json:"fare"`
	BookedAt      time.Time  `json:"booked_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

type TrainDetails struct {
	TrainNumber   string    `json:"train_number"`
	Name          string    `json:"name"`
	Source        string    `json:"source"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
}

// Event is the wire form published to the broker.
type Event struct {
	Type       string         `json:"type"`
	Email      string         `json:"email"`
	Booking    BookingDetails `json:"booking"`
	Train      TrainDetails   `json:"train"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func BookingDetailsFrom(b *domain.Booking) BookingDetails {
	return BookingDetails{
		Reference:     b.Reference,
		PassengerName: b.PassengerName,
		PassengerAge:  b.PassengerAge,
		SeatNumber:    b.SeatNumber,
		SeatClass:     b.SeatClass,
		Fare:          b.Fare.StringFixed(2),
		BookedAt:      b.BookedAt,
		CancelledAt:   b.CancelledAt,
	}
}

func TrainDetailsFrom(t *domain.Train) TrainDetails {
	if t == nil {
		return TrainDetails{}
	}
	return TrainDetails{
		TrainNumber:   t.TrainNumber,
		Name:          t.Name,
		Source:        t.Source,
		Destination:   t.Destination,
		DepartureTime: t.DepartureTime,
		ArrivalTime:   t.ArrivalTime,
	}
}
