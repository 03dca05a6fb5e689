package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"railbook/internal/domain"
)

type CreateBookingRequest struct {
	TrainID       int64  `json:"train_id" binding:"required,gt=0"`
	PassengerName string `json:"passenger_name" binding:"required,max=128"`
	PassengerAge  int    `json:"passenger_age" binding:"required,min=1,max=120"`
	SeatNumber    string `json:"seat_number" binding:"required,max=16"`
	SeatClass     string `json:"seat_class" binding:"required,max=32"`
	PaymentToken  string `json:"payment_token,omitempty"`
}

type TrainSummary struct {
	ID            int64     `json:"id"`
	TrainNumber   string    `json:"train_number"`
	Name          string    `json:"name"`
	Source        string    `json:"source"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
}

type BookingResponse struct {
	ID            int64           `json:"id"`
	Reference     string          `json:"reference"`
	TrainID       int64           `json:"train_id"`
	PassengerName string          `json:"passenger_name"`
	PassengerAge  int             `json:"passenger_age"`
	SeatNumber    string          `json:"seat_number"`
	SeatClass     string          `json:"seat_class"`
	Fare          decimal.Decimal `json:"fare"`
	PaymentAuthID *string         `json:"payment_authorization_id,omitempty"`
	Status        string          `json:"status"`
	BookedAt      time.Time       `json:"booked_at"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	Train         *TrainSummary   `json:"train,omitempty"`
}

func ToResponse(b *domain.Booking) BookingResponse {
	out := BookingResponse{
		ID:            b.ID,
		Reference:     b.Reference,
		TrainID:       b.TrainID,
		PassengerName: b.PassengerName,
		PassengerAge:  b.PassengerAge,
		SeatNumber:    b.SeatNumber,
		SeatClass:     b.SeatClass,
		Fare:          b.Fare,
		PaymentAuthID: b.PaymentAuthorizationID,
		Status:        string(b.Status),
		BookedAt:      b.BookedAt,
		CancelledAt:   b.CancelledAt,
	}
	if t := b.Train; t != nil {
		out.Train = &TrainSummary{
			ID:            t.ID,
			TrainNumber:   t.TrainNumber,
			Name:          t.Name,
			Source:        t.Source,
			Destination:   t.Destination,
			DepartureTime: t.DepartureTime,
			ArrivalTime:   t.ArrivalTime,
		}
	}
	return out
}

// ReconcileResult reports what a reconciliation pass found for one train.
type ReconcileResult struct {
	TrainID   int64 `json:"train_id"`
	Confirmed int   `json:"confirmed"`
	Before    int   `json:"available_before"`
	After     int   `json:"available_after"`
	Changed   bool  `json:"changed"`
}
