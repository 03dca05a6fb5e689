package train

import (
	"time"

	"github.com/shopspring/decimal"

	"railbook/internal/domain"
	"railbook/internal/modules/fare"
)

type CreateTrainRequest struct {
	TrainNumber   string          `json:"train_number" binding:"required,max=32"`
	Name          string          `json:"name" binding:"required,max=128"`
	Source        string          `json:"source" binding:"required,max=64"`
	Destination   string          `json:"destination" binding:"required,max=64"`
	DepartureTime time.Time       `json:"departure_time" binding:"required"`
	ArrivalTime   time.Time       `json:"arrival_time" binding:"required"`
	TotalSeats    int             `json:"total_seats" binding:"required,gt=0"`
	BaseFare      decimal.Decimal `json:"base_fare"`
}

// UpdateTrainRequest is partial; nil fields are left untouched.
type UpdateTrainRequest struct {
	TrainNumber    *string          `json:"train_number" binding:"omitempty,min=1,max=32"`
	Name           *string          `json:"name" binding:"omitempty,min=1,max=128"`
	Source         *string          `json:"source" binding:"omitempty,min=1,max=64"`
	Destination    *string          `json:"destination" binding:"omitempty,min=1,max=64"`
	DepartureTime  *time.Time       `json:"departure_time"`
	ArrivalTime    *time.Time       `json:"arrival_time"`
	BaseFare       *decimal.Decimal `json:"base_fare"`
	TotalSeats     *int             `json:"total_seats"`
	AvailableSeats *int             `json:"available_seats"`
}

type TrainResponse struct {
	ID             int64           `json:"id"`
	TrainNumber    string          `json:"train_number"`
	Name           string          `json:"name"`
	Source         string          `json:"source"`
	Destination    string          `json:"destination"`
	DepartureTime  time.Time       `json:"departure_time"`
	ArrivalTime    time.Time       `json:"arrival_time"`
	TotalSeats     int             `json:"total_seats"`
	AvailableSeats int             `json:"available_seats"`
	BaseFare       decimal.Decimal `json:"base_fare"`
}

func ToResponse(t *domain.Train) TrainResponse {
	return TrainResponse{
		ID:             t.ID,
		TrainNumber:    t.TrainNumber,
		Name:           t.Name,
		Source:         t.Source,
		Destination:    t.Destination,
		DepartureTime:  t.DepartureTime,
		ArrivalTime:    t.ArrivalTime,
		TotalSeats:     t.TotalSeats,
		AvailableSeats: t.AvailableSeats,
		BaseFare:       t.BaseFare,
	}
}

func toResponses(trains []domain.Train) []TrainResponse {
	out := make([]TrainResponse, 0, len(trains))
	for i := range trains {
		out = append(out, ToResponse(&trains[i]))
	}
	return out
}

type ClassFareResponse struct {
	Class      string          `json:"class"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Fare       decimal.Decimal `json:"fare"`
}

type QuoteResponse struct {
	TrainID     int64               `json:"train_id"`
	TrainNumber string              `json:"train_number"`
	BaseFare    decimal.Decimal     `json:"base_fare"`
	Fares       []ClassFareResponse `json:"fares"`
}

func toQuoteResponse(t *domain.Train, fares []fare.ClassFare) *QuoteResponse {
	out := &QuoteResponse{
		TrainID:     t.ID,
		TrainNumber: t.TrainNumber,
		BaseFare:    t.BaseFare,
		Fares:       make([]ClassFareResponse, 0, len(fares)),
	}
	for _, f := range fares {
		out.Fares = append(out.Fares, ClassFareResponse{
			Class:      f.Class,
			Multiplier: f.Multiplier,
			Fare:       f.Fare,
		})
	}
	return out
}

type SeatMapResponse struct {
	TrainID        int64    `json:"train_id"`
	Class          string   `json:"class"`
	OccupiedSeats  []string `json:"occupied_seats"`
	AvailableSeats int      `json:"available_seats"`
}
