package admin

import (
	"context"
	"fmt"
	"time"

	"railbook/internal/repository"
)

type Service struct {
	store Store
	zone  *time.Location
	now   func() time.Time
}

// NewService reports "today" in zone, the same zone train search uses.
func NewService(store Store, zone *time.Location) *Service {
	if zone == nil {
		zone = time.UTC
	}
	return &Service{store: store, zone: zone, now: time.Now}
}

func (s *Service) GetStatistics(ctx context.Context) (*StatisticsResponse, error) {
	now := s.now().In(s.zone)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.zone)
	end := start.AddDate(0, 0, 1)

	st, err := s.store.Stats(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &StatisticsResponse{
		TotalUsers:        st.TotalUsers,
		ActiveTrains:      st.ActiveTrains,
		ConfirmedBookings: st.ConfirmedBookings,
		CancelledBookings: st.CancelledBookings,
		TodayBookings:     st.BookingsInWindow,
		Revenue:           st.Revenue.Round(2),
	}, nil
}

// ListUsers supports simple filters + pagination
func (s *Service) ListUsers(ctx context.Context, filter UserListFilter) (*UserListResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	offset := (filter.Page - 1) * filter.Limit

	users, total, err := s.store.ListUsers(ctx, repository.UserFilter{Role: filter.Role, Query: filter.Query}, filter.Limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	return &UserListResponse{Users: out, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *Service) Manifest(ctx context.Context, trainID int64) (*ManifestResponse, error) {
	t, bookings, err := s.store.Manifest(ctx, trainID)
	if err != nil {
		return nil, fmt.Errorf("train %d: %w", trainID, err)
	}
	res := &ManifestResponse{
		TrainID:        t.ID,
		TrainNumber:    t.TrainNumber,
		TotalSeats:     t.TotalSeats,
		AvailableSeats: t.AvailableSeats,
		Deleted:        t.DeletedAt.Valid,
		Passengers:     make([]PassengerDTO, 0, len(bookings)),
	}
	for _, b := range bookings {
		res.Passengers = append(res.Passengers, PassengerDTO{
			BookingID:     b.ID,
			Reference:     b.Reference,
			UserID:        b.UserID,
			PassengerName: b.PassengerName,
			PassengerAge:  b.PassengerAge,
			SeatClass:     b.SeatClass,
			SeatNumber:    b.SeatNumber,
			Fare:          b.Fare,
		})
	}
	return res, nil
}
