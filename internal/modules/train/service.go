package train

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"railbook/internal/domain"
	"railbook/internal/pkg/validator"
	"railbook/internal/repository"
)

const dateLayout = "2006-01-02"

type Service struct {
	trains  trainRepo
	fares   fareTable
	cache   searchCache
	zone    *time.Location
	loggerf func(format string, args ...interface{})
}

func NewService(trains trainRepo, fares fareTable, zone *time.Location, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	if zone == nil {
		zone = time.UTC
	}
	return &Service{trains: trains, fares: fares, zone: zone, loggerf: loggerf}
}

// SetCache enables the search result cache.
func (s *Service) SetCache(cache searchCache) {
	s.cache = cache
}

func (s *Service) CreateTrain(ctx context.Context, req CreateTrainRequest) (*domain.Train, error) {
	if err := validator.Check(&req); err != nil {
		return nil, err
	}
	t := &domain.Train{
		TrainNumber:    strings.TrimSpace(req.TrainNumber),
		Name:           strings.TrimSpace(req.Name),
		Source:         strings.TrimSpace(req.Source),
		Destination:    strings.TrimSpace(req.Destination),
		DepartureTime:  req.DepartureTime.UTC(),
		ArrivalTime:    req.ArrivalTime.UTC(),
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		BaseFare:       req.BaseFare.Round(2),
	}
	if err := validateTrain(t); err != nil {
		return nil, err
	}

	exists, err := s.trains.NumberExists(ctx, t.TrainNumber, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateNumber
	}
	if err := s.trains.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateNumber
		}
		return nil, err
	}

	s.invalidate(ctx)
	s.loggerf("level=info msg=\"train created\" train_id=%d number=%s seats=%d", t.ID, t.TrainNumber, t.TotalSeats)
	return t, nil
}

func (s *Service) GetTrain(ctx context.Context, id int64) (*domain.Train, error) {
	t, err := s.trains.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("train %d: %w", id, err)
	}
	return t, nil
}

func (s *Service) ListTrains(ctx context.Context) ([]domain.Train, error) {
	return s.trains.List(ctx)
}

// SearchTrains returns trains on the route departing on the given calendar day in
// the configured reference zone. No match is an empty slice.
func (s *Service) SearchTrains(ctx context.Context, source, destination, date string) ([]domain.Train, error) {
	source = strings.TrimSpace(source)
	destination = strings.TrimSpace(destination)
	if source == "" {
		return nil, domain.Invalid("source", "is required")
	}
	if destination == "" {
		return nil, domain.Invalid("destination", "is required")
	}
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), s.zone)
	if err != nil {
		return nil, domain.Invalid("date", "must be YYYY-MM-DD")
	}
	key := day.Format(dateLayout)

	var gen int64
	cacheable := false
	if s.cache != nil {
		cached, g, ok, err := s.cache.Get(ctx, source, destination, key)
		switch {
		case err != nil:
			s.loggerf("level=warn msg=\"search cache read failed\" err=%v", err)
		case ok:
			return cached, nil
		default:
			gen, cacheable = g, true
		}
	}

	trains, err := s.trains.Search(ctx, source, destination, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, gen, source, destination, key, trains); err != nil {
			s.loggerf("level=warn msg=\"search cache write failed\" err=%v", err)
		}
	}
	return trains, nil
}

func (s *Service) UpdateTrain(ctx context.Context, id int64, req UpdateTrainRequest) (*domain.Train, error) {
	if req.TotalSeats != nil || req.AvailableSeats != nil {
		return nil, ErrSeatsImmutable
	}
	if err := validator.Check(&req); err != nil {
		return nil, err
	}

	current, err := s.GetTrain(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	updates := map[string]any{}
	if req.TrainNumber != nil {
		next.TrainNumber = strings.TrimSpace(*req.TrainNumber)
		updates["train_number"] = next.TrainNumber
	}
	if req.Name != nil {
		next.Name = strings.TrimSpace(*req.Name)
		updates["name"] = next.Name
	}
	if req.Source != nil {
		next.Source = strings.TrimSpace(*req.Source)
		updates["source"] = next.Source
	}
	if req.Destination != nil {
		next.Destination = strings.TrimSpace(*req.Destination)
		updates["destination"] = next.Destination
	}
	if req.DepartureTime != nil {
		next.DepartureTime = req.DepartureTime.UTC()
		updates["departure_time"] = next.DepartureTime
	}
	if req.ArrivalTime != nil {
		next.ArrivalTime = req.ArrivalTime.UTC()
		updates["arrival_time"] = next.ArrivalTime
	}
	if req.BaseFare != nil {
		next.BaseFare = req.BaseFare.Round(2)
		updates["base_fare"] = next.BaseFare
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := validateTrain(&next); err != nil {
		return nil, err
	}

	if next.TrainNumber != current.TrainNumber {
		exists, err := s.trains.NumberExists(ctx, next.TrainNumber, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateNumber
		}
	}

	if err := s.trains.Update(ctx, id, updates); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateNumber
		}
		return nil, err
	}
	s.invalidate(ctx)
	return s.GetTrain(ctx, id)
}

// DeleteTrain hides the train from the registry. Its bookings stay in place.
func (s *Service) DeleteTrain(ctx context.Context, id int64) error {
	if err := s.trains.Delete(ctx, id); err != nil {
		return fmt.Errorf("train %d: %w", id, err)
	}
	s.invalidate(ctx)
	s.loggerf("level=info msg=\"train deleted\" train_id=%d", id)
	return nil
}

func (s *Service) Quote(ctx context.Context, id int64) (*QuoteResponse, error) {
	t, err := s.GetTrain(ctx, id)
	if err != nil {
		return nil, err
	}
	return toQuoteResponse(t, s.fares.Quote(t.BaseFare)), nil
}

func (s *Service) OccupiedSeats(ctx context.Context, id int64, class string) (*SeatMapResponse, error) {
	name, err := s.fares.Normalize(class)
	if err != nil {
		return nil, err
	}
	t, err := s.GetTrain(ctx, id)
	if err != nil {
		return nil, err
	}
	seats, err := s.trains.OccupiedSeats(ctx, id, name)
	if err != nil {
		return nil, err
	}
	return &SeatMapResponse{TrainID: t.ID, Class: name, OccupiedSeats: seats, AvailableSeats: t.AvailableSeats}, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.loggerf("level=warn msg=\"search cache invalidation failed\" err=%v", err)
	}
}

func validateTrain(t *domain.Train) error {
	switch {
	case t.TrainNumber == "":
		return domain.Invalid("train_number", "is required")
	case t.Name == "":
		return domain.Invalid("name", "is required")
	case t.Source == "" || t.Destination == "":
		return domain.Invalid("route", "source and destination are required")
	case strings.EqualFold(t.Source, t.Destination):
		return domain.Invalid("destination", "must differ from source")
	case t.DepartureTime.IsZero() || t.ArrivalTime.IsZero():
		return domain.Invalid("schedule", "departure_time and arrival_time are required")
	case !t.ArrivalTime.After(t.DepartureTime):
		return domain.Invalid("arrival_time", "must be after departure_time")
	case t.TotalSeats <= 0:
		return domain.Invalid("total_seats", "must be greater than zero")
	case !t.BaseFare.IsPositive():
		return domain.Invalid("base_fare", "must be greater than zero")
	}
	return nil
}
