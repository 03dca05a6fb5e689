package train

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"railbook/internal/database"
	"railbook/internal/domain"
	"railbook/internal/modules/fare"
	"railbook/internal/repository"
)

func setupTestService(t *testing.T, zone *time.Location) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:train_test_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn, database.Options{Silent: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewService(repository.NewTrainRepository(db), fare.Default(), zone, t.Logf)
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedTrains(t *testing.T, svc *Service) {
	t.Helper()
	for _, req := range []CreateTrainRequest{
		{"12001", "Shatabdi Express", "Delhi", "Bhopal", at("2025-04-12T06:00:00Z"), at("2025-04-12T12:30:00Z"), 200, decimal.NewFromInt(850)},
		{"12951", "Rajdhani Express", "Mumbai", "Delhi", at("2025-04-12T16:00:00Z"), at("2025-04-13T08:00:00Z"), 300, decimal.NewFromInt(1450)},
		{"12627", "Karnataka Express", "Bangalore", "Delhi", at("2025-04-13T07:20:00Z"), at("2025-04-14T12:10:00Z"), 250, decimal.NewFromInt(1750)},
		{"12559", "Shiv Ganga Express", "Varanasi", "Delhi", at("2025-04-14T19:00:00Z"), at("2025-04-15T05:00:00Z"), 220, decimal.NewFromInt(900)},
	} {
		_, err := svc.CreateTrain(context.Background(), req)
		require.NoError(t, err)
	}
}

func validCreate() CreateTrainRequest {
	return CreateTrainRequest{
		TrainNumber:   "12001",
		Name:          "Shatabdi Express",
		Source:        "Delhi",
		Destination:   "Bhopal",
		DepartureTime: at("2025-04-12T06:00:00Z"),
		ArrivalTime:   at("2025-04-12T12:30:00Z"),
		TotalSeats:    200,
		BaseFare:      decimal.NewFromInt(850),
	}
}

func TestCreateTrain_SetsAvailableToTotal(t *testing.T) {
	svc := setupTestService(t, nil)
	tr, err := svc.CreateTrain(context.Background(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, 200, tr.AvailableSeats)
	assert.Equal(t, 200, tr.TotalSeats)
}

func TestCreateTrain_DuplicateNumber(t *testing.T) {
	svc := setupTestService(t, nil)
	_, err := svc.CreateTrain(context.Background(), validCreate())
	require.NoError(t, err)

	_, err = svc.CreateTrain(context.Background(), validCreate())
	assert.ErrorIs(t, err, ErrDuplicateNumber)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateTrain_Validation(t *testing.T) {
	svc := setupTestService(t, nil)
	tests := []struct {
		name   string
		mutate func(r *CreateTrainRequest)
	}{
		{"zero seats", func(r *CreateTrainRequest) { r.TotalSeats = 0 }},
		{"zero fare", func(r *CreateTrainRequest) { r.BaseFare = decimal.Zero }},
		{"negative fare", func(r *CreateTrainRequest) { r.BaseFare = decimal.NewFromInt(-1) }},
		{"arrival before departure", func(r *CreateTrainRequest) { r.ArrivalTime = r.DepartureTime.Add(-time.Hour) }},
		{"same station", func(r *CreateTrainRequest) { r.Destination = "delhi" }},
		{"missing number", func(r *CreateTrainRequest) { r.TrainNumber = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)
			_, err := svc.CreateTrain(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestSearchTrains_SeededRoutes(t *testing.T) {
	svc := setupTestService(t, nil)
	seedTrains(t, svc)
	ctx := context.Background()

	got, err := svc.SearchTrains(ctx, "Delhi", "Bhopal", "2025-04-12")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "12001", got[0].TrainNumber)

	got, err = svc.SearchTrains(ctx, "bangalore", " DELHI ", "2025-04-13")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "12627", got[0].TrainNumber)

	got, err = svc.SearchTrains(ctx, "Delhi", "Bhopal", "2025-04-13")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchTrains_ReferenceZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	svc := setupTestService(t, ist)
	seedTrains(t, svc)
	ctx := context.Background()

	// 19:00Z on the 14th is 00:30 on the 15th in IST.
	got, err := svc.SearchTrains(ctx, "Varanasi", "Delhi", "2025-04-15")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.SearchTrains(ctx, "Varanasi", "Delhi", "2025-04-14")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchTrains_BadInput(t *testing.T) {
	svc := setupTestService(t, nil)
	ctx := context.Background()

	_, err := svc.SearchTrains(ctx, "Delhi", "Bhopal", "12-04-2025")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.SearchTrains(ctx, "", "Bhopal", "2025-04-12")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateTrain(t *testing.T) {
	svc := setupTestService(t, nil)
	ctx := context.Background()
	tr, err := svc.CreateTrain(ctx, validCreate())
	require.NoError(t, err)

	name := "Vande Bharat"
	newFare := decimal.RequireFromString("999.999")
	updated, err := svc.UpdateTrain(ctx, tr.ID, UpdateTrainRequest{Name: &name, BaseFare: &newFare})
	require.NoError(t, err)
	assert.Equal(t, "Vande Bharat", updated.Name)
	assert.True(t, decimal.NewFromInt(1000).Equal(updated.BaseFare))
	assert.Equal(t, 200, updated.AvailableSeats)

	seats := 10
	_, err = svc.UpdateTrain(ctx, tr.ID, UpdateTrainRequest{TotalSeats: &seats})
	assert.ErrorIs(t, err, domain.ErrValidation)

	early := tr.DepartureTime.Add(-time.Hour)
	_, err = svc.UpdateTrain(ctx, tr.ID, UpdateTrainRequest{ArrivalTime: &early})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateTrain(ctx, 9999, UpdateTrainRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateTrain_NumberClash(t *testing.T) {
	svc := setupTestService(t, nil)
	ctx := context.Background()
	seedTrains(t, svc)
	trains, err := svc.ListTrains(ctx)
	require.NoError(t, err)

	taken := "12951"
	_, err = svc.UpdateTrain(ctx, trains[0].ID, UpdateTrainRequest{TrainNumber: &taken})
	assert.ErrorIs(t, err, ErrDuplicateNumber)
}

func TestDeleteTrain_HiddenEverywhere(t *testing.T) {
	svc := setupTestService(t, nil)
	ctx := context.Background()
	seedTrains(t, svc)

	found, err := svc.SearchTrains(ctx, "Delhi", "Bhopal", "2025-04-12")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, svc.DeleteTrain(ctx, found[0].ID))

	_, err = svc.GetTrain(ctx, found[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	found, err = svc.SearchTrains(ctx, "Delhi", "Bhopal", "2025-04-12")
	require.NoError(t, err)
	assert.Empty(t, found)
	all, err := svc.ListTrains(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.ErrorIs(t, svc.DeleteTrain(ctx, 9999), domain.ErrNotFound)
}

func TestQuoteAndSeats(t *testing.T) {
	svc := setupTestService(t, nil)
	ctx := context.Background()
	tr, err := svc.CreateTrain(ctx, validCreate())
	require.NoError(t, err)

	q, err := svc.Quote(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, q.Fares, 3)
	assert.True(t, decimal.NewFromInt(1275).Equal(q.Fares[1].Fare))

	seats, err := svc.OccupiedSeats(ctx, tr.ID, "sleeper")
	require.NoError(t, err)
	assert.Equal(t, "SLEEPER", seats.Class)
	assert.Empty(t, seats.OccupiedSeats)

	_, err = svc.OccupiedSeats(ctx, tr.ID, "FIRST")
	assert.ErrorIs(t, err, fare.ErrInvalidClass)
}

type MockSearchCache struct {
	mock.Mock
}

func (m *MockSearchCache) Get(ctx context.Context, source, destination, date string) ([]domain.Train, int64, bool, error) {
	args := m.Called(ctx, source, destination, date)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Bool(2), args.Error(3)
	}
	return args.Get(0).([]domain.Train), args.Get(1).(int64), args.Bool(2), args.Error(3)
}

func (m *MockSearchCache) Set(ctx context.Context, gen int64, source, destination, date string, trains []domain.Train) error {
	return m.Called(ctx, gen, source, destination, date, trains).Error(0)
}

func (m *MockSearchCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestSearchTrains_CacheHit(t *testing.T) {
	svc := setupTestService(t, nil)
	cache := new(MockSearchCache)
	svc.SetCache(cache)

	cached := []domain.Train{{ID: 42, TrainNumber: "C1"}}
	cache.On("Get", mock.Anything, "Delhi", "Bhopal", "2025-04-12").Return(cached, int64(3), true, nil).Once()

	got, err := svc.SearchTrains(context.Background(), "Delhi", "Bhopal", "2025-04-12")
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	cache.AssertExpectations(t)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchTrains_CacheMissStoresUnderGenerationRead(t *testing.T) {
	svc := setupTestService(t, nil)
	seedTrains(t, svc)
	cache := new(MockSearchCache)
	svc.SetCache(cache)

	// Set reuses the generation from Get instead of reading it again.
	cache.On("Get", mock.Anything, "Delhi", "Bhopal", "2025-04-12").Return(nil, int64(7), false, nil).Once()
	cache.On("Set", mock.Anything, int64(7), "Delhi", "Bhopal", "2025-04-12", mock.Anything).Return(nil).Once()

	got, err := svc.SearchTrains(context.Background(), "Delhi", "Bhopal", "2025-04-12")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	cache.AssertExpectations(t)
}

func TestSearchTrains_CacheFailureFallsBack(t *testing.T) {
	svc := setupTestService(t, nil)
	cache := new(MockSearchCache)
	cache.On("Invalidate", mock.Anything).Return(errors.New("redis down"))
	svc.SetCache(cache)
	seedTrains(t, svc)

	cache.On("Get", mock.Anything, "Delhi", "Bhopal", "2025-04-12").Return(nil, int64(0), false, errors.New("redis down"))

	got, err := svc.SearchTrains(context.Background(), "Delhi", "Bhopal", "2025-04-12")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	cache.AssertNumberOfCalls(t, "Invalidate", 4)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
