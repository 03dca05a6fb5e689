package booking

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"railbook/internal/database"
	"railbook/internal/domain"
	"railbook/internal/modules/fare"
	"railbook/internal/modules/notification"
	"railbook/internal/modules/payment"
	"railbook/internal/repository"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) NotifyBookingConfirmed(ctx context.Context, email string, b notification.BookingDetails, t notification.TrainDetails) error {
	return m.Called(ctx, email, b, t).Error(0)
}

func (m *MockSink) NotifyBookingCancelled(ctx context.Context, email string, b notification.BookingDetails, t notification.TrainDetails) error {
	return m.Called(ctx, email, b, t).Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Authorize(ctx context.Context, req payment.AuthorizeRequest) (*payment.Authorization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Authorization), args.Error(1)
}

func (m *MockGateway) Void(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type recordingPublisher struct {
	mu        sync.Mutex
	counts    []int
	byVersion map[int64]int
}

func (p *recordingPublisher) PublishAvailability(_, version int64, available, _ int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts = append(p.counts, available)
	if p.byVersion == nil {
		p.byVersion = map[int64]int{}
	}
	p.byVersion[version] = available
	return 1
}

type testEnv struct {
	db         *gorm.DB
	svc        *Service
	sink       *MockSink
	dispatcher *notification.Dispatcher
	live       *recordingPublisher
	users      map[string]*domain.User
}

func setupTestEnv(t *testing.T, cfg Config, gateway payment.Gateway) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:booking_test_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	return setupTestEnvDSN(t, dsn, cfg, gateway)
}

func setupTestEnvDSN(t *testing.T, dsn string, cfg Config, gateway payment.Gateway) *testEnv {
	t.Helper()
	db, err := database.Connect(dsn, database.Options{Silent: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:         db,
		sink:       new(MockSink),
		dispatcher: notification.NewDispatcher(time.Second, t.Logf),
		live:       &recordingPublisher{},
		users:      map[string]*domain.User{},
	}
	env.sink.On("NotifyBookingConfirmed", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	env.sink.On("NotifyBookingCancelled", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	users := repository.NewUserRepository(db)
	for _, name := range []string{"asha", "ravi"} {
		u := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Role: domain.RoleClient}
		require.NoError(t, users.Create(context.Background(), u))
		env.users[name] = u
	}

	env.svc = NewService(
		repository.NewLedgerRepository(db),
		repository.NewTrainRepository(db),
		users,
		fare.Default(),
		gateway,
		env.sink,
		env.dispatcher,
		env.live,
		cfg,
		t.Logf,
	)
	t.Cleanup(env.dispatcher.Wait)
	return env
}

func (e *testEnv) seedTrain(t *testing.T, seats int) *domain.Train {
	t.Helper()
	train := &domain.Train{
		TrainNumber:    fmt.Sprintf("12%03d", seats),
		Name:           "Shatabdi Express",
		Source:         "Delhi",
		Destination:    "Bhopal",
		DepartureTime:  time.Date(2025, 4, 12, 6, 0, 0, 0, time.UTC),
		ArrivalTime:    time.Date(2025, 4, 12, 12, 30, 0, 0, time.UTC),
		TotalSeats:     seats,
		AvailableSeats: seats,
		BaseFare:       decimal.NewFromInt(850),
	}
	require.NoError(t, e.db.Create(train).Error)
	return train
}

// assertInvariant checks available == total - confirmed straight from the tables.
func (e *testEnv) assertInvariant(t *testing.T, trainID int64) int {
	t.Helper()
	var train domain.Train
	require.NoError(t, e.db.Unscoped().First(&train, trainID).Error)
	var confirmed int64
	require.NoError(t, e.db.Model(&domain.Booking{}).
		Where("train_id = ? AND status = ?", trainID, domain.BookingConfirmed).
		Count(&confirmed).Error)
	assert.Equal(t, train.TotalSeats-int(confirmed), train.AvailableSeats, "seat invariant broken")
	assert.GreaterOrEqual(t, train.AvailableSeats, 0)
	assert.LessOrEqual(t, train.AvailableSeats, train.TotalSeats)
	return train.AvailableSeats
}

func bookReq(trainID int64, seat string) CreateBookingRequest {
	return CreateBookingRequest{
		TrainID:       trainID,
		PassengerName: "Asha Verma",
		PassengerAge:  29,
		SeatNumber:    seat,
		SeatClass:     "sleeper",
	}
}

func TestCreateBooking_ConfirmsAndChargesClassFare(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 10)
	user := env.users["asha"]

	b, err := env.svc.CreateBooking(context.Background(), user.ID, bookReq(train.ID, "s1-12"))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, "S1-12", b.SeatNumber)
	assert.Equal(t, "SLEEPER", b.SeatClass)
	assert.True(t, decimal.NewFromInt(1275).Equal(b.Fare))
	assert.NotEmpty(t, b.Reference)
	assert.Nil(t, b.PaymentAuthorizationID)
	require.NotNil(t, b.Train)
	assert.Equal(t, 9, b.Train.AvailableSeats)
	assert.Equal(t, 9, env.assertInvariant(t, train.ID))

	env.dispatcher.Wait()
	env.sink.AssertCalled(t, "NotifyBookingConfirmed", mock.Anything, "asha@example.com", mock.Anything, mock.Anything)
	assert.Equal(t, []int{9}, env.live.counts)
}

func TestLiveUpdates_CarryLedgerVersion(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 10)
	uid := env.users["asha"].ID
	ctx := context.Background()

	first, err := env.svc.CreateBooking(ctx, uid, bookReq(train.ID, "A1"))
	require.NoError(t, err)
	for _, seat := range []string{"A2", "A3"} {
		_, err := env.svc.CreateBooking(ctx, uid, bookReq(train.ID, seat))
		require.NoError(t, err)
	}
	_, err = env.svc.CancelBooking(ctx, first.ID, uid)
	require.NoError(t, err)

	// Delivery order on the dispatcher is not fixed; the version pins each count
	// to the commit that produced it.
	env.dispatcher.Wait()
	assert.Equal(t, map[int64]int{1: 9, 2: 8, 3: 7, 4: 8}, env.live.byVersion)
}

func TestCreateBooking_Validation(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 10)
	uid := env.users["asha"].ID
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(r *CreateBookingRequest)
	}{
		{"empty name", func(r *CreateBookingRequest) { r.PassengerName = "   " }},
		{"age zero", func(r *CreateBookingRequest) { r.PassengerAge = 0 }},
		{"age too high", func(r *CreateBookingRequest) { r.PassengerAge = 121 }},
		{"bad seat", func(r *CreateBookingRequest) { r.SeatNumber = "A 1" }},
		{"unknown class", func(r *CreateBookingRequest) { r.SeatClass = "FIRST" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bookReq(train.ID, "A1")
			tt.mutate(&req)
			_, err := env.svc.CreateBooking(ctx, uid, req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Equal(t, 10, env.assertInvariant(t, train.ID))

	_, err := env.svc.CreateBooking(ctx, uid, bookReq(9999, "A1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateBooking_SeatTaken(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 10)
	ctx := context.Background()

	_, err := env.svc.CreateBooking(ctx, env.users["asha"].ID, bookReq(train.ID, "B2"))
	require.NoError(t, err)

	_, err = env.svc.CreateBooking(ctx, env.users["ravi"].ID, bookReq(train.ID, "b2"))
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Same label in another class is a different seat.
	req := bookReq(train.ID, "B2")
	req.SeatClass = "AC"
	_, err = env.svc.CreateBooking(ctx, env.users["ravi"].ID, req)
	require.NoError(t, err)
	assert.Equal(t, 8, env.assertInvariant(t, train.ID))
}

func TestCreateBooking_NoOversell(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	const seats, callers = 5, 20
	train := env.seedTrain(t, seats)
	uid := env.users["asha"].ID

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.CreateBooking(context.Background(), uid, bookReq(train.ID, fmt.Sprintf("A%d", i)))
		}(i)
	}
	wg.Wait()

	ok, soldOut := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrNoAvailability):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, seats, ok)
	assert.Equal(t, callers-seats, soldOut)
	assert.Equal(t, 0, env.assertInvariant(t, train.ID))
}

func TestCreateBooking_NoOversellOnFileDatabase(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "railbook.db") + "?_pragma=busy_timeout(5000)"
	env := setupTestEnvDSN(t, dsn, Config{}, nil)
	const seats, callers = 60, 100
	train := env.seedTrain(t, seats)
	uid := env.users["ravi"].ID

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.CreateBooking(context.Background(), uid, bookReq(train.ID, fmt.Sprintf("F%d", i)))
		}(i)
	}
	wg.Wait()

	ok, soldOut := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrNoAvailability):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, seats, ok)
	assert.Equal(t, callers-seats, soldOut)
	assert.Equal(t, 0, env.assertInvariant(t, train.ID))
}

func TestCreateBooking_SameSeatRace(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 50)
	uid := env.users["ravi"].ID

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.CreateBooking(context.Background(), uid, bookReq(train.ID, "C7"))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrSeatTaken)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 49, env.assertInvariant(t, train.ID))
}

func TestCancelBooking_Once(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 3)
	uid := env.users["asha"].ID
	ctx := context.Background()

	b, err := env.svc.CreateBooking(ctx, uid, bookReq(train.ID, "D1"))
	require.NoError(t, err)
	assert.Equal(t, 2, env.assertInvariant(t, train.ID))

	cancelled, err := env.svc.CancelBooking(ctx, b.ID, uid)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 3, env.assertInvariant(t, train.ID))

	_, err = env.svc.CancelBooking(ctx, b.ID, uid)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	assert.Equal(t, 3, env.assertInvariant(t, train.ID))

	// The seat is free again.
	_, err = env.svc.CreateBooking(ctx, uid, bookReq(train.ID, "D1"))
	require.NoError(t, err)

	env.dispatcher.Wait()
	env.sink.AssertCalled(t, "NotifyBookingCancelled", mock.Anything, "asha@example.com", mock.Anything, mock.Anything)
}

func TestCancelBooking_ConcurrentDoubleCancel(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 3)
	uid := env.users["asha"].ID

	b, err := env.svc.CreateBooking(context.Background(), uid, bookReq(train.ID, "E1"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.CancelBooking(context.Background(), b.ID, uid)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 3, env.assertInvariant(t, train.ID))
}

func TestOwnershipEnforced(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 3)
	ctx := context.Background()
	owner, other := env.users["asha"].ID, env.users["ravi"].ID

	b, err := env.svc.CreateBooking(ctx, owner, bookReq(train.ID, "F1"))
	require.NoError(t, err)

	_, err = env.svc.GetBooking(ctx, b.ID, other)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.svc.CancelBooking(ctx, b.ID, other)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, env.assertInvariant(t, train.ID))

	mine, err := env.svc.ListUserBookings(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestListUserBookings_NewestFirst(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 10)
	uid := env.users["asha"].ID
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, seat := range []string{"G1", "G2", "G3"} {
		at := base.Add(time.Duration(i) * time.Minute)
		env.svc.now = func() time.Time { return at }
		_, err := env.svc.CreateBooking(ctx, uid, bookReq(train.ID, seat))
		require.NoError(t, err)
	}

	list, err := env.svc.ListUserBookings(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "G3", list[0].SeatNumber)
	assert.Equal(t, "G1", list[2].SeatNumber)
	require.NotNil(t, list[0].Train)
}

func TestDeletedTrain(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 4)
	uid := env.users["asha"].ID
	ctx := context.Background()

	b, err := env.svc.CreateBooking(ctx, uid, bookReq(train.ID, "H1"))
	require.NoError(t, err)
	require.NoError(t, env.db.Delete(&domain.Train{}, train.ID).Error)

	_, err = env.svc.CreateBooking(ctx, uid, bookReq(train.ID, "H2"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := env.svc.ListUserBookings(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Train)

	_, err = env.svc.CancelBooking(ctx, b.ID, uid)
	require.NoError(t, err)
	assert.Equal(t, 4, env.assertInvariant(t, train.ID))
}

func TestCreateCancelStorm_KeepsInvariant(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 6)
	uid := env.users["asha"].ID

	var wg sync.WaitGroup
	for w := 0; w < 6; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ctx := context.Background()
			for i := 0; i < 5; i++ {
				b, err := env.svc.CreateBooking(ctx, uid, bookReq(train.ID, fmt.Sprintf("W%d-%d", w, i%2)))
				if err != nil {
					continue
				}
				if i%2 == 0 {
					_, _ = env.svc.CancelBooking(ctx, b.ID, uid)
				}
			}
		}(w)
	}
	wg.Wait()
	env.assertInvariant(t, train.ID)
}

func TestReconcile_RepairsDriftIdempotently(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	train := env.seedTrain(t, 10)
	uid := env.users["asha"].ID
	ctx := context.Background()

	for _, seat := range []string{"J1", "J2", "J3"} {
		_, err := env.svc.CreateBooking(ctx, uid, bookReq(train.ID, seat))
		require.NoError(t, err)
	}
	require.NoError(t, env.db.Model(&domain.Train{}).Where("id = ?", train.ID).
		Update("available_seats", 1).Error)

	res, err := env.svc.ReconcileTrain(ctx, train.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Before)
	assert.Equal(t, 7, res.After)
	assert.Equal(t, 3, res.Confirmed)
	assert.Equal(t, 7, env.assertInvariant(t, train.ID))

	res, err = env.svc.ReconcileTrain(ctx, train.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	all, err := env.svc.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Changed)

	_, err = env.svc.ReconcileTrain(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSoldOutTrainRejectedBeforePayment(t *testing.T) {
	gw := new(MockGateway)
	env := setupTestEnv(t, Config{PaymentRequired: true}, gw)
	train := env.seedTrain(t, 1)
	require.NoError(t, env.db.Model(&domain.Train{}).Where("id = ?", train.ID).Update("available_seats", 0).Error)

	req := bookReq(train.ID, "K1")
	req.PaymentToken = "tok_visa"
	_, err := env.svc.CreateBooking(context.Background(), env.users["asha"].ID, req)
	assert.ErrorIs(t, err, domain.ErrNoAvailability)
	gw.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything)
}

func TestPayment_Flows(t *testing.T) {
	ctx := context.Background()

	t.Run("token required", func(t *testing.T) {
		env := setupTestEnv(t, Config{PaymentRequired: true}, payment.NewSandboxGateway())
		train := env.seedTrain(t, 2)
		_, err := env.svc.CreateBooking(ctx, env.users["asha"].ID, bookReq(train.ID, "L1"))
		assert.ErrorIs(t, err, domain.ErrPaymentRequired)
		assert.Equal(t, 2, env.assertInvariant(t, train.ID))
	})

	t.Run("declined", func(t *testing.T) {
		env := setupTestEnv(t, Config{PaymentRequired: true}, payment.NewSandboxGateway())
		train := env.seedTrain(t, 2)
		req := bookReq(train.ID, "L1")
		req.PaymentToken = payment.TokenDecline
		_, err := env.svc.CreateBooking(ctx, env.users["asha"].ID, req)
		assert.ErrorIs(t, err, ErrPaymentDeclined)
		assert.ErrorIs(t, err, domain.ErrPaymentRequired)
		assert.Equal(t, 2, env.assertInvariant(t, train.ID))
	})

	t.Run("timeout", func(t *testing.T) {
		env := setupTestEnv(t, Config{PaymentRequired: true, PaymentTimeout: 30 * time.Millisecond}, payment.NewSandboxGateway())
		train := env.seedTrain(t, 2)
		req := bookReq(train.ID, "L1")
		req.PaymentToken = payment.TokenTimeout
		_, err := env.svc.CreateBooking(ctx, env.users["asha"].ID, req)
		assert.ErrorIs(t, err, domain.ErrPaymentTimeout)
		assert.Equal(t, 2, env.assertInvariant(t, train.ID))
	})

	t.Run("authorized", func(t *testing.T) {
		env := setupTestEnv(t, Config{PaymentRequired: true}, payment.NewSandboxGateway())
		train := env.seedTrain(t, 2)
		req := bookReq(train.ID, "L1")
		req.PaymentToken = "tok_visa"
		b, err := env.svc.CreateBooking(ctx, env.users["asha"].ID, req)
		require.NoError(t, err)
		require.NotNil(t, b.PaymentAuthorizationID)
		assert.Equal(t, 1, env.assertInvariant(t, train.ID))
	})

	t.Run("void when commit fails", func(t *testing.T) {
		gw := new(MockGateway)
		env := setupTestEnv(t, Config{PaymentRequired: true, Currency: "INR"}, gw)
		train := env.seedTrain(t, 2)

		gw.On("Authorize", mock.Anything, mock.MatchedBy(func(r payment.AuthorizeRequest) bool {
			return r.Amount.Equal(decimal.NewFromInt(1275)) && r.Currency == "INR"
		})).Return(&payment.Authorization{ID: "auth_1", Status: payment.StatusSucceeded}, nil).Twice()
		gw.On("Void", mock.Anything, "auth_1").Return(nil).Once()

		req := bookReq(train.ID, "L1")
		req.PaymentToken = "tok_visa"
		_, err := env.svc.CreateBooking(ctx, env.users["asha"].ID, req)
		require.NoError(t, err)
		_, err = env.svc.CreateBooking(ctx, env.users["ravi"].ID, req)
		assert.ErrorIs(t, err, ErrSeatTaken)

		gw.AssertExpectations(t)
		assert.Equal(t, 1, env.assertInvariant(t, train.ID))
	})
}

func TestNotificationFailureDoesNotFailBooking(t *testing.T) {
	env := setupTestEnv(t, Config{}, nil)
	env.sink.ExpectedCalls = nil
	env.sink.On("NotifyBookingConfirmed", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))
	train := env.seedTrain(t, 2)

	_, err := env.svc.CreateBooking(context.Background(), env.users["asha"].ID, bookReq(train.ID, "M1"))
	require.NoError(t, err)
	env.dispatcher.Wait()
	env.sink.AssertNumberOfCalls(t, "NotifyBookingConfirmed", 1)
}

// conflictLedger reports a version conflict on every decrement.
type conflictLedger struct {
	LedgerStore
	train *domain.Train
	calls int
}

func (l *conflictLedger) Transaction(_ context.Context, fn func(tx repository.LedgerTx) error) error {
	l.calls++
	return fn(&conflictTx{train: l.train})
}

type conflictTx struct {
	repository.LedgerTx
	train *domain.Train
}

func (c *conflictTx) LockTrain(int64, bool) (*domain.Train, error) {
	t := *c.train
	return &t, nil
}
func (c *conflictTx) SeatTaken(int64, string, string) (bool, error) { return false, nil }
func (c *conflictTx) InsertBooking(*domain.Booking) error            { return nil }
func (c *conflictTx) DecrementAvailable(*domain.Train) (bool, error) { return false, nil }

type stubTrains struct{ train *domain.Train }

func (s stubTrains) GetByID(context.Context, int64) (*domain.Train, error) {
	t := *s.train
	return &t, nil
}

func TestCreateBooking_RetriesThenConcurrencyConflict(t *testing.T) {
	train := &domain.Train{ID: 1, TotalSeats: 5, AvailableSeats: 5, BaseFare: decimal.NewFromInt(100)}
	ledger := &conflictLedger{train: train}
	svc := NewService(ledger, stubTrains{train}, nil, fare.Default(), nil, nil, nil, nil, Config{MaxRetries: 3}, t.Logf)

	_, err := svc.CreateBooking(context.Background(), 1, bookReq(1, "A1"))
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.Equal(t, 3, ledger.calls)
}
