package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"railbook/internal/domain"
	"railbook/internal/modules/notification"
	"railbook/internal/modules/payment"
	"railbook/internal/pkg/validator"
	"railbook/internal/repository"
)

type Config struct {
	PaymentRequired bool
	PaymentTimeout  time.Duration
	Currency        string
	MaxRetries      int
}

// Service is the booking ledger. Every change to seat inventory goes through it,
// inside one transaction that also writes the booking row.
type Service struct {
	ledger     LedgerStore
	trains     TrainReader
	users      UserReader
	fares      FareTable
	gateway    payment.Gateway
	sink       notification.Sink
	dispatcher Dispatcher
	live       AvailabilityPublisher
	cfg        Config
	now        func() time.Time
	loggerf    func(format string, args ...interface{})
}

func NewService(
	ledger LedgerStore,
	trains TrainReader,
	users UserReader,
	fares FareTable,
	gateway payment.Gateway,
	sink notification.Sink,
	dispatcher Dispatcher,
	live AvailabilityPublisher,
	cfg Config,
	loggerf func(format string, args ...interface{}),
) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &Service{
		ledger:     ledger,
		trains:     trains,
		users:      users,
		fares:      fares,
		gateway:    gateway,
		sink:       sink,
		dispatcher: dispatcher,
		live:       live,
		cfg:        cfg,
		now:        time.Now,
		loggerf:    loggerf,
	}
}

func (s *Service) CreateBooking(ctx context.Context, userID int64, req CreateBookingRequest) (b *domain.Booking, err error) {
	defer func() { observe("create", err) }()

	if userID <= 0 {
		return nil, domain.ErrUnauthorized
	}
	req.PassengerName = strings.TrimSpace(req.PassengerName)
	req.SeatNumber = strings.ToUpper(strings.TrimSpace(req.SeatNumber))
	if err := validator.Check(&req); err != nil {
		return nil, err
	}
	if !validator.ValidSeatLabel(req.SeatNumber) {
		return nil, domain.Invalid("seat_number", "must be 1-16 letters, digits or dashes")
	}
	class, err := s.fares.Normalize(req.SeatClass)
	if err != nil {
		return nil, err
	}

	train, err := s.trains.GetByID(ctx, req.TrainID)
	if err != nil {
		return nil, fmt.Errorf("train %d: %w", req.TrainID, err)
	}
	if !train.HasAvailability() {
		return nil, domain.ErrNoAvailability
	}
	amount, err := s.fares.Fare(train.BaseFare, class)
	if err != nil {
		return nil, err
	}

	var auth *payment.Authorization
	if s.cfg.PaymentRequired {
		auth, err = s.authorize(ctx, userID, train, class, req, amount)
		if err != nil {
			return nil, err
		}
	}

	b, err = s.commitBooking(ctx, userID, train.ID, class, req, amount, auth)
	if err != nil {
		if auth != nil {
			s.void(ctx, auth.ID)
		}
		return nil, err
	}

	s.loggerf("level=info msg=\"booking confirmed\" booking_id=%d reference=%s user_id=%d train_id=%d seat=%s class=%s available=%d",
		b.ID, b.Reference, userID, b.TrainID, b.SeatNumber, b.SeatClass, b.Train.AvailableSeats)
	s.afterCommit(notification.TypeBookingConfirmed, userID, b)
	return b, nil
}

func (s *Service) authorize(ctx context.Context, userID int64, train *domain.Train, class string, req CreateBookingRequest, amount decimal.Decimal) (*payment.Authorization, error) {
	token := strings.TrimSpace(req.PaymentToken)
	if token == "" {
		return nil, ErrPaymentToken
	}
	if s.gateway == nil {
		return nil, errors.New("payment gateway is not configured")
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()

	start := time.Now()
	auth, err := s.gateway.Authorize(pctx, payment.AuthorizeRequest{
		Token:    token,
		Amount:   amount,
		Currency: s.cfg.Currency,
		UserID:   userID,
		TrainID:  train.ID,
		Metadata: map[string]string{
			"train_number": train.TrainNumber,
			"seat_number":  req.SeatNumber,
			"seat_class":   class,
			"user_id":      strconv.FormatInt(userID, 10),
		},
	})
	paymentLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(pctx.Err(), context.DeadlineExceeded) {
			if ctx.Err() == nil {
				return nil, domain.ErrPaymentTimeout
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("payment authorization failed: %w", err)
	}
	if !auth.Succeeded() {
		s.loggerf("level=info msg=\"payment declined\" user_id=%d train_id=%d authorization_id=%s status=%s", userID, train.ID, auth.ID, auth.Status)
		return nil, ErrPaymentDeclined
	}
	return auth, nil
}

// void releases an authorization whose booking never committed.
func (s *Service) void(ctx context.Context, authorizationID string) {
	vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PaymentTimeout)
	defer cancel()
	if err := s.gateway.Void(vctx, authorizationID); err != nil {
		s.loggerf("level=error msg=\"failed to void payment authorization\" authorization_id=%s err=%v", authorizationID, err)
		return
	}
	s.loggerf("level=info msg=\"payment authorization voided\" authorization_id=%s", authorizationID)
}

func (s *Service) commitBooking(ctx context.Context, userID, trainID int64, class string, req CreateBookingRequest, amount decimal.Decimal, auth *payment.Authorization) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.withRetries(ctx, "create", func() error {
		return s.ledger.Transaction(ctx, func(tx repository.LedgerTx) error {
			t, err := tx.LockTrain(trainID, false)
			if err != nil {
				return fmt.Errorf("train %d: %w", trainID, err)
			}
			if t.AvailableSeats <= 0 {
				return domain.ErrNoAvailability
			}

			taken, err := tx.SeatTaken(trainID, class, req.SeatNumber)
			if err != nil {
				return err
			}
			if taken {
				return ErrSeatTaken
			}

			b := &domain.Booking{
				Reference:     uuid.NewString(),
				TrainID:       trainID,
				UserID:        userID,
				PassengerName: req.PassengerName,
				PassengerAge:  req.PassengerAge,
				SeatNumber:    req.SeatNumber,
				SeatClass:     class,
				Fare:          amount,
				Status:        domain.BookingConfirmed,
				BookedAt:      s.now().UTC(),
			}
			if auth != nil {
				id := auth.ID
				b.PaymentAuthorizationID = &id
			}
			if err := tx.InsertBooking(b); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return ErrSeatTaken
				}
				return err
			}

			ok, err := tx.DecrementAvailable(t)
			if err != nil {
				return err
			}
			if !ok {
				return errVersionConflict
			}
			b.Train = t
			booking = b
			return nil
		})
	})
	return booking, err
}

func (s *Service) CancelBooking(ctx context.Context, bookingID, userID int64) (b *domain.Booking, err error) {
	defer func() { observe("cancel", err) }()

	existing, err := s.ledger.GetForUser(ctx, bookingID, userID)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, err)
	}
	if existing.IsCancelled() {
		return nil, domain.ErrAlreadyCancelled
	}

	var cancelled *domain.Booking
	err = s.withRetries(ctx, "cancel", func() error {
		return s.ledger.Transaction(ctx, func(tx repository.LedgerTx) error {
			b, err := tx.LockBookingForUser(bookingID, userID)
			if err != nil {
				return fmt.Errorf("booking %d: %w", bookingID, err)
			}
			if b.IsCancelled() {
				return domain.ErrAlreadyCancelled
			}

			now := s.now().UTC()
			ok, err := tx.MarkCancelled(b.ID, now)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrAlreadyCancelled
			}

			// The train may have been deleted since; its counter still has to move.
			t, err := tx.LockTrain(b.TrainID, true)
			if err != nil {
				return fmt.Errorf("train %d: %w", b.TrainID, err)
			}
			ok, err = tx.IncrementAvailable(t)
			if err != nil {
				return err
			}
			if !ok {
				if t.AvailableSeats < t.TotalSeats {
					return errVersionConflict
				}
				s.loggerf("level=warn msg=\"seat release clamped at capacity\" train_id=%d booking_id=%d total=%d", t.ID, b.ID, t.TotalSeats)
			}

			b.Status = domain.BookingCancelled
			b.CancelledAt = &now
			b.Train = t
			cancelled = b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.loggerf("level=info msg=\"booking cancelled\" booking_id=%d user_id=%d train_id=%d available=%d",
		cancelled.ID, userID, cancelled.TrainID, cancelled.Train.AvailableSeats)
	s.afterCommit(notification.TypeBookingCancelled, userID, cancelled)
	return cancelled, nil
}

func (s *Service) ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.ledger.ListByUser(ctx, userID)
}

// GetBooking only returns bookings owned by userID; anything else is not found.
func (s *Service) GetBooking(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	b, err := s.ledger.GetForUser(ctx, bookingID, userID)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, err)
	}
	return b, nil
}

// ReconcileTrain recomputes available seats from confirmed bookings.
func (s *Service) ReconcileTrain(ctx context.Context, trainID int64) (res *ReconcileResult, err error) {
	defer func() { observe("reconcile", err) }()

	var total int
	var version int64
	err = s.withRetries(ctx, "reconcile", func() error {
		return s.ledger.Transaction(ctx, func(tx repository.LedgerTx) error {
			t, err := tx.LockTrain(trainID, true)
			if err != nil {
				return fmt.Errorf("train %d: %w", trainID, err)
			}
			confirmed, err := tx.CountConfirmed(trainID)
			if err != nil {
				return err
			}

			want := t.TotalSeats - int(confirmed)
			if want < 0 {
				s.loggerf("level=error msg=\"train oversold\" train_id=%d total=%d confirmed=%d", t.ID, t.TotalSeats, confirmed)
				want = 0
			}
			res = &ReconcileResult{TrainID: t.ID, Confirmed: int(confirmed), Before: t.AvailableSeats, After: want}
			total = t.TotalSeats
			if want == t.AvailableSeats {
				return nil
			}
			ok, err := tx.SetAvailable(t, want)
			if err != nil {
				return err
			}
			if !ok {
				return errVersionConflict
			}
			res.Changed = true
			version = t.Version
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if res.Changed {
		s.loggerf("level=warn msg=\"train availability repaired\" train_id=%d before=%d after=%d confirmed=%d",
			res.TrainID, res.Before, res.After, res.Confirmed)
		s.publish(res.TrainID, version, res.After, total)
	}
	return res, nil
}

// ReconcileAll walks every train, including deleted ones. Failures on one train
// do not stop the pass.
func (s *Service) ReconcileAll(ctx context.Context) ([]ReconcileResult, error) {
	ids, err := s.ledger.TrainIDs(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]ReconcileResult, 0, len(ids))
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.ReconcileTrain(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, *res)
	}
	return results, errors.Join(errs...)
}

// withRetries reruns fn while it reports a version conflict.
func (s *Service) withRetries(ctx context.Context, operation string, fn func() error) error {
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		err := fn()
		if !errors.Is(err, errVersionConflict) {
			return err
		}
		ledgerRetries.WithLabelValues(operation).Inc()
		s.loggerf("level=warn msg=\"ledger version conflict\" operation=%s attempt=%d", operation, attempt)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return domain.ErrConcurrencyConflict
}

func (s *Service) afterCommit(eventType string, userID int64, b *domain.Booking) {
	if b.Train != nil {
		s.publish(b.TrainID, b.Train.Version, b.Train.AvailableSeats, b.Train.TotalSeats)
	}
	if s.sink == nil || s.dispatcher == nil {
		return
	}

	details := notification.BookingDetailsFrom(b)
	train := notification.TrainDetailsFrom(b.Train)
	s.dispatcher.Go(eventType, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("lookup user %d: %w", userID, err)
		}
		if eventType == notification.TypeBookingCancelled {
			return s.sink.NotifyBookingCancelled(ctx, user.Email, details, train)
		}
		return s.sink.NotifyBookingConfirmed(ctx, user.Email, details, train)
	})
}

// publish hands the post-commit counts to live subscribers. Deliveries may run
// out of order on the dispatcher; the version lets the hub drop stale ones.
func (s *Service) publish(trainID, version int64, available, total int) {
	if s.live == nil {
		return
	}
	if s.dispatcher == nil {
		s.live.PublishAvailability(trainID, version, available, total)
		return
	}
	s.dispatcher.Go("live.availability", func(context.Context) error {
		s.live.PublishAvailability(trainID, version, available, total)
		return nil
	})
}
