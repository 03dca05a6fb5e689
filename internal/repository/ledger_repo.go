package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"railbook/internal/domain"
)

// LedgerRepository owns every write that touches seat inventory. All such writes
// go through Transaction so the booking row and the train counter move together.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// LedgerTx is the set of operations available inside a ledger transaction.
type LedgerTx interface {
	LockTrain(id int64, includeDeleted bool) (*domain.Train, error)
	SeatTaken(trainID int64, class, seat string) (bool, error)
	InsertBooking(b *domain.Booking) error
	DecrementAvailable(t *domain.Train) (bool, error)
	IncrementAvailable(t *domain.Train) (bool, error)
	LockBookingForUser(id, userID int64) (*domain.Booking, error)
	MarkCancelled(id int64, at time.Time) (bool, error)
	CountConfirmed(trainID int64) (int64, error)
	SetAvailable(t *domain.Train, available int) (bool, error)
}

func (r *LedgerRepository) Transaction(ctx context.Context, fn func(tx LedgerTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{tx: tx})
	})
}

// ListByUser returns the user's bookings newest first, with trains preloaded even
// if they were deleted since.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	bookings := []domain.Booking{}
	err := r.db.WithContext(ctx).
		Preload("Train", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ?", userID).
		Order("booked_at DESC, id DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *LedgerRepository) GetForUser(ctx context.Context, id, userID int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).
		Preload("Train", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&b).Error
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// TrainIDs lists every train including soft-deleted ones, for reconciliation.
func (r *LedgerRepository) TrainIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).Unscoped().Model(&domain.Train{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

type ledgerTx struct {
	tx *gorm.DB
}

func (l *ledgerTx) LockTrain(id int64, includeDeleted bool) (*domain.Train, error) {
	q := l.tx
	if includeDeleted {
		q = q.Unscoped()
	}
	var t domain.Train
	err := q.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (l *ledgerTx) SeatTaken(trainID int64, class, seat string) (bool, error) {
	var count int64
	err := l.tx.Model(&domain.Booking{}).
		Where("train_id = ? AND seat_class = ? AND seat_number = ? AND status = ?",
			trainID, class, seat, domain.BookingConfirmed).
		Count(&count).Error
	return count > 0, err
}

func (l *ledgerTx) InsertBooking(b *domain.Booking) error {
	return translate(l.tx.Create(b).Error)
}

// DecrementAvailable takes one seat if the row still carries t.Version and has a
// seat left. A false result means another writer got there first.
func (l *ledgerTx) DecrementAvailable(t *domain.Train) (bool, error) {
	res := l.tx.Unscoped().Model(&domain.Train{}).
		Where("id = ? AND version = ? AND available_seats > 0", t.ID, t.Version).
		Updates(map[string]any{
			"available_seats": gorm.Expr("available_seats - 1"),
			"version":         gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	t.AvailableSeats--
	t.Version++
	return true, nil
}

// IncrementAvailable returns one seat, never past total_seats.
func (l *ledgerTx) IncrementAvailable(t *domain.Train) (bool, error) {
	res := l.tx.Unscoped().Model(&domain.Train{}).
		Where("id = ? AND version = ? AND available_seats < total_seats", t.ID, t.Version).
		Updates(map[string]any{
			"available_seats": gorm.Expr("available_seats + 1"),
			"version":         gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	t.AvailableSeats++
	t.Version++
	return true, nil
}

func (l *ledgerTx) LockBookingForUser(id, userID int64) (*domain.Booking, error) {
	var b domain.Booking
	err := l.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&b).Error
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// MarkCancelled flips a confirmed booking. It reports false if the booking was
// not confirmed anymore.
func (l *ledgerTx) MarkCancelled(id int64, at time.Time) (bool, error) {
	res := l.tx.Model(&domain.Booking{}).
		Where("id = ? AND status = ?", id, domain.BookingConfirmed).
		Updates(map[string]any{
			"status":       domain.BookingCancelled,
			"cancelled_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (l *ledgerTx) CountConfirmed(trainID int64) (int64, error) {
	var count int64
	err := l.tx.Model(&domain.Booking{}).
		Where("train_id = ? AND status = ?", trainID, domain.BookingConfirmed).
		Count(&count).Error
	return count, err
}

func (l *ledgerTx) SetAvailable(t *domain.Train, available int) (bool, error) {
	res := l.tx.Unscoped().Model(&domain.Train{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(map[string]any{
			"available_seats": available,
			"version":         gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	t.AvailableSeats = available
	t.Version++
	return true, nil
}
