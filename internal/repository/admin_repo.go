package repository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"railbook/internal/domain"
)

// AdminRepository serves the read-only back-office queries.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

type Stats struct {
	TotalUsers        int64
	ActiveTrains      int64
	ConfirmedBookings int64
	CancelledBookings int64
	BookingsInWindow  int64
	Revenue           decimal.Decimal
}

type UserFilter struct {
	Role  string
	Query string
}

// Stats counts bookings made in [from, to) separately from the all-time totals.
func (r *AdminRepository) Stats(ctx context.Context, from, to time.Time) (*Stats, error) {
	db := r.db.WithContext(ctx)
	var s Stats

	if err := db.Model(&domain.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Train{}).Count(&s.ActiveTrains).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Booking{}).Where("status = ?", domain.BookingConfirmed).
		Count(&s.ConfirmedBookings).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Booking{}).Where("status = ?", domain.BookingCancelled).
		Count(&s.CancelledBookings).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Booking{}).
		Where("booked_at >= ? AND booked_at < ?", from.UTC(), to.UTC()).
		Count(&s.BookingsInWindow).Error; err != nil {
		return nil, err
	}

	// Summed in Go so the decimal scale survives every driver.
	var fares []decimal.Decimal
	if err := db.Model(&domain.Booking{}).Where("status = ?", domain.BookingConfirmed).
		Pluck("fare", &fares).Error; err != nil {
		return nil, err
	}
	s.Revenue = decimal.Zero
	for _, f := range fares {
		s.Revenue = s.Revenue.Add(f)
	}
	return &s, nil
}

func (r *AdminRepository) ListUsers(ctx context.Context, f UserFilter, limit, offset int) ([]domain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{})
	if role := strings.TrimSpace(f.Role); role != "" {
		q = q.Where("role = ?", role)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(username) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	return users, total, err
}

// Manifest lists confirmed passengers of a train, deleted trains included.
func (r *AdminRepository) Manifest(ctx context.Context, trainID int64) (*domain.Train, []domain.Booking, error) {
	var t domain.Train
	if err := r.db.WithContext(ctx).Unscoped().First(&t, trainID).Error; err != nil {
		return nil, nil, translate(err)
	}
	var bookings []domain.Booking
	err := r.db.WithContext(ctx).
		Where("train_id = ? AND status = ?", trainID, domain.BookingConfirmed).
		Order("seat_class ASC").Order("seat_number ASC").
		Find(&bookings).Error
	return &t, bookings, err
}
