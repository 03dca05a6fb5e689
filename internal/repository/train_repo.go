package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"railbook/internal/domain"
)

type TrainRepository struct {
	db *gorm.DB
}

func NewTrainRepository(db *gorm.DB) *TrainRepository {
	return &TrainRepository{db: db}
}

func (r *TrainRepository) Create(ctx context.Context, t *domain.Train) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

// GetByID excludes soft-deleted trains.
func (r *TrainRepository) GetByID(ctx context.Context, id int64) (*domain.Train, error) {
	var t domain.Train
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TrainRepository) List(ctx context.Context) ([]domain.Train, error) {
	trains := []domain.Train{}
	err := r.db.WithContext(ctx).
		Order("departure_time ASC, id ASC").
		Find(&trains).Error
	return trains, err
}

// Search matches source and destination case-insensitively and departure in [from, to).
func (r *TrainRepository) Search(ctx context.Context, source, destination string, from, to time.Time) ([]domain.Train, error) {
	trains := []domain.Train{}
	err := r.db.WithContext(ctx).
		Where("LOWER(source) = ? AND LOWER(destination) = ?",
			strings.ToLower(strings.TrimSpace(source)),
			strings.ToLower(strings.TrimSpace(destination))).
		Where("departure_time >= ? AND departure_time < ?", from.UTC(), to.UTC()).
		Order("departure_time ASC, id ASC").
		Find(&trains).Error
	return trains, err
}

func (r *TrainRepository) NumberExists(ctx context.Context, number string, excludeID int64) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Unscoped().Model(&domain.Train{}).
		Where("train_number = ?", strings.TrimSpace(number))
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update writes the given columns and bumps the version. Seat counters are never
// part of updates; they belong to the ledger.
func (r *TrainRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	delete(updates, "total_seats")
	delete(updates, "available_seats")
	updates["version"] = gorm.Expr("version + 1")

	res := r.db.WithContext(ctx).Model(&domain.Train{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TrainRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Train{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// OccupiedSeats lists labels held by confirmed bookings for one train and class.
func (r *TrainRepository) OccupiedSeats(ctx context.Context, trainID int64, class string) ([]string, error) {
	seats := []string{}
	err := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("train_id = ? AND seat_class = ? AND status = ?", trainID, class, domain.BookingConfirmed).
		Order("seat_number ASC").
		Pluck("seat_number", &seats).Error
	return seats, err
}
