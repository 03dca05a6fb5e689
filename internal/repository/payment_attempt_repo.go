package repository

import (
	"context"

	"gorm.io/gorm"

	"railbook/internal/domain"
)

type PaymentAttemptRepository struct {
	db *gorm.DB
}

func NewPaymentAttemptRepository(db *gorm.DB) *PaymentAttemptRepository {
	return &PaymentAttemptRepository{db: db}
}

func (r *PaymentAttemptRepository) Create(ctx context.Context, a *domain.PaymentAttempt) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *PaymentAttemptRepository) MarkVoided(ctx context.Context, authorizationID string) error {
	return r.db.WithContext(ctx).Model(&domain.PaymentAttempt{}).
		Where("authorization_id = ?", authorizationID).
		Update("status", domain.PaymentAttemptVoided).Error
}

func (r *PaymentAttemptRepository) ListByUser(ctx context.Context, userID int64) ([]domain.PaymentAttempt, error) {
	attempts := []domain.PaymentAttempt{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&attempts).Error
	return attempts, err
}
