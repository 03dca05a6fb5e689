package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"railbook/internal/domain"
)

// OneTimeCodeRepository provides DB access for mailed verification codes.
type OneTimeCodeRepository struct {
	db *gorm.DB
}

func NewOneTimeCodeRepository(db *gorm.DB) *OneTimeCodeRepository {
	return &OneTimeCodeRepository{db: db}
}

// Replace stores c as the only live code for its user and purpose.
func (r *OneTimeCodeRepository) Replace(ctx context.Context, c *domain.OneTimeCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND purpose = ?", c.UserID, c.Purpose).
			Delete(&domain.OneTimeCode{}).Error; err != nil {
			return err
		}
		return tx.Create(c).Error
	})
}

func (r *OneTimeCodeRepository) Get(ctx context.Context, userID int64, purpose domain.CodePurpose) (*domain.OneTimeCode, error) {
	var c domain.OneTimeCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// Consume deletes the code and reports whether this call was the one that did it.
func (r *OneTimeCodeRepository) Consume(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&domain.OneTimeCode{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OneTimeCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&domain.OneTimeCode{})
	return res.RowsAffected, res.Error
}

// RecordFailure counts a wrong guess against the code and returns the total so far.
func (r *OneTimeCodeRepository) RecordFailure(ctx context.Context, id int64) (int, error) {
	res := r.db.WithContext(ctx).Model(&domain.OneTimeCode{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrNotFound
	}
	var attempts []int
	if err := r.db.WithContext(ctx).Model(&domain.OneTimeCode{}).
		Where("id = ?", id).
		Pluck("attempts", &attempts).Error; err != nil {
		return 0, err
	}
	if len(attempts) == 0 {
		return 0, domain.ErrNotFound
	}
	return attempts[0], nil
}
