package admin

import (
	"context"
	"time"

	"railbook/internal/domain"
	"railbook/internal/repository"
)

type Store interface {
	Stats(ctx context.Context, from, to time.Time) (*repository.Stats, error)
	ListUsers(ctx context.Context, f repository.UserFilter, limit, offset int) ([]domain.User, int64, error)
	Manifest(ctx context.Context, trainID int64) (*domain.Train, []domain.Booking, error)
}
