package auth

import (
	"context"
	"time"

	"railbook/internal/domain"
)

// UserRepository is the subset of user storage auth needs.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByLogin(ctx context.Context, identifier string) (*domain.User, error)
	IsTaken(ctx context.Context, username, email string, excludeID int64) (bool, error)
	UpdateProfile(ctx context.Context, id int64, username, email string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	RecordLoginFailure(ctx context.Context, id int64, limit int, until time.Time) (bool, error)
	ResetLoginFailures(ctx context.Context, id int64) error
}

type CodeRepository interface {
	Replace(ctx context.Context, c *domain.OneTimeCode) error
	Get(ctx context.Context, userID int64, purpose domain.CodePurpose) (*domain.OneTimeCode, error)
	Consume(ctx context.Context, id int64) (bool, error)
	RecordFailure(ctx context.Context, id int64) (int, error)
}

type tokenIssuer interface {
	GenerateTokenWithTTL(userID int64, role string, ttl time.Duration) (string, error)
}
