package booking

import (
	"context"

	"github.com/shopspring/decimal"

	"railbook/internal/domain"
	"railbook/internal/repository"
)

// LedgerStore is the transactional storage behind the ledger.
type LedgerStore interface {
	Transaction(ctx context.Context, fn func(tx repository.LedgerTx) error) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	GetForUser(ctx context.Context, id, userID int64) (*domain.Booking, error)
	TrainIDs(ctx context.Context) ([]int64, error)
}

type TrainReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Train, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type FareTable interface {
	Normalize(class string) (string, error)
	Fare(base decimal.Decimal, class string) (decimal.Decimal, error)
}

// Dispatcher runs post-commit work in the background.
type Dispatcher interface {
	Go(name string, fn func(ctx context.Context) error)
}

type AvailabilityPublisher interface {
	PublishAvailability(trainID, version int64, available, total int) int
}
