package train

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"railbook/internal/domain"
	"railbook/internal/modules/fare"
)

type trainRepo interface {
	Create(ctx context.Context, t *domain.Train) error
	GetByID(ctx context.Context, id int64) (*domain.Train, error)
	List(ctx context.Context) ([]domain.Train, error)
	Search(ctx context.Context, source, destination string, from, to time.Time) ([]domain.Train, error)
	NumberExists(ctx context.Context, number string, excludeID int64) (bool, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	OccupiedSeats(ctx context.Context, trainID int64, class string) ([]string, error)
}

type searchCache interface {
	Get(ctx context.Context, source, destination, date string) ([]domain.Train, int64, bool, error)
	Set(ctx context.Context, gen int64, source, destination, date string, trains []domain.Train) error
	Invalidate(ctx context.Context) error
}

type fareTable interface {
	Normalize(class string) (string, error)
	Quote(base decimal.Decimal) []fare.ClassFare
}
