package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusDeclined  Status = "declined"
	StatusPending   Status = "pending"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type AuthorizeRequest struct {
	Token    string
	Amount   decimal.Decimal
	Currency string
	UserID   int64
	TrainID  int64
	Metadata map[string]string
}

type Authorization struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// Succeeded is the only state that lets a booking proceed.
func (a *Authorization) Succeeded() bool {
	return a != nil && a.Status == StatusSucceeded
}

// Gateway authorizes and voids card holds. Implementations must honour ctx
// cancellation.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error)
	Void(ctx context.Context, authorizationID string) error
}
