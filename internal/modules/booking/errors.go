package booking

import (
	"errors"
	"fmt"

	"railbook/internal/domain"
)

var (
	ErrSeatTaken       = fmt.Errorf("%w: seat already booked", domain.ErrConflict)
	ErrPaymentDeclined = fmt.Errorf("%w: payment declined", domain.ErrPaymentRequired)
	ErrPaymentToken    = fmt.Errorf("%w: payment_token is required", domain.ErrPaymentRequired)

	errVersionConflict = errors.New("train version changed")
)
