package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by every module. Module errors wrap one of these so handlers
// can map them to a status code with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrNoAvailability      = errors.New("no seats available")
	ErrPaymentRequired     = errors.New("payment required")
	ErrPaymentTimeout      = errors.New("payment gateway timeout")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrAlreadyCancelled    = errors.New("booking already cancelled")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrTooManyRequests     = errors.New("too many requests")
)

// Invalid reports a user-correctable problem with a single field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}
