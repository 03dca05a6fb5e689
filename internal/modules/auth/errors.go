package auth

import (
	"errors"
	"fmt"

	"railbook/internal/domain"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	ErrUserExists         = fmt.Errorf("%w: username or email already exists", domain.ErrConflict)
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least 8 characters and include upper and lower case letters, a digit and one of @$!%%*?#&", domain.ErrValidation)
	ErrPasswordMismatch   = fmt.Errorf("%w: new passwords do not match", domain.ErrValidation)
	ErrWrongPassword      = fmt.Errorf("%w: current password is incorrect", domain.ErrValidation)
	ErrInvalidCode        = fmt.Errorf("%w: invalid code", domain.ErrValidation)
	ErrCodeExpired        = fmt.Errorf("%w: code expired", domain.ErrValidation)
	ErrNothingToChange    = fmt.Errorf("%w: nothing to change", domain.ErrValidation)
	ErrAccountLocked      = fmt.Errorf("%w: account temporarily locked after repeated failed logins", domain.ErrTooManyRequests)
	ErrTooManyAttempts    = fmt.Errorf("%w: too many wrong codes, request a new one", domain.ErrTooManyRequests)
	ErrResendTooSoon      = fmt.Errorf("%w: a code was sent recently, try again later", domain.ErrTooManyRequests)
)

// errorCode gives auth failures a more specific code than their kind.
func errorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS", true
	case errors.Is(err, ErrUserExists):
		return "USER_EXISTS", true
	case errors.Is(err, ErrWeakPassword):
		return "WEAK_PASSWORD", true
	case errors.Is(err, ErrInvalidCode):
		return "INVALID_CODE", true
	case errors.Is(err, ErrCodeExpired):
		return "CODE_EXPIRED", true
	case errors.Is(err, ErrAccountLocked):
		return "ACCOUNT_LOCKED", true
	case errors.Is(err, ErrTooManyAttempts):
		return "TOO_MANY_ATTEMPTS", true
	case errors.Is(err, ErrResendTooSoon):
		return "RATE_LIMIT_EXCEEDED", true
	}
	return "", false
}
