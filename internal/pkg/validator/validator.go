package validator

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"railbook/internal/domain"
)

var validate *validator.Validate

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)
	seatPattern     = regexp.MustCompile(`^[A-Za-z0-9-]{1,16}$`)
)

// DTOs are shared with gin, so the same `binding` tags drive both.
func init() {
	validate = validator.New()
	validate.SetTagName("binding")
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// Check is Validate folded into a domain.ErrValidation.
func Check(v interface{}) error {
	fields := Validate(v)
	if len(fields) == 0 {
		return nil
	}
	parts := make([]string, 0, len(fields))
	for field, tag := range fields {
		parts = append(parts, fmt.Sprintf("%s failed %s", field, tag))
	}
	sort.Strings(parts)
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(parts, ", "))
}

func ValidUsername(s string) bool { return usernamePattern.MatchString(s) }

func ValidSeatLabel(s string) bool { return seatPattern.MatchString(s) }

// StrongPassword requires 8+ chars with upper, lower, digit and one of @$!%*?#&.
func StrongPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("@$!%*?#&", r):
			special = true
		}
	}
	return upper && lower && digit && special
}
