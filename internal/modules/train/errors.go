package train

import (
	"fmt"

	"railbook/internal/domain"
)

var (
	ErrDuplicateNumber = fmt.Errorf("%w: train number already exists", domain.ErrConflict)
	ErrSeatsImmutable  = domain.Invalid("total_seats", "cannot be changed after creation")
)
