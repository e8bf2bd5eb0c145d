package service

import (
	"errors"
	"fmt"

	"go-warehouse-ws/pkg/validator"

	"gorm.io/gorm"
)

// Error kinds. Concrete errors wrap one of these so callers can use errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("unauthorized")
)

var (
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)

	ErrDuplicateOrderNumber = fmt.Errorf("%w: order with this number already exists", ErrConflict)
	ErrDuplicateSKU         = fmt.Errorf("%w: product with this SKU already exists", ErrConflict)
	ErrDuplicateEmail       = fmt.Errorf("%w: user with this email already exists", ErrConflict)
	ErrInsufficientStock    = fmt.Errorf("%w: insufficient stock remaining", ErrConflict)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrSessionExpired     = fmt.Errorf("%w: session expired (logged in on another device)", ErrUnauthorized)
)

// validationError converts the first struct-tag failure into an ErrValidation.
func validationError(data interface{}) error {
	if errs := validator.ValidateStruct(data); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, errs[0].Error())
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound maps gorm's missing-row error onto the domain error and passes
// everything else through.
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
