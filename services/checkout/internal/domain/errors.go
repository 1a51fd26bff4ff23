package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
	ErrInactive           = errors.New("inactive")            // 409
	ErrExternalDependency = errors.New("external dependency") // 502
	ErrInternal           = errors.New("internal")            // 500
)

var (
	ErrLocationNotFound   = fmt.Errorf("location not found: %w", ErrNotFound)
	ErrInvalidCode        = fmt.Errorf("invalid discount code: %w", ErrNotFound)
	ErrExpired            = fmt.Errorf("discount code expired: %w", ErrConflict)
	ErrUsageLimitExceeded = fmt.Errorf("discount usage limit exceeded: %w", ErrConflict)
	ErrMinimumNotMet      = fmt.Errorf("minimum purchase not met: %w", ErrConflict)
	ErrInvalidTransition  = fmt.Errorf("invalid status transition: %w", ErrConflict)
	ErrEmptyCart          = fmt.Errorf("cart is empty: %w", ErrValidation)
	ErrInsufficientStock  = fmt.Errorf("insufficient stock: %w", ErrConflict)
)

type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: only %d left, %d requested", e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock || target == ErrConflict
}
