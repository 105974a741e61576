package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound        = errors.New("product not found")
	ErrHoldNotFound           = errors.New("hold not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrHoldExpired            = errors.New("hold has expired or is no longer active")
	ErrHoldAlreadyUsed        = errors.New("hold has already been used to create an order")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency conflict")
	ErrInvalidID              = errors.New("invalid id")

	// ErrTransientStore marks deadlocks and lock-wait timeouts; operations
	// wrapping whole transactions retry on it with bounded backoff.
	ErrTransientStore = errors.New("transient store failure")
)

// InsufficientStockError carries the quantities observed under the product
// row lock. The message format is part of the API contract.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
