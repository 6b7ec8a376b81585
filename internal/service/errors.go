package service

import (
	"errors"
	"fmt"
)

// ErrEmptyOrder is returned when a place-order command carries no lines.
// It is rejected before any store access happens.
var ErrEmptyOrder = errors.New("order must have at least one line item")

// ItemNotFoundError reports a line referencing a product that is not part of
// the live catalog.
type ItemNotFoundError struct {
	ProductID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError reports a line (or set of duplicate lines, whose
// quantities sum) exceeding the available stock of a product.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (available: %d, requested: %d)",
		e.ProductID, e.Available, e.Requested)
}

// ExecutionError wraps any fault raised during the atomic write sequence —
// constraint violation, concurrency conflict, connectivity fault or
// cancellation. The transaction has already been rolled back when this
// surfaces; nothing of the attempt is observable.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("order execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
