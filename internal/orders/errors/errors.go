package errors

import "errors"

var (
	ErrNotFound = errors.New("order not found")

	ErrInvalidID = errors.New("invalid order ID format")

	ErrStatusChanged = errors.New("order status changed concurrently")

	ErrMenuItemNotFound = errors.New("menu item not found")

	// ErrInsufficientStock means a conditional decrement matched nothing.
	ErrInsufficientStock = errors.New("insufficient stock")
)
