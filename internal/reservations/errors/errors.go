package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	// ErrStatusChanged means a guarded write found the reservation in a
	// different status than the caller read.
	ErrStatusChanged = errors.New("reservation status changed concurrently")

	ErrLockHeld = errors.New("reservation lock held by another request")
)
