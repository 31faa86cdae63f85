package errors

import "errors"

var (
	ErrNotFound = errors.New("business hours not found")

	ErrInvalidDay = errors.New("invalid day of week")
)
