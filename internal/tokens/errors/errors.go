package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation token not found")
)
