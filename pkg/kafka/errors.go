package kafka

import "errors"

var (
	ErrNilConfig      = errors.New("kafka config cannot be nil")
	ErrNoBrokers      = errors.New("at least one kafka broker is required")
	ErrEmptyTopic     = errors.New("kafka topic cannot be empty")
	ErrProducerClosed = errors.New("kafka producer is closed")

	// Message construction and publish-time checks.
	ErrInvalidMessage = errors.New("invalid event message")
	ErrEmptyKey       = errors.New("event key cannot be empty")
	ErrEmptyValue     = errors.New("event payload cannot be empty")
)
