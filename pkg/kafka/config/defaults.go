package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	// Notifications are small and infrequent, so batches flush almost
	// immediately and a write gives up well before the HTTP request does.
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerWriteTimeout = 5 * time.Second
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	DefaultDLQTopic         = ""
	DefaultEnableMiddleware = true
)
