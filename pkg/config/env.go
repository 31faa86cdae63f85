package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"
	EnvEnvFile  = "ENV_FILE"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvTimeZone                     = "TIME_ZONE"
	EnvDefaultSlotDurationMinutes   = "DEFAULT_SLOT_DURATION_MINUTES"
	EnvDefaultAdvanceBookingMinutes = "DEFAULT_ADVANCE_BOOKING_MINUTES"
	EnvDefaultBufferMinutes         = "DEFAULT_BUFFER_MINUTES"
	EnvDefaultMaxPartySize          = "DEFAULT_MAX_PARTY_SIZE"
	EnvBusinessHoursCacheTTL        = "BUSINESS_HOURS_CACHE_TTL"
	EnvReservationLockTTL           = "RESERVATION_LOCK_TTL"
	EnvTokenTTL                     = "TOKEN_TTL"
	EnvDefaultReservationStatus     = "DEFAULT_RESERVATION_STATUS"
	EnvEnableContiguityCheck        = "ENABLE_CONTIGUITY_CHECK"

	EnvNotifierBackend   = "NOTIFIER_BACKEND"
	EnvNotificationTopic = "NOTIFICATION_TOPIC"
	EnvRabbitMQURL       = "RABBITMQ_URL"
	EnvNotifyTimeout     = "NOTIFY_TIMEOUT"

	EnvPhoneRegions = "PHONE_REGIONS"
)
