package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tablebook/pkg/client"
	"tablebook/pkg/logger"

	"github.com/joho/godotenv"
)

var reservationStatuses = map[string]bool{"PENDING": true, "CONFIRMED": true}

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	TimeZone string
	Location *time.Location

	DefaultSlotDurationMinutes   int
	DefaultAdvanceBookingMinutes int
	DefaultBufferMinutes         int
	DefaultMaxPartySize          int
	BusinessHoursCacheTTL        time.Duration
	ReservationLockTTL           time.Duration
	TokenTTL                     time.Duration
	DefaultReservationStatus     string
	EnableContiguityCheck        bool

	NotifierBackend   string
	NotificationTopic string
	RabbitMQURL       string
	NotifyTimeout     time.Duration

	PhoneRegions []string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	envErr := loadEnvFile(getEnvStr(EnvEnvFile, DefaultEnvFile))

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		TimeZone: getEnvStr(EnvTimeZone, DefaultTimeZone),

		DefaultSlotDurationMinutes:   getEnvNum(EnvDefaultSlotDurationMinutes, DefaultDefaultSlotDurationMinutes),
		DefaultAdvanceBookingMinutes: getEnvNum(EnvDefaultAdvanceBookingMinutes, DefaultDefaultAdvanceBookingMinutes),
		DefaultBufferMinutes:         getEnvNum(EnvDefaultBufferMinutes, DefaultDefaultBufferMinutes),
		DefaultMaxPartySize:          getEnvNum(EnvDefaultMaxPartySize, DefaultDefaultMaxPartySize),
		BusinessHoursCacheTTL:        getEnvDuration(EnvBusinessHoursCacheTTL, DefaultBusinessHoursCacheTTL),
		ReservationLockTTL:           getEnvDuration(EnvReservationLockTTL, DefaultReservationLockTTL),
		TokenTTL:                     getEnvDuration(EnvTokenTTL, DefaultTokenTTL),
		DefaultReservationStatus:     strings.ToUpper(getEnvStr(EnvDefaultReservationStatus, DefaultDefaultReservationStatus)),
		EnableContiguityCheck:        getEnvBool(EnvEnableContiguityCheck, DefaultEnableContiguityCheck),

		NotifierBackend:   strings.ToLower(getEnvStr(EnvNotifierBackend, DefaultNotifierBackend)),
		NotificationTopic: getEnvStr(EnvNotificationTopic, DefaultNotificationTopic),
		RabbitMQURL:       getEnvStr(EnvRabbitMQURL, DefaultRabbitMQURL),
		NotifyTimeout:     getEnvDuration(EnvNotifyTimeout, DefaultNotifyTimeout),

		PhoneRegions: splitList(getEnvStr(EnvPhoneRegions, DefaultPhoneRegions)),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if envErr != nil {
		cfg.Log.Warn("Failed to load env file", "error", envErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// Validate checks every setting, resolves the time zone and returns all
// problems at once.
func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, "MongoURI must start with 'mongodb://' or 'mongodb+srv://'")
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"BusinessHoursCacheTTL", cfg.BusinessHoursCacheTTL},
		{"ReservationLockTTL", cfg.ReservationLockTTL},
		{"TokenTTL", cfg.TokenTTL},
		{"NotifyTimeout", cfg.NotifyTimeout},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("TimeZone must be an IANA zone name, got: %s", cfg.TimeZone))
	} else {
		cfg.Location = loc
	}

	if cfg.DefaultSlotDurationMinutes < 5 || cfg.DefaultSlotDurationMinutes > 240 {
		errs = append(errs, fmt.Sprintf("DefaultSlotDurationMinutes must be between 5 and 240, got: %d", cfg.DefaultSlotDurationMinutes))
	}
	if cfg.DefaultAdvanceBookingMinutes < 0 {
		errs = append(errs, fmt.Sprintf("DefaultAdvanceBookingMinutes cannot be negative, got: %d", cfg.DefaultAdvanceBookingMinutes))
	}
	if cfg.DefaultBufferMinutes < 0 {
		errs = append(errs, fmt.Sprintf("DefaultBufferMinutes cannot be negative, got: %d", cfg.DefaultBufferMinutes))
	}
	if cfg.DefaultMaxPartySize <= 0 {
		errs = append(errs, fmt.Sprintf("DefaultMaxPartySize must be positive, got: %d", cfg.DefaultMaxPartySize))
	}
	if !reservationStatuses[cfg.DefaultReservationStatus] {
		errs = append(errs, fmt.Sprintf("DefaultReservationStatus must be PENDING or CONFIRMED, got: %s", cfg.DefaultReservationStatus))
	}

	switch cfg.NotifierBackend {
	case NotifierLog, NotifierKafka:
	case NotifierRabbitMQ:
		if cfg.RabbitMQURL == "" {
			errs = append(errs, "RabbitMQURL cannot be empty when NotifierBackend is rabbitmq")
		}
	default:
		errs = append(errs, fmt.Sprintf("NotifierBackend must be one of [log, kafka, rabbitmq], got: %s", cfg.NotifierBackend))
	}
	if cfg.NotifierBackend != NotifierLog && cfg.NotificationTopic == "" {
		errs = append(errs, "NotificationTopic cannot be empty")
	}

	if len(cfg.PhoneRegions) == 0 {
		errs = append(errs, "PhoneRegions must list at least one region")
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, e := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return errors.New(errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"time_zone", cfg.TimeZone,
		"default_slot_duration_minutes", cfg.DefaultSlotDurationMinutes,
		"default_advance_booking_minutes", cfg.DefaultAdvanceBookingMinutes,
		"default_buffer_minutes", cfg.DefaultBufferMinutes,
		"default_max_party_size", cfg.DefaultMaxPartySize,
		"business_hours_cache_ttl", cfg.BusinessHoursCacheTTL,
		"reservation_lock_ttl", cfg.ReservationLockTTL,
		"token_ttl", cfg.TokenTTL,
		"default_reservation_status", cfg.DefaultReservationStatus,
		"contiguity_check", cfg.EnableContiguityCheck,
		"notifier_backend", cfg.NotifierBackend,
		"notification_topic", cfg.NotificationTopic,
		"rabbitmq_url", redactAMQPURL(cfg.RabbitMQURL),
		"notify_timeout", cfg.NotifyTimeout,
		"phone_regions", cfg.PhoneRegions,
	)
}

// Loc returns the restaurant time zone, UTC when it was never resolved.
func (cfg *Config) Loc() *time.Location {
	if cfg.Location == nil {
		return time.UTC
	}
	return cfg.Location
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}

func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func redactAMQPURL(uri string) string {
	credentialRegex := regexp.MustCompile(`(amqps?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
