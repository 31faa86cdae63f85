// Package notify delivers reservation lifecycle events to the outside
// world. Delivery is fire-and-forget from the caller's point of view: a
// failed notification never undoes the change that produced it.
package notify

import (
	"context"
	"fmt"
	"time"

	"tablebook/pkg/config"
	kafka "tablebook/pkg/kafka"
	kafka_config "tablebook/pkg/kafka/config"
	kafka_middleware "tablebook/pkg/kafka/middleware"
	"tablebook/pkg/logger"
)

const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"

	schemaVersion = "1"
)

type Event struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservationId"`
	CustomerName  string    `json:"customerName,omitempty"`
	CustomerEmail string    `json:"customerEmail,omitempty"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	PartySize     int       `json:"partySize,omitempty"`
	Time          time.Time `json:"time"`
	TableIDs      []string  `json:"tableIds,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
	Close() error
}

// New builds the notifier selected by NOTIFIER_BACKEND.
func New(cfg *config.Config) (Notifier, error) {
	switch cfg.NotifierBackend {
	case config.NotifierKafka:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			return nil, err
		}
		kafkaCfg.LogConfiguration(cfg.Log.Info)

		producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationTopic, cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		if kafkaCfg.EnableMiddleware {
			producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		}
		return NewKafkaNotifier(producer, cfg.Log.With("notifier", config.NotifierKafka)), nil

	case config.NotifierRabbitMQ:
		return DialRabbitMQ(cfg.RabbitMQURL, cfg.NotificationTopic, cfg.Log.With("notifier", config.NotifierRabbitMQ))

	default:
		return NewLogNotifier(cfg.Log.With("notifier", config.NotifierLog)), nil
	}
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier records events in the service log only.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(_ context.Context, event Event) error {
	n.log.Info("Reservation event",
		"type", event.Type,
		"reservation_id", event.ReservationID,
		"time", event.Time,
		"table_ids", event.TableIDs,
		"reason", event.Reason,
	)
	return nil
}

func (n *logNotifier) Close() error {
	return nil
}
