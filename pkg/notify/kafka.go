package notify

import (
	"context"
	"fmt"

	kafka "tablebook/pkg/kafka"
	"tablebook/pkg/logger"
)

const eventSource = "tablebook"

type publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaNotifier struct {
	producer publisher
	log      *logger.Logger
}

// NewKafkaNotifier publishes events keyed by reservation id so every event of
// one reservation lands on the same partition.
func NewKafkaNotifier(producer publisher, log *logger.Logger) Notifier {
	return &kafkaNotifier{producer: producer, log: log}
}

func (n *kafkaNotifier) Notify(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.ReservationID).
		WithEventType(event.Type).
		WithSchemaVersion(schemaVersion).
		WithSource(eventSource).
		WithTimestamp(event.OccurredAt).
		WithValue(event).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s message: %w", event.Type, err)
	}

	if err := n.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

func (n *kafkaNotifier) Close() error {
	return n.producer.Close()
}
