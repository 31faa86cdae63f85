package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"tablebook/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeKind = "topic"

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitNotifier struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	log      *logger.Logger
}

// DialRabbitMQ connects and declares a durable topic exchange. Events are
// routed by their type, so consumers bind on "reservation.*".
func DialRabbitMQ(url, exchange string, log *logger.Logger) (Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	log.Info("RabbitMQ notifier connected", "exchange", exchange)
	return &rabbitNotifier{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

func (n *rabbitNotifier) Notify(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.Type, err)
	}

	err = n.channel.PublishWithContext(ctx, n.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ReservationID,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	n.log.Debug("Event published", "exchange", n.exchange, "routing_key", event.Type, "reservation_id", event.ReservationID)
	return nil
}

func (n *rabbitNotifier) Close() error {
	var err error
	if n.channel != nil {
		err = n.channel.Close()
	}
	if n.conn != nil {
		if connErr := n.conn.Close(); err == nil {
			err = connErr
		}
	}
	return err
}
