package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafka "tablebook/pkg/kafka"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published []kafka.Message
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, msg kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	closed   bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func cancelledEvent() Event {
	at := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	return Event{
		Type:          EventReservationCancelled,
		ReservationID: "res-42",
		Time:          at,
		TableIDs:      []string{"t5"},
		Reason:        "plans changed",
		OccurredAt:    at.Add(-24 * time.Hour),
	}
}

func TestKafkaNotifier_Notify(t *testing.T) {
	pub := &fakePublisher{}
	n := NewKafkaNotifier(pub, logger.Nop())

	require.NoError(t, n.Notify(context.Background(), cancelledEvent()))
	require.Len(t, pub.published, 1)

	msg := pub.published[0]
	assert.Equal(t, "res-42", msg.Key)
	assert.Equal(t, EventReservationCancelled, msg.GetEventType())
	assert.NotEmpty(t, msg.GetEventID())

	var decoded Event
	require.NoError(t, msg.DecodeValue(&decoded))
	assert.Equal(t, "plans changed", decoded.Reason)
}

func TestKafkaNotifier_PropagatesPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	n := NewKafkaNotifier(pub, logger.Nop())

	err := n.Notify(context.Background(), cancelledEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), EventReservationCancelled)
}

func TestRabbitNotifier_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	n := &rabbitNotifier{channel: ch, exchange: "reservations.events", log: logger.Nop()}

	require.NoError(t, n.Notify(context.Background(), cancelledEvent()))
	assert.Equal(t, "reservations.events", ch.exchange)
	assert.Equal(t, EventReservationCancelled, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var decoded Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "res-42", decoded.ReservationID)

	require.NoError(t, n.Close())
	assert.True(t, ch.closed)
}

func TestLogNotifier_NeverFails(t *testing.T) {
	n := NewLogNotifier(logger.Nop())
	assert.NoError(t, n.Notify(context.Background(), cancelledEvent()))
	assert.NoError(t, n.Close())
}

type recordingNotifier struct {
	events []Event
	err    error
	ctxErr error
}

func (r *recordingNotifier) Notify(ctx context.Context, event Event) error {
	r.ctxErr = ctx.Err()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingNotifier) Close() error { return nil }

func TestDispatch_DetachesFromCancelledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := &recordingNotifier{err: errors.New("broker down")}
	res := &model.Reservation{ID: "r1", CustomerName: "Ada", PartySize: 2, TableIDs: []string{"t1"}}

	Dispatch(ctx, n, ReservationEvent(EventReservationCancelled, res, "plans changed", time.Now()), time.Second, logger.Nop())

	require.Len(t, n.events, 1)
	assert.NoError(t, n.ctxErr, "the send must not inherit the request cancellation")
	assert.Equal(t, "r1", n.events[0].ReservationID)
	assert.Equal(t, "plans changed", n.events[0].Reason)
	assert.Equal(t, []string{"t1"}, n.events[0].TableIDs)

	Dispatch(ctx, nil, Event{}, time.Second, logger.Nop())
}
