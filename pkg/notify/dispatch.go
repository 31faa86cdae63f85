package notify

import (
	"context"
	"time"

	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

// ReservationEvent describes a change to r.
func ReservationEvent(eventType string, r *model.Reservation, reason string, at time.Time) Event {
	return Event{
		Type:          eventType,
		ReservationID: r.ID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		PartySize:     r.PartySize,
		Time:          r.Time,
		TableIDs:      r.TableIDs,
		Reason:        reason,
		OccurredAt:    at.UTC(),
	}
}

// Dispatch sends event without blocking on the caller's request context. The
// send is detached from ctx cancellation and bounded by timeout; failures are
// logged and swallowed.
func Dispatch(ctx context.Context, n Notifier, event Event, timeout time.Duration, log *logger.Logger) {
	if n == nil {
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := n.Notify(sendCtx, event); err != nil {
		log.Warn("Failed to send reservation notification",
			"type", event.Type,
			"reservation_id", event.ReservationID,
			"error", err,
		)
	}
}
