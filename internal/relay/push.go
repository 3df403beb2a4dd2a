package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/routewise/booking-backend/internal/models"
)

// PushRelay streams booking events over a dedicated LISTEN connection.
// The coordinator emits pg_notify inside each booking transaction, so
// Postgres hands this listener exactly the committed transitions, in commit
// order, with no polling delay.
type PushRelay struct {
	conninfo string
	channel  string
	hub      *Hub
	bookings detailFetcher
	logger   *logrus.Logger
}

// NewPushRelay creates a new push relay
func NewPushRelay(conninfo, channel string, hub *Hub, bookings detailFetcher, logger *logrus.Logger) *PushRelay {
	return &PushRelay{
		conninfo: conninfo,
		channel:  channel,
		hub:      hub,
		bookings: bookings,
		logger:   logger,
	}
}

// Name returns the relay mode name
func (r *PushRelay) Name() string {
	return "push"
}

// Run listens for notifications until the context is cancelled. The
// underlying listener reconnects on its own; a nil notification marks a
// reconnect, after which missed events are gone, so operator clients
// re-fetch the booking list on stream resume.
func (r *PushRelay) Run(ctx context.Context) error {
	listener := pq.NewListener(r.conninfo, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			relayErrors.Inc()
			r.logger.WithField("error", err.Error()).Warn("Relay listener connection event")
		}
	})
	defer listener.Close()

	if err := listener.Listen(r.channel); err != nil {
		return fmt.Errorf("failed to listen on channel %s: %w", r.channel, err)
	}

	r.logger.WithField("channel", r.channel).Info("Push relay listening")

	pingTicker := time.NewTicker(90 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case n := <-listener.Notify:
			if n == nil {
				// Connection was re-established
				r.logger.Warn("Relay listener reconnected, events may have been missed")
				continue
			}
			r.handle(n.Extra)

		case <-pingTicker.C:
			if err := listener.Ping(); err != nil {
				relayErrors.Inc()
				r.logger.WithField("error", err.Error()).Warn("Relay listener ping failed")
			}
		}
	}
}

// handle decodes a notification payload, attaches the joined booking detail
// and publishes the event to the hub
func (r *PushRelay) handle(payload string) {
	var event models.BookingEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		relayErrors.Inc()
		r.logger.WithFields(logrus.Fields{
			"payload": payload,
			"error":   err.Error(),
		}).Error("Failed to decode relay payload")
		return
	}

	detail, err := r.bookings.GetDetail(event.BookingID)
	if err != nil {
		// Deliver the bare event rather than dropping it
		r.logger.WithFields(logrus.Fields{
			"booking_id": event.BookingID,
			"error":      err.Error(),
		}).Warn("Failed to load booking detail for event")
	} else {
		event.Booking = detail
	}

	r.hub.Publish(event)
}
