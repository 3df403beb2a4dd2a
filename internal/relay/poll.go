package relay

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/routewise/booking-backend/internal/models"
)

// recentLister returns the most recently updated bookings
type recentLister interface {
	GetRecentDetails(limit int) ([]models.BookingDetail, error)
}

// pollState is the last observed state of a booking within the poll window
type pollState struct {
	status    models.BookingStatus
	updatedAt time.Time
}

// PollRelay detects booking transitions by re-fetching the recent booking
// window on an interval and diffing it against the previous snapshot. It is
// the fallback for deployments where a dedicated LISTEN connection is not
// available. Events are delayed by up to one interval and transitions that
// both happen and leave the window between polls are missed.
type PollRelay struct {
	bookings recentLister
	hub      *Hub
	interval time.Duration
	limit    int
	logger   *logrus.Logger

	seen map[string]pollState
}

// NewPollRelay creates a new poll relay
func NewPollRelay(bookings recentLister, hub *Hub, interval time.Duration, limit int, logger *logrus.Logger) *PollRelay {
	return &PollRelay{
		bookings: bookings,
		hub:      hub,
		interval: interval,
		limit:    limit,
		logger:   logger,
		seen:     make(map[string]pollState),
	}
}

// Name returns the relay mode name
func (r *PollRelay) Name() string {
	return "poll"
}

// Run polls until the context is cancelled. The first fetch primes the
// snapshot without emitting so a restart does not replay history.
func (r *PollRelay) Run(ctx context.Context) error {
	if details, err := r.bookings.GetRecentDetails(r.limit); err != nil {
		relayErrors.Inc()
		r.logger.WithField("error", err.Error()).Warn("Poll relay failed to prime snapshot")
	} else {
		r.remember(details)
	}

	r.logger.WithFields(logrus.Fields{
		"interval": r.interval.String(),
		"limit":    r.limit,
	}).Info("Poll relay started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.poll()
		}
	}
}

// poll fetches the recent window and emits an event for every booking that
// is new or whose status or updated_at changed since the last snapshot. A
// same-status change, such as a refund landing on a cancelled booking,
// re-emits the event for the current status with the fresh detail.
func (r *PollRelay) poll() {
	details, err := r.bookings.GetRecentDetails(r.limit)
	if err != nil {
		relayErrors.Inc()
		r.logger.WithField("error", err.Error()).Warn("Poll relay fetch failed")
		return
	}

	for i := range details {
		detail := &details[i]

		prev, known := r.seen[detail.ID]
		if known && prev.status == detail.Status && prev.updatedAt.Equal(detail.UpdatedAt) {
			continue
		}

		eventType := eventTypeFor(detail.Status)
		if eventType == "" {
			continue
		}

		r.hub.Publish(models.BookingEvent{
			Type:       eventType,
			BookingID:  detail.ID,
			ScheduleID: detail.ScheduleID,
			OccurredAt: detail.UpdatedAt,
			Booking:    detail,
		})
	}

	r.remember(details)
}

// remember replaces the snapshot with the current window. Bookings that
// fell out of the window are forgotten so the map stays bounded by the
// window size.
func (r *PollRelay) remember(details []models.BookingDetail) {
	next := make(map[string]pollState, len(details))
	for i := range details {
		next[details[i].ID] = pollState{
			status:    details[i].Status,
			updatedAt: details[i].UpdatedAt,
		}
	}
	r.seen = next
}

// eventTypeFor maps a booking status to the event announcing it
func eventTypeFor(status models.BookingStatus) models.BookingEventType {
	switch status {
	case models.BookingStatusPending:
		return models.EventBookingCreated
	case models.BookingStatusConfirmed:
		return models.EventBookingConfirmed
	case models.BookingStatusCancelled:
		return models.EventBookingCancelled
	default:
		return ""
	}
}
