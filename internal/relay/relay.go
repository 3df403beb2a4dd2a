package relay

import (
	"context"
	"sync"

	"github.com/routewise/booking-backend/internal/models"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events rather than blocking the hub.
const subscriberBuffer = 16

// Source feeds committed booking events into a Hub. Run blocks until the
// context is cancelled or the source fails.
type Source interface {
	Run(ctx context.Context) error
	Name() string
}

// detailFetcher loads the joined booking detail attached to outgoing events
type detailFetcher interface {
	GetDetail(id string) (*models.BookingDetail, error)
}

// Hub fans booking events out to subscribers. Publishing never blocks:
// events are delivered in publish order per subscriber, and a slow
// subscriber drops events instead of stalling the rest.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan models.BookingEvent]struct{}
}

// NewHub creates a new event hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan models.BookingEvent]struct{}),
	}
}

// Subscribe registers a new subscriber. The returned cancel function must
// be called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan models.BookingEvent, func()) {
	ch := make(chan models.BookingEvent, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	activeSubscribers.Inc()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
			activeSubscribers.Dec()
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking
func (h *Hub) Publish(event models.BookingEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
			eventsDelivered.WithLabelValues(string(event.Type)).Inc()
		default:
			eventsDropped.Inc()
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
