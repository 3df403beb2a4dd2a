package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_delivered_total",
		Help: "Booking events delivered to subscribers, by event type",
	}, []string{"type"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_events_dropped_total",
		Help: "Booking events dropped because a subscriber buffer was full",
	})

	relayErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_errors_total",
		Help: "Relay source and sink failures",
	})

	activeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_subscribers",
		Help: "Currently connected event subscribers",
	})
)
