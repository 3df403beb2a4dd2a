package handlers

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/routewise/booking-backend/internal/relay"
)

// EventsHandler streams committed booking events to operator clients
type EventsHandler struct {
	hub    *relay.Hub
	logger *logrus.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *relay.Hub, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{
		hub:    hub,
		logger: logger,
	}
}

// Stream handles GET /api/v1/events as a server-sent event stream. Clients
// that reconnect should re-fetch the booking list first, since events
// published while disconnected are not replayed.
func (h *EventsHandler) Stream(c *gin.Context) {
	events, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	h.logger.WithField("client", c.ClientIP()).Info("Event stream client connected")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true

		case <-c.Request.Context().Done():
			return false
		}
	})

	h.logger.WithField("client", c.ClientIP()).Info("Event stream client disconnected")
}
