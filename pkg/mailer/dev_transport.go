package mailer

import (
	"github.com/sirupsen/logrus"
)

// DevTransport logs messages instead of sending them. Used in development
// so the booking flow can run without mail gateway credentials.
type DevTransport struct {
	logger *logrus.Logger
}

// NewDevTransport creates a new dev transport
func NewDevTransport(logger *logrus.Logger) *DevTransport {
	return &DevTransport{logger: logger}
}

// Send logs the message and reports success
func (t *DevTransport) Send(msg Message) error {
	t.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Body,
	}).Info("Dev transport: message logged instead of sent")

	return nil
}

// GetName returns the name of this mail transport
func (t *DevTransport) GetName() string {
	return "Dev Transport"
}
