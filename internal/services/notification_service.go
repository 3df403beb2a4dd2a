package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/routewise/booking-backend/internal/database"
	"github.com/routewise/booking-backend/internal/models"
	"github.com/routewise/booking-backend/pkg/mailer"
)

// NotificationService renders and dispatches passenger notifications.
// Dispatch is best effort: every call writes exactly one audit record and
// returns whether delivery succeeded, but never returns an error to the
// caller. A failed notification must not fail the booking that triggered it.
type NotificationService struct {
	transport   mailer.Transport
	repo        *database.NotificationRepository
	logger      *logrus.Logger
	maxAttempts int
	retryDelay  time.Duration
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	transport mailer.Transport,
	repo *database.NotificationRepository,
	logger *logrus.Logger,
	maxAttempts int,
	retryDelay time.Duration,
) *NotificationService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &NotificationService{
		transport:   transport,
		repo:        repo,
		logger:      logger,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// Notify renders the template for the given type and attempts delivery,
// retrying transport failures up to the configured attempt limit. Exactly
// one audit record is written per call regardless of the attempt count.
func (s *NotificationService) Notify(recipient string, ntype models.NotificationType, trip models.TripDetails) bool {
	subject, body := renderTemplate(ntype, trip)

	msg := mailer.Message{
		To:      recipient,
		Subject: subject,
		Body:    body,
	}

	var lastErr error
	attempts := 0
	for attempts < s.maxAttempts {
		attempts++

		lastErr = s.transport.Send(msg)
		if lastErr == nil {
			break
		}

		s.logger.WithFields(logrus.Fields{
			"recipient": recipient,
			"type":      ntype,
			"attempt":   attempts,
			"error":     lastErr.Error(),
		}).Warn("Notification delivery attempt failed")

		if attempts < s.maxAttempts {
			time.Sleep(s.retryDelay)
		}
	}

	record := &models.NotificationRecord{
		Recipient: recipient,
		Type:      ntype,
		Subject:   subject,
		Body:      body,
		Status:    models.NotificationStatusSent,
		Attempts:  attempts,
	}
	if lastErr != nil {
		errMsg := lastErr.Error()
		record.Status = models.NotificationStatusFailed
		record.ErrorMessage = &errMsg
	}

	if err := s.repo.Insert(record); err != nil {
		s.logger.WithFields(logrus.Fields{
			"recipient": recipient,
			"type":      ntype,
			"error":     err.Error(),
		}).Error("Failed to persist notification record")
	}

	return lastErr == nil
}

// renderTemplate builds the subject and body for a notification type
func renderTemplate(ntype models.NotificationType, trip models.TripDetails) (string, string) {
	seats := strings.Join(trip.SeatNumbers, ", ")
	departure := trip.DepartureAt.Format("Mon, 02 Jan 2006 at 15:04")

	switch ntype {
	case models.NotificationTypeConfirmation:
		subject := fmt.Sprintf("Booking confirmed: %s", trip.BookingReference)
		body := fmt.Sprintf(
			"Your booking %s is confirmed.\n\nRoute: %s (%s to %s)\nDeparture: %s\nSeats: %s\n\nThank you for travelling with RouteWise.",
			trip.BookingReference, trip.RouteName, trip.Origin, trip.Destination, departure, seats,
		)
		return subject, body

	case models.NotificationTypeReminder:
		subject := fmt.Sprintf("Trip reminder: %s", trip.BookingReference)
		body := fmt.Sprintf(
			"Reminder for booking %s.\n\nRoute: %s (%s to %s)\nDeparture: %s\nSeats: %s\n\nPlease arrive at least 15 minutes before departure.",
			trip.BookingReference, trip.RouteName, trip.Origin, trip.Destination, departure, seats,
		)
		return subject, body

	case models.NotificationTypeDelay:
		subject := fmt.Sprintf("Trip delayed: %s", trip.BookingReference)
		body := fmt.Sprintf(
			"Your trip for booking %s has been delayed.\n\nRoute: %s (%s to %s)\nNew departure: %s\n\n%s",
			trip.BookingReference, trip.RouteName, trip.Origin, trip.Destination, departure, trip.Reason,
		)
		return subject, body

	case models.NotificationTypeCancellation:
		subject := fmt.Sprintf("Booking cancelled: %s", trip.BookingReference)
		body := fmt.Sprintf(
			"Your booking %s has been cancelled.\n\nRoute: %s (%s to %s)\nScheduled departure: %s\nReason: %s\n\nAny applicable refund will be processed to your original payment method.",
			trip.BookingReference, trip.RouteName, trip.Origin, trip.Destination, departure, trip.Reason,
		)
		return subject, body

	default:
		subject := fmt.Sprintf("Booking update: %s", trip.BookingReference)
		body := fmt.Sprintf("There is an update for your booking %s.", trip.BookingReference)
		return subject, body
	}
}
