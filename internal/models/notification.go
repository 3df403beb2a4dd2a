package models

import (
	"time"
)

// NotificationType selects the message template for a dispatch
type NotificationType string

const (
	NotificationTypeConfirmation NotificationType = "confirmation"
	NotificationTypeReminder     NotificationType = "reminder"
	NotificationTypeDelay        NotificationType = "delay"
	NotificationTypeCancellation NotificationType = "cancellation"
)

// NotificationStatus is the delivery outcome of a dispatch attempt
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// NotificationRecord is the append-only audit row written for every
// dispatch attempt. Rows are never mutated after creation.
type NotificationRecord struct {
	ID           string             `json:"id" db:"id"`
	Recipient    string             `json:"recipient" db:"recipient"`
	Type         NotificationType   `json:"type" db:"type"`
	Subject      string             `json:"subject" db:"subject"`
	Body         string             `json:"body" db:"body"`
	Status       NotificationStatus `json:"status" db:"status"`
	ErrorMessage *string            `json:"error_message,omitempty" db:"error_message"`
	Attempts     int                `json:"attempts" db:"attempts"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}

// TripDetails carries the schedule fields a notification template renders
type TripDetails struct {
	BookingReference string
	RouteName        string
	Origin           string
	Destination      string
	DepartureAt      time.Time
	SeatNumbers      []string
	Reason           string
}
