package models

import (
	"time"
)

// BookingEventType identifies a committed booking-state change
type BookingEventType string

const (
	EventBookingCreated   BookingEventType = "booking_created"
	EventBookingConfirmed BookingEventType = "booking_confirmed"
	EventBookingCancelled BookingEventType = "booking_cancelled"
)

// BookingEvent is the payload the coordinator emits on commit and the relay
// delivers to operator clients. The notify payload on the wire carries only
// BookingID and Type; the relay fetches the joined detail before delivery.
type BookingEvent struct {
	Type       BookingEventType `json:"type"`
	BookingID  string           `json:"booking_id"`
	ScheduleID string           `json:"schedule_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	Booking    *BookingDetail   `json:"booking,omitempty"`
}
