package models

import (
	"errors"
	"time"
)

// PaymentStatus represents the payment sub-state of a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Booking represents a passenger trip reservation. SeatNumbers is the
// ordered list of seat identifiers held by this booking; its length is the
// seat count the ledger reserved.
type Booking struct {
	ID                 string        `json:"id" db:"id"`
	BookingReference   string        `json:"booking_reference" db:"booking_reference"`
	ScheduleID         string        `json:"schedule_id" db:"schedule_id"`
	UserID             string        `json:"user_id" db:"user_id"`
	SeatNumbers        StringArray   `json:"seat_numbers" db:"seat_numbers"`
	TotalFare          float64       `json:"total_fare" db:"total_fare"`
	Status             BookingStatus `json:"status" db:"status"`
	PaymentMethod      *string       `json:"payment_method,omitempty" db:"payment_method"`
	PaymentStatus      PaymentStatus `json:"payment_status" db:"payment_status"`
	PassengerEmail     *string       `json:"passenger_email,omitempty" db:"passenger_email"`
	CancellationReason *string       `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// SeatCount returns the number of seats held by the booking
func (b *Booking) SeatCount() int {
	return len(b.SeatNumbers)
}

// CanConfirm checks whether the booking can move to confirmed
func (b *Booking) CanConfirm() bool {
	return b.Status == BookingStatusPending
}

// CanCancel checks whether the booking can move to cancelled
func (b *Booking) CanCancel() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// IsActive checks whether the booking still holds seats against the schedule
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// NeedsRefund checks if the booking needs a refund after cancellation
func (b *Booking) NeedsRefund() bool {
	return b.Status == BookingStatusCancelled && b.PaymentStatus == PaymentStatusPaid
}

// CalculateRefundAmount calculates the refund amount based on how long
// before departure the booking was cancelled.
//
// Refund policy:
//   - More than 24 hours before: 100% refund
//   - 12-24 hours before: 75% refund
//   - 6-12 hours before: 50% refund
//   - Less than 6 hours: 25% refund
func (b *Booking) CalculateRefundAmount(departureAt time.Time) float64 {
	if !b.NeedsRefund() || b.CancelledAt == nil {
		return 0
	}

	hoursBeforeTrip := departureAt.Sub(*b.CancelledAt).Hours()

	switch {
	case hoursBeforeTrip >= 24:
		return b.TotalFare
	case hoursBeforeTrip >= 12:
		return b.TotalFare * 0.75
	case hoursBeforeTrip >= 6:
		return b.TotalFare * 0.50
	default:
		return b.TotalFare * 0.25
	}
}

// BookingDetail is a booking joined with its schedule summary, as returned
// by the list endpoint and carried on relay events.
type BookingDetail struct {
	Booking
	RouteName   string    `json:"route_name" db:"route_name"`
	Origin      string    `json:"origin" db:"origin"`
	Destination string    `json:"destination" db:"destination"`
	BusNumber   string    `json:"bus_number" db:"bus_number"`
	DepartureAt time.Time `json:"departure_at" db:"departure_at"`
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	ScheduleID     string   `json:"schedule_id" binding:"required"`
	UserID         string   `json:"user_id" binding:"required"`
	SeatNumbers    []string `json:"seat_numbers" binding:"required,min=1"`
	TotalFare      float64  `json:"total_fare" binding:"required,gt=0"`
	PaymentMethod  *string  `json:"payment_method,omitempty"`
	PassengerEmail *string  `json:"passenger_email,omitempty"`
}

// Validate validates the create booking request beyond binding tags
func (r *CreateBookingRequest) Validate() error {
	if len(r.SeatNumbers) == 0 {
		return errors.New("at least one seat number is required")
	}

	if len(r.SeatNumbers) > 10 {
		return errors.New("maximum 10 seats can be booked at once")
	}

	seen := make(map[string]bool, len(r.SeatNumbers))
	for _, seat := range r.SeatNumbers {
		if seat == "" {
			return errors.New("seat numbers must not be empty")
		}
		if seen[seat] {
			return errors.New("duplicate seat number: " + seat)
		}
		seen[seat] = true
	}

	return nil
}

// UpdateBookingRequest represents the PATCH body for cancel/confirm
type UpdateBookingRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
	Reason *string       `json:"reason,omitempty"`
}
