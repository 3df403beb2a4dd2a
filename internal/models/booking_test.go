package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingTransitions(t *testing.T) {
	t.Run("Pending", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPending}
		assert.True(t, b.CanConfirm())
		assert.True(t, b.CanCancel())
		assert.True(t, b.IsActive())
	})

	t.Run("Confirmed", func(t *testing.T) {
		b := &Booking{Status: BookingStatusConfirmed}
		assert.False(t, b.CanConfirm())
		assert.True(t, b.CanCancel())
		assert.True(t, b.IsActive())
	})

	t.Run("Cancelled", func(t *testing.T) {
		b := &Booking{Status: BookingStatusCancelled}
		assert.False(t, b.CanConfirm())
		assert.False(t, b.CanCancel())
		assert.False(t, b.IsActive())
	})

	t.Run("Completed", func(t *testing.T) {
		b := &Booking{Status: BookingStatusCompleted}
		assert.False(t, b.CanConfirm())
		assert.False(t, b.CanCancel())
		assert.False(t, b.IsActive())
	})
}

func TestNeedsRefund(t *testing.T) {
	assert.True(t, (&Booking{Status: BookingStatusCancelled, PaymentStatus: PaymentStatusPaid}).NeedsRefund())
	assert.False(t, (&Booking{Status: BookingStatusCancelled, PaymentStatus: PaymentStatusPending}).NeedsRefund())
	assert.False(t, (&Booking{Status: BookingStatusConfirmed, PaymentStatus: PaymentStatusPaid}).NeedsRefund())
}

func TestCalculateRefundAmount(t *testing.T) {
	departure := time.Now().Add(48 * time.Hour)

	refundAt := func(hoursBefore time.Duration) float64 {
		cancelledAt := departure.Add(-hoursBefore)
		b := &Booking{
			Status:        BookingStatusCancelled,
			PaymentStatus: PaymentStatusPaid,
			TotalFare:     1000.0,
			CancelledAt:   &cancelledAt,
		}
		return b.CalculateRefundAmount(departure)
	}

	t.Run("Full Refund Over 24h", func(t *testing.T) {
		assert.InDelta(t, 1000.0, refundAt(30*time.Hour), 0.01)
	})

	t.Run("75 Percent Between 12h And 24h", func(t *testing.T) {
		assert.InDelta(t, 750.0, refundAt(18*time.Hour), 0.01)
	})

	t.Run("50 Percent Between 6h And 12h", func(t *testing.T) {
		assert.InDelta(t, 500.0, refundAt(8*time.Hour), 0.01)
	})

	t.Run("25 Percent Under 6h", func(t *testing.T) {
		assert.InDelta(t, 250.0, refundAt(2*time.Hour), 0.01)
	})

	t.Run("No Refund Without Payment", func(t *testing.T) {
		cancelledAt := departure.Add(-30 * time.Hour)
		b := &Booking{
			Status:        BookingStatusCancelled,
			PaymentStatus: PaymentStatusPending,
			TotalFare:     1000.0,
			CancelledAt:   &cancelledAt,
		}
		assert.Zero(t, b.CalculateRefundAmount(departure))
	})
}

func TestCreateBookingRequestValidate(t *testing.T) {
	base := func() *CreateBookingRequest {
		return &CreateBookingRequest{
			ScheduleID:  "sched-1",
			UserID:      "user-1",
			SeatNumbers: []string{"12A", "12B"},
			TotalFare:   3000.0,
		}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("No Seats", func(t *testing.T) {
		req := base()
		req.SeatNumbers = nil
		assert.Error(t, req.Validate())
	})

	t.Run("Too Many Seats", func(t *testing.T) {
		req := base()
		req.SeatNumbers = make([]string, 11)
		for i := range req.SeatNumbers {
			req.SeatNumbers[i] = string(rune('A' + i))
		}
		assert.Error(t, req.Validate())
	})

	t.Run("Duplicate Seat", func(t *testing.T) {
		req := base()
		req.SeatNumbers = []string{"12A", "12A"}
		assert.Error(t, req.Validate())
	})

	t.Run("Empty Seat Number", func(t *testing.T) {
		req := base()
		req.SeatNumbers = []string{"12A", ""}
		assert.Error(t, req.Validate())
	})
}

func TestScheduleIsBookable(t *testing.T) {
	t.Run("Scheduled And Future", func(t *testing.T) {
		s := &Schedule{Status: ScheduleStatusScheduled, DepartureAt: time.Now().Add(time.Hour)}
		assert.True(t, s.IsBookable())
	})

	t.Run("Departed", func(t *testing.T) {
		s := &Schedule{Status: ScheduleStatusScheduled, DepartureAt: time.Now().Add(-time.Hour)}
		assert.False(t, s.IsBookable())
	})

	t.Run("Cancelled", func(t *testing.T) {
		s := &Schedule{Status: ScheduleStatusCancelled, DepartureAt: time.Now().Add(time.Hour)}
		assert.False(t, s.IsBookable())
	})
}
