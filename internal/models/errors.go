package models

import (
	"errors"
)

// Sentinel errors for booking and schedule state conflicts. Handlers map
// these onto HTTP statuses; everything else is treated as an internal
// failure.
var (
	// ErrBookingNotFound is returned when a booking does not exist
	ErrBookingNotFound = errors.New("booking not found")

	// ErrScheduleNotFound is returned when a schedule does not exist
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrInsufficientSeats is returned when a schedule has fewer available
	// seats than a reservation requests
	ErrInsufficientSeats = errors.New("insufficient seats available")

	// ErrScheduleNotBookable is returned when a schedule is cancelled,
	// completed or already departed
	ErrScheduleNotBookable = errors.New("schedule is not open for booking")

	// ErrInvalidTransition is returned when a status change is not allowed
	// from the current state
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TransientError wraps failures where a retry of the same request may
// succeed, such as deadlocks, statement timeouts and dropped connections.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient failure: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether any error in the chain is transient
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}
