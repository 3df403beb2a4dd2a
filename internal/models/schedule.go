package models

import (
	"time"
)

// ScheduleStatus represents the lifecycle status of a scheduled trip
type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
	ScheduleStatusCompleted ScheduleStatus = "completed"
)

// Schedule represents a single bus trip instance with a fixed departure time
// and seat capacity. AvailableSeats is mutated only through the seat ledger
// (reserve/release) and never goes negative.
type Schedule struct {
	ID                 string         `json:"id" db:"id"`
	RouteName          string         `json:"route_name" db:"route_name"`
	Origin             string         `json:"origin" db:"origin"`
	Destination        string         `json:"destination" db:"destination"`
	BusNumber          string         `json:"bus_number" db:"bus_number"`
	DepartureAt        time.Time      `json:"departure_at" db:"departure_at"`
	ArrivalAt          time.Time      `json:"arrival_at" db:"arrival_at"`
	Fare               float64        `json:"fare" db:"fare"`
	TotalSeats         int            `json:"total_seats" db:"total_seats"`
	AvailableSeats     int            `json:"available_seats" db:"available_seats"`
	Status             ScheduleStatus `json:"status" db:"status"`
	CancellationReason *string        `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// IsBookable checks whether new bookings can be taken on this schedule
func (s *Schedule) IsBookable() bool {
	return s.Status == ScheduleStatusScheduled && s.DepartureAt.After(time.Now())
}

// CreateScheduleRequest represents the request to create a schedule
type CreateScheduleRequest struct {
	RouteName   string    `json:"route_name" binding:"required"`
	Origin      string    `json:"origin" binding:"required"`
	Destination string    `json:"destination" binding:"required"`
	BusNumber   string    `json:"bus_number" binding:"required"`
	DepartureAt time.Time `json:"departure_at" binding:"required"`
	ArrivalAt   time.Time `json:"arrival_at" binding:"required"`
	Fare        float64   `json:"fare" binding:"required,gt=0"`
	TotalSeats  int       `json:"total_seats" binding:"required,min=1"`
}

// CancelScheduleRequest represents the request to cancel a schedule
type CancelScheduleRequest struct {
	Reason string `json:"reason" binding:"required"`
}
