package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/routewise/booking-backend/internal/models"
)

const scheduleColumns = `id, route_name, origin, destination, bus_number,
		departure_at, arrival_at, fare, total_seats, available_seats,
		status, cancellation_reason, cancelled_at, created_at, updated_at`

// ScheduleRepository handles schedule data operations. Seat counters are
// mutated only through Reserve and Release so the available_seats >= 0
// invariant holds under concurrent bookings.
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create creates a new schedule
func (r *ScheduleRepository) Create(schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusScheduled
	}
	if schedule.AvailableSeats == 0 {
		schedule.AvailableSeats = schedule.TotalSeats
	}

	query := `
		INSERT INTO schedules (
			id, route_name, origin, destination, bus_number,
			departure_at, arrival_at, fare, total_seats, available_seats, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowx(query,
		schedule.ID,
		schedule.RouteName,
		schedule.Origin,
		schedule.Destination,
		schedule.BusNumber,
		schedule.DepartureAt,
		schedule.ArrivalAt,
		schedule.Fare,
		schedule.TotalSeats,
		schedule.AvailableSeats,
		schedule.Status,
	).Scan(&schedule.CreatedAt, &schedule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", ClassifyError(err))
	}

	return nil
}

// GetByID retrieves a schedule by its ID
func (r *ScheduleRepository) GetByID(id string) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	schedule := &models.Schedule{}
	err := r.db.Get(schedule, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", ClassifyError(err))
	}

	return schedule, nil
}

// GetForUpdate retrieves a schedule inside a transaction with a row lock
func (r *ScheduleRepository) GetForUpdate(ext sqlx.Ext, id string) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1 FOR UPDATE`

	schedule := &models.Schedule{}
	err := sqlx.Get(ext, schedule, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule for update: %w", ClassifyError(err))
	}

	return schedule, nil
}

// ListUpcoming retrieves schedules that have not yet departed, soonest first
func (r *ScheduleRepository) ListUpcoming(limit, offset int) ([]models.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE departure_at > NOW()
		ORDER BY departure_at ASC
		LIMIT $1 OFFSET $2`

	schedules := []models.Schedule{}
	err := r.db.Select(&schedules, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", ClassifyError(err))
	}

	return schedules, nil
}

// Reserve atomically decrements the available seat count for a schedule.
// The decrement and its guard run in a single UPDATE, so two concurrent
// reservations can never oversell the last seats. Returns the schedule row
// after the decrement.
func (r *ScheduleRepository) Reserve(ext sqlx.Ext, scheduleID string, seatCount int) (*models.Schedule, error) {
	if seatCount < 1 {
		return nil, fmt.Errorf("seat count must be at least 1, got %d", seatCount)
	}

	query := `
		UPDATE schedules
		SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1
		  AND status = $3
		  AND available_seats >= $2
		RETURNING ` + scheduleColumns

	schedule := &models.Schedule{}
	err := sqlx.Get(ext, schedule, query, scheduleID, seatCount, models.ScheduleStatusScheduled)
	if err == nil {
		return schedule, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to reserve seats: %w", ClassifyError(err))
	}

	// The guard rejected the update. Re-read to report why.
	var state struct {
		Status         models.ScheduleStatus `db:"status"`
		AvailableSeats int                   `db:"available_seats"`
	}
	err = sqlx.Get(ext, &state, `SELECT status, available_seats FROM schedules WHERE id = $1`, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to inspect schedule: %w", ClassifyError(err))
	}

	if state.Status != models.ScheduleStatusScheduled {
		return nil, models.ErrScheduleNotBookable
	}
	return nil, models.ErrInsufficientSeats
}

// Release returns seats to a schedule after a booking is cancelled. The
// count is capped at total_seats so a double release cannot overfill the
// schedule.
func (r *ScheduleRepository) Release(ext sqlx.Ext, scheduleID string, seatCount int) (*models.Schedule, error) {
	if seatCount < 1 {
		return nil, fmt.Errorf("seat count must be at least 1, got %d", seatCount)
	}

	query := `
		UPDATE schedules
		SET available_seats = LEAST(available_seats + $2, total_seats), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + scheduleColumns

	schedule := &models.Schedule{}
	err := sqlx.Get(ext, schedule, query, scheduleID, seatCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to release seats: %w", ClassifyError(err))
	}

	return schedule, nil
}

// Cancel marks a schedule as cancelled with a reason. Returns
// models.ErrInvalidTransition if the schedule is already cancelled or
// completed.
func (r *ScheduleRepository) Cancel(ext sqlx.Ext, scheduleID, reason string) (*models.Schedule, error) {
	query := `
		UPDATE schedules
		SET status = $2, cancellation_reason = $3, cancelled_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
		RETURNING ` + scheduleColumns

	schedule := &models.Schedule{}
	err := sqlx.Get(ext, schedule, query,
		scheduleID,
		models.ScheduleStatusCancelled,
		reason,
		time.Now(),
		models.ScheduleStatusScheduled,
	)
	if err == nil {
		return schedule, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to cancel schedule: %w", ClassifyError(err))
	}

	var status models.ScheduleStatus
	err = sqlx.Get(ext, &status, `SELECT status FROM schedules WHERE id = $1`, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to inspect schedule: %w", ClassifyError(err))
	}
	return nil, models.ErrInvalidTransition
}
