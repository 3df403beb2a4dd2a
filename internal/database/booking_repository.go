package database

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/routewise/booking-backend/internal/models"
)

const bookingColumns = `id, booking_reference, schedule_id, user_id, seat_numbers,
		total_fare, status, payment_method, payment_status, passenger_email,
		cancellation_reason, cancelled_at, created_at, updated_at`

const bookingDetailColumns = `b.id, b.booking_reference, b.schedule_id, b.user_id,
		b.seat_numbers, b.total_fare, b.status, b.payment_method, b.payment_status,
		b.passenger_email, b.cancellation_reason, b.cancelled_at, b.created_at,
		b.updated_at, s.route_name, s.origin, s.destination, s.bus_number,
		s.departure_at`

// BookingRepository handles booking data operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// GenerateReference generates a unique booking reference in the format
// BK-YYYYMMDD-XXXXXX
func (r *BookingRepository) GenerateReference() (string, error) {
	const maxAttempts = 10

	for i := 0; i < maxAttempts; i++ {
		ref := fmt.Sprintf("BK-%s-%06d", time.Now().Format("20060102"), rand.Intn(1000000))

		var exists bool
		err := r.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM bookings WHERE booking_reference = $1)`, ref)
		if err != nil {
			return "", fmt.Errorf("failed to check booking reference: %w", ClassifyError(err))
		}
		if !exists {
			return ref, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking reference after %d attempts", maxAttempts)
}

// Create inserts a new booking inside the caller's transaction
func (r *BookingRepository) Create(ext sqlx.Ext, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusPending
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = models.PaymentStatusPending
	}

	query := `
		INSERT INTO bookings (
			id, booking_reference, schedule_id, user_id, seat_numbers,
			total_fare, status, payment_method, payment_status, passenger_email
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := ext.QueryRowx(query,
		booking.ID,
		booking.BookingReference,
		booking.ScheduleID,
		booking.UserID,
		booking.SeatNumbers,
		booking.TotalFare,
		booking.Status,
		booking.PaymentMethod,
		booking.PaymentStatus,
		booking.PassengerEmail,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", ClassifyError(err))
	}

	return nil
}

// GetByID retrieves a booking by its ID
func (r *BookingRepository) GetByID(id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking := &models.Booking{}
	err := r.db.Get(booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", ClassifyError(err))
	}

	return booking, nil
}

// GetForUpdate retrieves a booking inside a transaction with a row lock so
// concurrent status transitions serialize on the row.
func (r *BookingRepository) GetForUpdate(ext sqlx.Ext, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	booking := &models.Booking{}
	err := sqlx.Get(ext, booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking for update: %w", ClassifyError(err))
	}

	return booking, nil
}

// MarkConfirmed transitions a booking to confirmed. The payment sub-state is
// only promoted from pending to paid; a failed or refunded payment stays as
// recorded.
func (r *BookingRepository) MarkConfirmed(ext sqlx.Ext, id string) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $2,
		    payment_status = CASE WHEN payment_status = $3 THEN $4 ELSE payment_status END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookingColumns

	booking := &models.Booking{}
	err := sqlx.Get(ext, booking, query, id, models.BookingStatusConfirmed, models.PaymentStatusPending, models.PaymentStatusPaid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to confirm booking: %w", ClassifyError(err))
	}

	return booking, nil
}

// MarkCancelled transitions a booking to cancelled with a reason
func (r *BookingRepository) MarkCancelled(ext sqlx.Ext, id string, reason *string) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $2, cancellation_reason = $3, cancelled_at = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookingColumns

	booking := &models.Booking{}
	err := sqlx.Get(ext, booking, query, id, models.BookingStatusCancelled, reason, time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", ClassifyError(err))
	}

	return booking, nil
}

// MarkRefunded records that a cancelled booking's payment was refunded
func (r *BookingRepository) MarkRefunded(ext sqlx.Ext, id string) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET payment_status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookingColumns

	booking := &models.Booking{}
	err := sqlx.Get(ext, booking, query, id, models.PaymentStatusRefunded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to mark booking refunded: %w", ClassifyError(err))
	}

	return booking, nil
}

// ListActiveBySchedule retrieves pending and confirmed bookings for a
// schedule inside the caller's transaction
func (r *BookingRepository) ListActiveBySchedule(ext sqlx.Ext, scheduleID string) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE schedule_id = $1 AND status IN ($2, $3)
		ORDER BY created_at ASC`

	bookings := []models.Booking{}
	err := sqlx.Select(ext, &bookings, query, scheduleID, models.BookingStatusPending, models.BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for schedule: %w", ClassifyError(err))
	}

	return bookings, nil
}

// GetDetail retrieves a booking joined with its schedule summary
func (r *BookingRepository) GetDetail(id string) (*models.BookingDetail, error) {
	query := `
		SELECT ` + bookingDetailColumns + `
		FROM bookings b
		JOIN schedules s ON s.id = b.schedule_id
		WHERE b.id = $1`

	detail := &models.BookingDetail{}
	err := r.db.Get(detail, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking detail: %w", ClassifyError(err))
	}

	return detail, nil
}

// ListDetails retrieves bookings joined with their schedule summaries,
// newest first
func (r *BookingRepository) ListDetails(limit, offset int) ([]models.BookingDetail, error) {
	query := `
		SELECT ` + bookingDetailColumns + `
		FROM bookings b
		JOIN schedules s ON s.id = b.schedule_id
		ORDER BY b.created_at DESC
		LIMIT $1 OFFSET $2`

	details := []models.BookingDetail{}
	err := r.db.Select(&details, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking details: %w", ClassifyError(err))
	}

	return details, nil
}

// ListByUser retrieves a user's bookings joined with schedule summaries,
// newest first
func (r *BookingRepository) ListByUser(userID string, limit, offset int) ([]models.BookingDetail, error) {
	query := `
		SELECT ` + bookingDetailColumns + `
		FROM bookings b
		JOIN schedules s ON s.id = b.schedule_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`

	details := []models.BookingDetail{}
	err := r.db.Select(&details, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", ClassifyError(err))
	}

	return details, nil
}

// GetRecentDetails retrieves the most recently updated bookings. The poll
// relay diffs consecutive snapshots of this list to detect state changes.
func (r *BookingRepository) GetRecentDetails(limit int) ([]models.BookingDetail, error) {
	query := `
		SELECT ` + bookingDetailColumns + `
		FROM bookings b
		JOIN schedules s ON s.id = b.schedule_id
		ORDER BY b.updated_at DESC
		LIMIT $1`

	details := []models.BookingDetail{}
	err := r.db.Select(&details, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent bookings: %w", ClassifyError(err))
	}

	return details, nil
}
