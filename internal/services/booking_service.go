package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/routewise/booking-backend/internal/config"
	"github.com/routewise/booking-backend/internal/database"
	"github.com/routewise/booking-backend/internal/models"
)

// ErrSeatLimitExceeded is returned when a booking requests more seats than
// the configured per-booking limit
var ErrSeatLimitExceeded = errors.New("seat count exceeds the per-booking limit")

// Notifier dispatches a passenger notification and reports delivery success
type Notifier interface {
	Notify(recipient string, ntype models.NotificationType, trip models.TripDetails) bool
}

// BookingService coordinates booking state transitions. Every transition
// runs in a single database transaction covering the booking row, the seat
// counters and the committed-event emission, so partial effects are never
// observable. Notifications are dispatched after commit and never affect
// the transaction outcome.
type BookingService struct {
	db           database.DB
	bookingRepo  *database.BookingRepository
	scheduleRepo *database.ScheduleRepository
	notifier     Notifier
	logger       *logrus.Logger
	txTimeout    time.Duration
	maxSeats     int
	relayChannel string
}

// NewBookingService creates a new booking service
func NewBookingService(
	db database.DB,
	bookingRepo *database.BookingRepository,
	scheduleRepo *database.ScheduleRepository,
	notifier Notifier,
	logger *logrus.Logger,
	cfg config.BookingConfig,
	relayChannel string,
) *BookingService {
	return &BookingService{
		db:           db,
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		notifier:     notifier,
		logger:       logger,
		txTimeout:    cfg.TxTimeout,
		maxSeats:     cfg.MaxSeatsPerBooking,
		relayChannel: relayChannel,
	}
}

// begin starts a transaction with the configured statement timeout so a
// wedged transaction surfaces as a transient error instead of hanging the
// request.
func (s *BookingService) begin() (*sqlx.Tx, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", database.ClassifyError(err))
	}

	if s.txTimeout > 0 {
		// SET LOCAL does not accept bind parameters
		if _, err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = %d", s.txTimeout.Milliseconds())); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to set transaction timeout: %w", database.ClassifyError(err))
		}
	}

	return tx, nil
}

// emitEvent publishes a booking event on the relay channel from inside the
// transaction. Postgres delivers NOTIFY payloads only when the transaction
// commits, and in commit order, so listeners observe exactly the committed
// transitions in the order they became visible.
func (s *BookingService) emitEvent(ext sqlx.Ext, eventType models.BookingEventType, bookingID, scheduleID string) error {
	event := models.BookingEvent{
		Type:       eventType,
		BookingID:  bookingID,
		ScheduleID: scheduleID,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	if _, err := ext.Exec(`SELECT pg_notify($1, $2)`, s.relayChannel, string(payload)); err != nil {
		return fmt.Errorf("failed to emit booking event: %w", database.ClassifyError(err))
	}

	return nil
}

// CreateBooking reserves seats and creates a pending booking atomically.
// On success it returns the booking and the schedule row as updated by the
// seat decrement. Any failure after the decrement rolls the decrement back.
func (s *BookingService) CreateBooking(req *models.CreateBookingRequest) (*models.Booking, *models.Schedule, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	if len(req.SeatNumbers) > s.maxSeats {
		return nil, nil, fmt.Errorf("%w: requested %d, limit %d", ErrSeatLimitExceeded, len(req.SeatNumbers), s.maxSeats)
	}

	reference, err := s.bookingRepo.GenerateReference()
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	schedule, err := s.scheduleRepo.Reserve(tx, req.ScheduleID, len(req.SeatNumbers))
	if err != nil {
		return nil, nil, err
	}

	// The status guard inside Reserve does not cover departure time
	if !schedule.DepartureAt.After(time.Now()) {
		return nil, nil, models.ErrScheduleNotBookable
	}

	booking := &models.Booking{
		BookingReference: reference,
		ScheduleID:       req.ScheduleID,
		UserID:           req.UserID,
		SeatNumbers:      models.StringArray(req.SeatNumbers),
		TotalFare:        req.TotalFare,
		Status:           models.BookingStatusPending,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    models.PaymentStatusPending,
		PassengerEmail:   req.PassengerEmail,
	}

	if err := s.bookingRepo.Create(tx, booking); err != nil {
		return nil, nil, err
	}

	if err := s.emitEvent(tx, models.EventBookingCreated, booking.ID, booking.ScheduleID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit booking: %w", database.ClassifyError(err))
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":      booking.ID,
		"reference":       booking.BookingReference,
		"schedule_id":     booking.ScheduleID,
		"seats":           booking.SeatCount(),
		"available_seats": schedule.AvailableSeats,
	}).Info("Booking created")

	s.dispatch(booking, schedule, models.NotificationTypeConfirmation, "")

	return booking, schedule, nil
}

// ConfirmBooking transitions a pending booking to confirmed and records the
// payment. Any other current status fails with ErrInvalidTransition.
func (s *BookingService) ConfirmBooking(id string) (*models.Booking, error) {
	tx, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	booking, err := s.bookingRepo.GetForUpdate(tx, id)
	if err != nil {
		return nil, err
	}

	if !booking.CanConfirm() {
		return nil, fmt.Errorf("%w: cannot confirm a %s booking", models.ErrInvalidTransition, booking.Status)
	}

	confirmed, err := s.bookingRepo.MarkConfirmed(tx, id)
	if err != nil {
		return nil, err
	}

	if err := s.emitEvent(tx, models.EventBookingConfirmed, confirmed.ID, confirmed.ScheduleID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", database.ClassifyError(err))
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": confirmed.ID,
		"reference":  confirmed.BookingReference,
	}).Info("Booking confirmed")

	return confirmed, nil
}

// CancelBooking cancels a booking and releases its seats back to the
// schedule in the same transaction. Cancelling an already cancelled booking
// is a no-op that returns the stored row without touching seat counters.
func (s *BookingService) CancelBooking(id string, reason *string) (*models.Booking, error) {
	tx, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	booking, err := s.bookingRepo.GetForUpdate(tx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status == models.BookingStatusCancelled {
		return booking, nil
	}
	if !booking.CanCancel() {
		return nil, fmt.Errorf("%w: cannot cancel a %s booking", models.ErrInvalidTransition, booking.Status)
	}

	cancelled, err := s.bookingRepo.MarkCancelled(tx, id, reason)
	if err != nil {
		return nil, err
	}

	schedule, err := s.scheduleRepo.Release(tx, cancelled.ScheduleID, cancelled.SeatCount())
	if err != nil {
		return nil, err
	}

	if cancelled.NeedsRefund() {
		cancelled, err = s.bookingRepo.MarkRefunded(tx, id)
		if err != nil {
			return nil, err
		}
	}

	if err := s.emitEvent(tx, models.EventBookingCancelled, cancelled.ID, cancelled.ScheduleID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", database.ClassifyError(err))
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":      cancelled.ID,
		"reference":       cancelled.BookingReference,
		"seats_released":  cancelled.SeatCount(),
		"available_seats": schedule.AvailableSeats,
	}).Info("Booking cancelled")

	cancelReason := ""
	if reason != nil {
		cancelReason = *reason
	}
	s.dispatch(cancelled, schedule, models.NotificationTypeCancellation, cancelReason)

	return cancelled, nil
}

// CancelSchedule cancels a schedule and every active booking on it in one
// transaction. Paid bookings are marked refunded. Returns the cancelled
// schedule and the bookings that were cancelled with it.
func (s *BookingService) CancelSchedule(scheduleID, reason string) (*models.Schedule, []models.Booking, error) {
	tx, err := s.begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	schedule, err := s.scheduleRepo.Cancel(tx, scheduleID, reason)
	if err != nil {
		return nil, nil, err
	}

	active, err := s.bookingRepo.ListActiveBySchedule(tx, scheduleID)
	if err != nil {
		return nil, nil, err
	}

	cancelled := make([]models.Booking, 0, len(active))
	for _, booking := range active {
		b, err := s.bookingRepo.MarkCancelled(tx, booking.ID, &reason)
		if err != nil {
			return nil, nil, err
		}

		if b.NeedsRefund() {
			b, err = s.bookingRepo.MarkRefunded(tx, b.ID)
			if err != nil {
				return nil, nil, err
			}
		}

		if err := s.emitEvent(tx, models.EventBookingCancelled, b.ID, scheduleID); err != nil {
			return nil, nil, err
		}

		cancelled = append(cancelled, *b)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit schedule cancellation: %w", database.ClassifyError(err))
	}

	s.logger.WithFields(logrus.Fields{
		"schedule_id":        schedule.ID,
		"route":              schedule.RouteName,
		"bookings_cancelled": len(cancelled),
	}).Info("Schedule cancelled")

	for i := range cancelled {
		s.dispatch(&cancelled[i], schedule, models.NotificationTypeCancellation, reason)
	}

	return schedule, cancelled, nil
}

// GetBooking retrieves a booking joined with its schedule summary
func (s *BookingService) GetBooking(id string) (*models.BookingDetail, error) {
	return s.bookingRepo.GetDetail(id)
}

// ListBookings retrieves bookings joined with schedule summaries
func (s *BookingService) ListBookings(limit, offset int) ([]models.BookingDetail, error) {
	return s.bookingRepo.ListDetails(limit, offset)
}

// ListUserBookings retrieves a user's bookings
func (s *BookingService) ListUserBookings(userID string, limit, offset int) ([]models.BookingDetail, error) {
	return s.bookingRepo.ListByUser(userID, limit, offset)
}

// CreateSchedule creates a new schedule with all seats available
func (s *BookingService) CreateSchedule(req *models.CreateScheduleRequest) (*models.Schedule, error) {
	if !req.ArrivalAt.After(req.DepartureAt) {
		return nil, errors.New("arrival time must be after departure time")
	}

	schedule := &models.Schedule{
		RouteName:   req.RouteName,
		Origin:      req.Origin,
		Destination: req.Destination,
		BusNumber:   req.BusNumber,
		DepartureAt: req.DepartureAt,
		ArrivalAt:   req.ArrivalAt,
		Fare:        req.Fare,
		TotalSeats:  req.TotalSeats,
	}

	if err := s.scheduleRepo.Create(schedule); err != nil {
		return nil, err
	}

	return schedule, nil
}

// GetSchedule retrieves a schedule by ID
func (s *BookingService) GetSchedule(id string) (*models.Schedule, error) {
	return s.scheduleRepo.GetByID(id)
}

// ListSchedules retrieves upcoming schedules
func (s *BookingService) ListSchedules(limit, offset int) ([]models.Schedule, error) {
	return s.scheduleRepo.ListUpcoming(limit, offset)
}

// dispatch sends a best-effort notification for a booking. Bookings without
// a passenger email are skipped.
func (s *BookingService) dispatch(booking *models.Booking, schedule *models.Schedule, ntype models.NotificationType, reason string) {
	if s.notifier == nil || booking.PassengerEmail == nil || *booking.PassengerEmail == "" {
		return
	}

	trip := models.TripDetails{
		BookingReference: booking.BookingReference,
		RouteName:        schedule.RouteName,
		Origin:           schedule.Origin,
		Destination:      schedule.Destination,
		DepartureAt:      schedule.DepartureAt,
		SeatNumbers:      booking.SeatNumbers,
		Reason:           reason,
	}

	s.notifier.Notify(*booking.PassengerEmail, ntype, trip)
}
