package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routewise/booking-backend/internal/models"
)

func bookingRow(id, status, paymentStatus string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingTestColumns).AddRow(
		id, "BK-20260828-042137", "sched-1", "user-1", []byte(`{12A,12B}`),
		3000.0, status, nil, paymentStatus, "rider@example.com",
		nil, nil, now, now,
	)
}

func TestGenerateReference(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		ref, err := repo.GenerateReference()
		require.NoError(t, err)
		assert.Regexp(t, `^BK-\d{8}-\d{6}$`, ref)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Retries On Collision", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		ref, err := repo.GenerateReference()
		require.NoError(t, err)
		assert.NotEmpty(t, ref)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO bookings`).
			WithArgs(sqlmock.AnyArg(), "BK-20260828-042137", "sched-1", "user-1",
				sqlmock.AnyArg(), 3000.0, "pending", nil, "pending", nil).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		booking := &models.Booking{
			BookingReference: "BK-20260828-042137",
			ScheduleID:       "sched-1",
			UserID:           "user-1",
			SeatNumbers:      models.StringArray{"12A", "12B"},
			TotalFare:        3000.0,
		}

		err := repo.Create(db, booking)
		require.NoError(t, err)
		assert.NotEmpty(t, booking.ID)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.Equal(t, models.PaymentStatusPending, booking.PaymentStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(fmt.Errorf("insert failed"))

		booking := &models.Booking{
			BookingReference: "BK-20260828-042138",
			ScheduleID:       "sched-1",
			UserID:           "user-1",
			SeatNumbers:      models.StringArray{"14C"},
			TotalFare:        1500.0,
		}

		err := repo.Create(db, booking)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create booking")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`FROM bookings WHERE id`).
			WithArgs("booking-1").
			WillReturnRows(bookingRow("booking-1", "pending", "pending"))

		booking, err := repo.GetByID("booking-1")
		require.NoError(t, err)
		assert.Equal(t, "booking-1", booking.ID)
		assert.Equal(t, models.StringArray{"12A", "12B"}, booking.SeatNumbers)
		assert.Equal(t, 2, booking.SeatCount())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`FROM bookings WHERE id`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		booking, err := repo.GetByID("missing")
		assert.Nil(t, booking)
		assert.ErrorIs(t, err, models.ErrBookingNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkConfirmed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Promotes Pending Payment", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs("booking-1", "confirmed", "pending", "paid").
			WillReturnRows(bookingRow("booking-1", "confirmed", "paid"))

		booking, err := repo.MarkConfirmed(db, "booking-1")
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, models.PaymentStatusPaid, booking.PaymentStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Keeps Failed Payment", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs("booking-1", "confirmed", "pending", "paid").
			WillReturnRows(bookingRow("booking-1", "confirmed", "failed"))

		booking, err := repo.MarkConfirmed(db, "booking-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, booking.PaymentStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs("missing", "confirmed", "pending", "paid").
			WillReturnError(sql.ErrNoRows)

		booking, err := repo.MarkConfirmed(db, "missing")
		assert.Nil(t, booking)
		assert.ErrorIs(t, err, models.ErrBookingNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkCancelled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		reason := "change of plans"
		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs("booking-1", "cancelled", &reason, sqlmock.AnyArg()).
			WillReturnRows(bookingRow("booking-1", "cancelled", "pending"))

		booking, err := repo.MarkCancelled(db, "booking-1", &reason)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs("missing", "cancelled", nil, sqlmock.AnyArg()).
			WillReturnError(sql.ErrNoRows)

		booking, err := repo.MarkCancelled(db, "missing", nil)
		assert.Nil(t, booking)
		assert.ErrorIs(t, err, models.ErrBookingNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetRecentDetails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	now := time.Now()
	detailColumns := append(append([]string{}, bookingTestColumns...),
		"route_name", "origin", "destination", "bus_number", "departure_at")

	mock.ExpectQuery(`FROM bookings b`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(detailColumns).AddRow(
			"booking-1", "BK-20260828-042137", "sched-1", "user-1", []byte(`{12A}`),
			1500.0, "confirmed", nil, "paid", nil,
			nil, nil, now, now,
			"Colombo Express", "Colombo", "Kandy", "NB-4521", now.Add(24*time.Hour),
		))

	details, err := repo.GetRecentDetails(50)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "booking-1", details[0].ID)
	assert.Equal(t, "Colombo Express", details[0].RouteName)
	assert.Equal(t, models.BookingStatusConfirmed, details[0].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}
