package services

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routewise/booking-backend/internal/database"
	"github.com/routewise/booking-backend/internal/models"
	"github.com/routewise/booking-backend/pkg/mailer"
)

// fakeTransport fails the first failures sends, then succeeds
type fakeTransport struct {
	failures int
	calls    int
	sent     []mailer.Message
}

func (f *fakeTransport) Send(msg mailer.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return fmt.Errorf("gateway unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) GetName() string {
	return "Fake Transport"
}

func newTestDispatcher(t *testing.T, transport mailer.Transport, maxAttempts int) (*NotificationService, sqlmock.Sqlmock) {
	t.Helper()

	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })

	db := &database.PostgresDB{DB: sqlx.NewDb(rawDB, "sqlmock")}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewNotificationService(transport, database.NewNotificationRepository(db), logger, maxAttempts, 0), mock
}

func tripDetails() models.TripDetails {
	return models.TripDetails{
		BookingReference: "BK-20260828-042137",
		RouteName:        "Colombo Express",
		Origin:           "Colombo",
		Destination:      "Kandy",
		DepartureAt:      time.Now().Add(24 * time.Hour),
		SeatNumbers:      []string{"12A", "12B"},
	}
}

func TestNotify(t *testing.T) {
	t.Run("Success Writes Sent Record", func(t *testing.T) {
		transport := &fakeTransport{}
		service, mock := newTestDispatcher(t, transport, 3)

		mock.ExpectQuery(`INSERT INTO notifications`).
			WithArgs(sqlmock.AnyArg(), "rider@example.com", "confirmation",
				sqlmock.AnyArg(), sqlmock.AnyArg(), "sent", nil, 1).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		ok := service.Notify("rider@example.com", models.NotificationTypeConfirmation, tripDetails())
		assert.True(t, ok)
		assert.Equal(t, 1, transport.calls)

		require.Len(t, transport.sent, 1)
		assert.Equal(t, "rider@example.com", transport.sent[0].To)
		assert.Contains(t, transport.sent[0].Subject, "BK-20260828-042137")
		assert.Contains(t, transport.sent[0].Body, "12A, 12B")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Retry Then Success Still One Record", func(t *testing.T) {
		transport := &fakeTransport{failures: 1}
		service, mock := newTestDispatcher(t, transport, 3)

		mock.ExpectQuery(`INSERT INTO notifications`).
			WithArgs(sqlmock.AnyArg(), "rider@example.com", "reminder",
				sqlmock.AnyArg(), sqlmock.AnyArg(), "sent", nil, 2).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		ok := service.Notify("rider@example.com", models.NotificationTypeReminder, tripDetails())
		assert.True(t, ok)
		assert.Equal(t, 2, transport.calls)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exhausted Retries Write Failed Record", func(t *testing.T) {
		transport := &fakeTransport{failures: 10}
		service, mock := newTestDispatcher(t, transport, 3)

		mock.ExpectQuery(`INSERT INTO notifications`).
			WithArgs(sqlmock.AnyArg(), "rider@example.com", "cancellation",
				sqlmock.AnyArg(), sqlmock.AnyArg(), "failed", sqlmock.AnyArg(), 3).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		trip := tripDetails()
		trip.Reason = "schedule cancelled"

		ok := service.Notify("rider@example.com", models.NotificationTypeCancellation, trip)
		assert.False(t, ok)
		assert.Equal(t, 3, transport.calls)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Audit Failure Does Not Panic", func(t *testing.T) {
		transport := &fakeTransport{}
		service, mock := newTestDispatcher(t, transport, 1)

		mock.ExpectQuery(`INSERT INTO notifications`).
			WillReturnError(fmt.Errorf("insert failed"))

		ok := service.Notify("rider@example.com", models.NotificationTypeConfirmation, tripDetails())
		assert.True(t, ok)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRenderTemplate(t *testing.T) {
	trip := tripDetails()

	t.Run("Confirmation", func(t *testing.T) {
		subject, body := renderTemplate(models.NotificationTypeConfirmation, trip)
		assert.Contains(t, subject, "confirmed")
		assert.Contains(t, body, "Colombo Express")
		assert.Contains(t, body, "12A, 12B")
	})

	t.Run("Cancellation Includes Reason", func(t *testing.T) {
		trip.Reason = "mechanical failure"
		_, body := renderTemplate(models.NotificationTypeCancellation, trip)
		assert.Contains(t, body, "mechanical failure")
	})

	t.Run("Delay Includes Reason", func(t *testing.T) {
		trip.Reason = "road closure"
		subject, body := renderTemplate(models.NotificationTypeDelay, trip)
		assert.Contains(t, subject, "delayed")
		assert.Contains(t, body, "road closure")
	})
}
