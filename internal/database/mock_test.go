package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// newMockDB wraps a sqlmock connection in the sqlx-backed DB used by the
// repositories
func newMockDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

var scheduleTestColumns = []string{
	"id", "route_name", "origin", "destination", "bus_number",
	"departure_at", "arrival_at", "fare", "total_seats", "available_seats",
	"status", "cancellation_reason", "cancelled_at", "created_at", "updated_at",
}

var bookingTestColumns = []string{
	"id", "booking_reference", "schedule_id", "user_id", "seat_numbers",
	"total_fare", "status", "payment_method", "payment_status", "passenger_email",
	"cancellation_reason", "cancelled_at", "created_at", "updated_at",
}
