package database

import (
	"database/sql/driver"
	"errors"
	"io"

	"github.com/lib/pq"

	"github.com/routewise/booking-backend/internal/models"
)

// Postgres error codes that indicate a retriable condition rather than a
// permanent failure of the statement.
const (
	pqCodeSerializationFailure = "40001"
	pqCodeDeadlockDetected     = "40P01"
	pqCodeQueryCanceled        = "57014"
	pqCodeLockNotAvailable     = "55P03"
)

// ClassifyError wraps infrastructure failures in models.TransientError so
// callers can distinguish "retry may succeed" from "request is wrong".
// Deadlocks, serialization failures, statement timeouts and connection
// drops are transient; everything else passes through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) {
		return &models.TransientError{Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqCodeSerializationFailure, pqCodeDeadlockDetected, pqCodeQueryCanceled, pqCodeLockNotAvailable:
			return &models.TransientError{Err: err}
		}
		// Class 08 covers connection exceptions
		if pqErr.Code.Class() == "08" {
			return &models.TransientError{Err: err}
		}
	}

	return err
}
