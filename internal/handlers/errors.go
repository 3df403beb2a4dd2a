package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/routewise/booking-backend/internal/models"
	"github.com/routewise/booking-backend/internal/services"
)

// respondError maps a service error to an HTTP response. Conflicts between
// a request and current booking state are 409, transient infrastructure
// failures are 503 with a Retry-After hint, and anything unrecognized is a
// 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrScheduleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, models.ErrInsufficientSeats),
		errors.Is(err, models.ErrScheduleNotBookable),
		errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrSeatLimitExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case models.IsTransient(err):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary failure, please retry"})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
