package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/routewise/booking-backend/internal/models"
	"github.com/routewise/booking-backend/internal/services"
)

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	service *services.BookingService
	logger  *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		logger:  logger,
	}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, schedule, err := h.service.CreateBooking(&req)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"schedule_id": req.ScheduleID,
			"user_id":     req.UserID,
			"error":       err.Error(),
		}).Warn("Booking creation failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking":          booking,
		"updated_schedule": schedule,
	})
}

// UpdateBooking handles PATCH /api/v1/bookings/:id. The only accepted
// target statuses are confirmed and cancelled.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id := c.Param("id")

	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	var booking *models.Booking
	var err error

	switch req.Status {
	case models.BookingStatusConfirmed:
		booking, err = h.service.ConfirmBooking(id)
	case models.BookingStatusCancelled:
		booking, err = h.service.CancelBooking(id, req.Reason)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be 'confirmed' or 'cancelled'"})
		return
	}

	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"booking_id": id,
			"status":     req.Status,
			"error":      err.Error(),
		}).Warn("Booking update failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.service.GetBooking(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ListBookings handles GET /api/v1/bookings. An optional user_id query
// parameter narrows the list to one user's bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var bookings []models.BookingDetail
	var err error

	if userID := c.Query("user_id"); userID != "" {
		bookings, err = h.service.ListUserBookings(userID, limit, offset)
	} else {
		bookings, err = h.service.ListBookings(limit, offset)
	}

	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// parseIntQuery parses an integer query parameter with a default
func parseIntQuery(c *gin.Context, name string, defaultValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
