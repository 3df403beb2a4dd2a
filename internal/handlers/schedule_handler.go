package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/routewise/booking-backend/internal/models"
	"github.com/routewise/booking-backend/internal/services"
)

// ScheduleHandler handles schedule-related HTTP requests
type ScheduleHandler struct {
	service *services.BookingService
	logger  *logrus.Logger
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(service *services.BookingService, logger *logrus.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		logger:  logger,
	}
}

// CreateSchedule handles POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req models.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if !req.ArrivalAt.After(req.DepartureAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arrival time must be after departure time"})
		return
	}

	schedule, err := h.service.CreateSchedule(&req)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"route": req.RouteName,
			"error": err.Error(),
		}).Warn("Schedule creation failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"schedule": schedule})
}

// GetSchedule handles GET /api/v1/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.service.GetSchedule(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

// ListSchedules handles GET /api/v1/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	schedules, err := h.service.ListSchedules(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

// CancelSchedule handles POST /api/v1/schedules/:id/cancel. Cancelling a
// schedule cancels every active booking on it in the same transaction.
func (h *ScheduleHandler) CancelSchedule(c *gin.Context) {
	id := c.Param("id")

	var req models.CancelScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	schedule, cancelled, err := h.service.CancelSchedule(id, req.Reason)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"schedule_id": id,
			"error":       err.Error(),
		}).Warn("Schedule cancellation failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schedule":           schedule,
		"bookings_cancelled": len(cancelled),
	})
}
