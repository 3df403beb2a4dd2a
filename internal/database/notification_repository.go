package database

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/routewise/booking-backend/internal/models"
)

// NotificationRepository persists the append-only notification audit log
type NotificationRepository struct {
	db DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Insert appends a dispatch record. Records are never updated afterwards.
func (r *NotificationRepository) Insert(record *models.NotificationRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	query := `
		INSERT INTO notifications (
			id, recipient, type, subject, body, status, error_message, attempts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRowx(query,
		record.ID,
		record.Recipient,
		record.Type,
		record.Subject,
		record.Body,
		record.Status,
		record.ErrorMessage,
		record.Attempts,
	).Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification record: %w", ClassifyError(err))
	}

	return nil
}

// ListRecent retrieves dispatch records, newest first
func (r *NotificationRepository) ListRecent(limit, offset int) ([]models.NotificationRecord, error) {
	query := `
		SELECT id, recipient, type, subject, body, status, error_message, attempts, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	records := []models.NotificationRecord{}
	err := r.db.Select(&records, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification records: %w", ClassifyError(err))
	}

	return records, nil
}
