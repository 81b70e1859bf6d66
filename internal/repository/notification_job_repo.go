package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// NotificationJobRepository handles persistence for notification jobs.
type NotificationJobRepository interface {
	Create(ctx context.Context, job *models.NotificationJob) error
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.NotificationJob, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.NotificationJob, error)
	// MarkSent moves a job queued -> sent; a job already picked up by a
	// concurrent dispatcher is left untouched.
	MarkSent(ctx context.Context, id uint, sentAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uint, reason string) error
}

type notificationJobRepository struct {
	db *gorm.DB
}

// NewNotificationJobRepository constructs a repository backed by GORM.
func NewNotificationJobRepository(db *gorm.DB) NotificationJobRepository {
	return &notificationJobRepository{db: db}
}

func (r *notificationJobRepository) Create(ctx context.Context, job *models.NotificationJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *notificationJobRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.NotificationJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var jobs []models.NotificationJob
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("scheduled_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *notificationJobRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.NotificationJob, error) {
	if limit <= 0 {
		limit = 50
	}

	var jobs []models.NotificationJob
	if err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.NotificationStatusQueued, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *notificationJobRepository) MarkSent(ctx context.Context, id uint, sentAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationJob{}).
		Where("id = ? AND status = ?", id, models.NotificationStatusQueued).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusSent,
			"sent_at": sentAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *notificationJobRepository) MarkFailed(ctx context.Context, id uint, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.NotificationJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.NotificationStatusFailed,
			"last_error": reason,
		}).Error
}
