package dto

import (
	"time"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// NotificationJobResponse represents a queued notification job.
type NotificationJobResponse struct {
	ID           uint                   `json:"id"`
	TemplateSlug string                 `json:"template_slug"`
	Recipient    string                 `json:"recipient"`
	Context      map[string]interface{} `json:"context,omitempty"`
	Status       string                 `json:"status"`
	ScheduledAt  time.Time              `json:"scheduled_at"`
	SentAt       *time.Time             `json:"sent_at,omitempty"`
	LastError    string                 `json:"last_error,omitempty"`
}

// NewNotificationJobResponse converts a job model into a DTO.
func NewNotificationJobResponse(job models.NotificationJob) NotificationJobResponse {
	return NotificationJobResponse{
		ID:           job.ID,
		TemplateSlug: job.TemplateSlug,
		Recipient:    job.Recipient,
		Context:      job.Context,
		Status:       job.Status,
		ScheduledAt:  job.ScheduledAt,
		SentAt:       job.SentAt,
		LastError:    job.LastError,
	}
}

// NewNotificationJobResponseSlice converts a slice of jobs into DTOs.
func NewNotificationJobResponseSlice(jobs []models.NotificationJob) []NotificationJobResponse {
	out := make([]NotificationJobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, NewNotificationJobResponse(job))
	}
	return out
}
