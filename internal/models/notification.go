package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification job lifecycle states.
const (
	NotificationStatusQueued = "queued"
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// NotificationJob is one durable delivery request. Exactly one row is
// written per logical state transition; delivery itself belongs to the
// downstream dispatcher.
type NotificationJob struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	TemplateSlug string            `gorm:"size:64;not null;index" json:"template_slug"`
	Recipient    string            `gorm:"size:255;not null" json:"recipient"`
	Context      datatypes.JSONMap `gorm:"type:json" json:"context"`
	Status       string            `gorm:"size:16;not null;default:queued;index" json:"status"`
	ScheduledAt  time.Time         `gorm:"not null;index" json:"scheduled_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	LastError    string            `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
