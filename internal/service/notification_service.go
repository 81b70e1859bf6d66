package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/observability"
	"github.com/noah-isme/tutela-go-api/internal/repository"
)

const dispatchBatchSize = 50

// Notification template slugs emitted by state transitions.
const (
	TemplatePendingClearance   = "pending_clearance"
	TemplateOnboardingDelay    = "onboarding_delay"
	TemplateComplianceOverdue  = "compliance_overdue"
	TemplatePaymentSuccess     = "payment_success"
	TemplatePaymentRetryFailed = "payment_retry_failed"
	TemplatePaymentGracePeriod = "payment_grace_period"
)

// NotificationService records exactly one durable job per logical transition
// and hands queued jobs to the message broker for downstream delivery.
type NotificationService interface {
	// Enqueue inserts a job row. Callers at transition sites treat failures
	// as fire-and-forget: the transition itself must never be rolled back
	// because a notification could not be recorded.
	Enqueue(ctx context.Context, templateSlug, recipient string, payload map[string]interface{}) (uint, error)
	List(ctx context.Context, status string, limit, offset int) ([]dto.NotificationJobResponse, error)
	DispatchDue(ctx context.Context, now time.Time) (int, error)
	Start(ctx context.Context, interval time.Duration)
}

type notificationService struct {
	repo    repository.NotificationJobRepository
	nats    *nats.Conn
	subject string
	logger  zerolog.Logger
	tracer  trace.Tracer
}

type notificationEvent struct {
	JobID        uint                   `json:"job_id"`
	TemplateSlug string                 `json:"template_slug"`
	Recipient    string                 `json:"recipient"`
	Context      map[string]interface{} `json:"context,omitempty"`
	DispatchedAt time.Time              `json:"dispatched_at"`
}

// NewNotificationService constructs a notification service. The NATS
// connection may be nil; jobs then stay queued until a broker is available.
func NewNotificationService(repo repository.NotificationJobRepository, natsConn *nats.Conn, subject string, logger zerolog.Logger) NotificationService {
	if subject == "" {
		subject = "tutela.notifications"
	}

	return &notificationService{
		repo:    repo,
		nats:    natsConn,
		subject: subject,
		logger:  logger.With().Str("component", "notification_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/tutela-go-api/internal/service/notification"),
	}
}

func (s *notificationService) Enqueue(ctx context.Context, templateSlug, recipient string, payload map[string]interface{}) (uint, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.enqueue")
	defer span.End()

	job := models.NotificationJob{
		TemplateSlug: templateSlug,
		Recipient:    recipient,
		Context:      datatypes.JSONMap(payload),
		Status:       models.NotificationStatusQueued,
		ScheduledAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, &job); err != nil {
		span.RecordError(err)
		return 0, err
	}

	observability.NotificationsEnqueued().WithLabelValues(templateSlug).Inc()

	return job.ID, nil
}

func (s *notificationService) List(ctx context.Context, status string, limit, offset int) ([]dto.NotificationJobResponse, error) {
	if status == "" {
		status = models.NotificationStatusQueued
	}

	jobs, err := s.repo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationJobResponseSlice(jobs), nil
}

func (s *notificationService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	jobs, err := s.repo.ListDue(ctx, now, dispatchBatchSize)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, job := range jobs {
		if err := s.publish(job); err != nil {
			s.logger.Warn().Err(err).Uint("job_id", job.ID).Msg("failed to publish notification job")
			observability.NotificationsDispatched().WithLabelValues("failed").Inc()
			if markErr := s.repo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
				s.logger.Error().Err(markErr).Uint("job_id", job.ID).Msg("failed to mark notification job failed")
			}
			continue
		}

		applied, err := s.repo.MarkSent(ctx, job.ID, time.Now().UTC())
		if err != nil {
			s.logger.Error().Err(err).Uint("job_id", job.ID).Msg("failed to mark notification job sent")
			continue
		}
		if applied {
			dispatched++
			observability.NotificationsDispatched().WithLabelValues("sent").Inc()
		}
	}

	return dispatched, nil
}

// Start runs the dispatch loop until the context is cancelled.
func (s *notificationService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.DispatchDue(ctx, time.Now().UTC()); err != nil {
					s.logger.Error().Err(err).Msg("notification dispatch cycle failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *notificationService) publish(job models.NotificationJob) error {
	if s.nats == nil {
		return nats.ErrConnectionClosed
	}

	event := notificationEvent{
		JobID:        job.ID,
		TemplateSlug: job.TemplateSlug,
		Recipient:    job.Recipient,
		Context:      job.Context,
		DispatchedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.nats.Publish(s.subject, payload)
}
