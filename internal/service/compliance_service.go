package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/observability"
	"github.com/noah-isme/tutela-go-api/internal/repository"
)

// ComplianceService tracks per-entity onboarding requirements and the shared
// compliance deadline.
type ComplianceService interface {
	// EnsureDeadline arms the entity deadline if none is set yet. Returns
	// true when this call armed it.
	EnsureDeadline(ctx context.Context, entityID uint, now time.Time) (bool, error)
	// Postpone marks a dimension as deferred, which arms the deadline and
	// queues a delay notice to the entity delegate.
	Postpone(ctx context.Context, entityID uint, dimension string) error
	MarkDone(ctx context.Context, entityID uint, dimension string) error
	Status(ctx context.Context, entityID uint) (dto.ComplianceStatusResponse, error)
	IsOverdue(ctx context.Context, entityID uint, now time.Time) (bool, error)
	// SweepOverdue blocks every in-progress person of entities whose
	// deadline has passed and queues one overdue notice per entity.
	SweepOverdue(ctx context.Context, now time.Time) (dto.SweepRunResponse, error)
}

type complianceService struct {
	compliance    repository.ComplianceRepository
	persons       repository.PersonRepository
	entities      repository.EntityRepository
	notifications NotificationService
	logger        zerolog.Logger
	tracer        trace.Tracer
	deadlineDays  int
}

// NewComplianceService constructs a compliance service.
func NewComplianceService(compliance repository.ComplianceRepository, persons repository.PersonRepository, entities repository.EntityRepository, notifications NotificationService, deadlineDays int, logger zerolog.Logger) ComplianceService {
	if deadlineDays <= 0 {
		deadlineDays = 30
	}

	return &complianceService{
		compliance:    compliance,
		persons:       persons,
		entities:      entities,
		notifications: notifications,
		logger:        logger.With().Str("component", "compliance_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/tutela-go-api/internal/service/compliance"),
		deadlineDays:  deadlineDays,
	}
}

func (s *complianceService) EnsureDeadline(ctx context.Context, entityID uint, now time.Time) (bool, error) {
	deadline := now.UTC().AddDate(0, 0, s.deadlineDays)

	armed, err := s.compliance.EnsureDeadline(ctx, entityID, deadline)
	if err != nil {
		return false, err
	}
	if armed {
		s.logger.Info().Uint("entity_id", entityID).Time("deadline_at", deadline).Msg("compliance deadline armed")
	}
	return armed, nil
}

func (s *complianceService) Postpone(ctx context.Context, entityID uint, dimension string) error {
	ctx, span := s.tracer.Start(ctx, "compliance.postpone", trace.WithAttributes(
		attribute.Int("entity_id", int(entityID)),
		attribute.String("dimension", dimension),
	))
	defer span.End()

	if err := s.compliance.MarkPostponed(ctx, entityID, dimension); err != nil {
		span.RecordError(err)
		return err
	}

	if _, err := s.EnsureDeadline(ctx, entityID, time.Now()); err != nil {
		span.RecordError(err)
		return err
	}

	s.notifyDelegate(ctx, entityID, TemplateOnboardingDelay, map[string]interface{}{
		"dimension": dimension,
	})

	return nil
}

func (s *complianceService) MarkDone(ctx context.Context, entityID uint, dimension string) error {
	return s.compliance.MarkDone(ctx, entityID, dimension)
}

func (s *complianceService) Status(ctx context.Context, entityID uint) (dto.ComplianceStatusResponse, error) {
	record, err := s.compliance.FindOrCreate(ctx, entityID)
	if err != nil {
		return dto.ComplianceStatusResponse{}, err
	}
	return dto.NewComplianceStatusResponse(record, time.Now().UTC()), nil
}

func (s *complianceService) IsOverdue(ctx context.Context, entityID uint, now time.Time) (bool, error) {
	record, err := s.compliance.FindByEntity(ctx, entityID)
	if err != nil {
		return false, err
	}
	return record.Overdue(now), nil
}

func (s *complianceService) SweepOverdue(ctx context.Context, now time.Time) (dto.SweepRunResponse, error) {
	ctx, span := s.tracer.Start(ctx, "compliance.sweep_overdue")
	defer span.End()

	started := time.Now()
	defer func() {
		observability.BatchRunDuration().WithLabelValues("compliance_sweep").Observe(time.Since(started).Seconds())
	}()

	records, err := s.compliance.ListOverdue(ctx, now)
	if err != nil {
		span.RecordError(err)
		return dto.SweepRunResponse{}, err
	}

	var result dto.SweepRunResponse
	for _, record := range records {
		blocked, err := s.sweepEntity(ctx, record)
		if err != nil {
			s.logger.Error().Err(err).Uint("entity_id", record.EntityID).Msg("compliance sweep failed for entity")
			result.Errored++
			continue
		}

		result.OverdueEntities++
		result.BlockedPersons += blocked
	}

	s.logger.Info().
		Int("overdue_entities", result.OverdueEntities).
		Int("blocked_persons", result.BlockedPersons).
		Int("errored", result.Errored).
		Msg("compliance sweep finished")

	return result, nil
}

// sweepEntity blocks the entity's in-progress persons. A panic in one entity
// must not take down the rest of the sweep.
func (s *complianceService) sweepEntity(ctx context.Context, record models.ComplianceRecord) (blocked int, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Uint("entity_id", record.EntityID).Msg("panic while sweeping entity")
			err = context.Canceled
		}
	}()

	persons, err := s.persons.ListInProgressByEntity(ctx, record.EntityID)
	if err != nil {
		return 0, err
	}

	for _, person := range persons {
		applied, err := s.persons.TransitionStatus(ctx, person.ID, models.PersonStatusInProgress, models.PersonStatusBlocked)
		if err != nil {
			return blocked, err
		}
		if applied {
			blocked++
		}
	}

	if blocked > 0 {
		s.notifyDelegate(ctx, record.EntityID, TemplateComplianceOverdue, map[string]interface{}{
			"blocked_persons": blocked,
			"deadline_at":     record.DeadlineAt,
		})
	}

	return blocked, nil
}

// notifyDelegate enqueues a job addressed to the entity delegate. Failures
// are logged and swallowed; notifications never veto a state transition.
func (s *complianceService) notifyDelegate(ctx context.Context, entityID uint, template string, payload map[string]interface{}) {
	entity, err := s.entities.FindByID(ctx, entityID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("entity_id", entityID).Msg("failed to load entity for notification")
		return
	}

	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["entity_id"] = entityID
	payload["entity_name"] = entity.Name

	if _, err := s.notifications.Enqueue(ctx, template, entity.DelegateEmail, payload); err != nil {
		s.logger.Warn().Err(err).Uint("entity_id", entityID).Str("template", template).Msg("failed to enqueue notification")
	}
}
