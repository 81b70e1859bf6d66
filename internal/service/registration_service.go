package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/observability"
	"github.com/noah-isme/tutela-go-api/internal/repository"
)

var (
	// ErrRoleScopeMismatch indicates the submitted role does not match the
	// role the invitation was issued for.
	ErrRoleScopeMismatch = errors.New("role does not match invitation scope")
	// ErrRolePayloadMissing indicates the section matching the declared role
	// was absent from the submission.
	ErrRolePayloadMissing = errors.New("role payload section missing")
	// ErrChildrenRequired indicates a guardian registered without dependents.
	ErrChildrenRequired = errors.New("guardian registration requires at least one dependent")
)

// RegistrationService turns a resolved invitation plus a role-tagged payload
// into a tracked person.
type RegistrationService interface {
	Register(ctx context.Context, token string, req dto.RegistrationRequest) (dto.PersonResponse, error)
	GetPerson(ctx context.Context, id uint) (dto.PersonResponse, error)
}

type registrationService struct {
	invites       InviteService
	persons       repository.PersonRepository
	compliance    ComplianceService
	notifications NotificationService
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
	deadlineDays  int
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(invites InviteService, persons repository.PersonRepository, compliance ComplianceService, notifications NotificationService, validate *validator.Validate, deadlineDays int, logger zerolog.Logger) RegistrationService {
	if deadlineDays <= 0 {
		deadlineDays = 30
	}

	return &registrationService{
		invites:       invites,
		persons:       persons,
		compliance:    compliance,
		notifications: notifications,
		validator:     validate,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "registration_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/tutela-go-api/internal/service/registration"),
		deadlineDays:  deadlineDays,
	}
}

func (s *registrationService) Register(ctx context.Context, token string, req dto.RegistrationRequest) (dto.PersonResponse, error) {
	ctx, span := s.tracer.Start(ctx, "registrations.register", trace.WithAttributes(
		attribute.String("registration.role", req.Role),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		observability.Registrations().WithLabelValues(req.Role, "rejected").Inc()
		return dto.PersonResponse{}, err
	}

	invitation, entity, err := s.invites.Resolve(ctx, token)
	if err != nil {
		span.RecordError(err)
		observability.Registrations().WithLabelValues(req.Role, "rejected").Inc()
		return dto.PersonResponse{}, err
	}

	if req.Role != invitation.RoleScope {
		observability.Registrations().WithLabelValues(req.Role, "rejected").Inc()
		return dto.PersonResponse{}, ErrRoleScopeMismatch
	}

	person, err := s.buildPerson(entity.ID, token, req)
	if err != nil {
		span.RecordError(err)
		observability.Registrations().WithLabelValues(req.Role, "rejected").Inc()
		return dto.PersonResponse{}, err
	}

	if err := s.persons.Create(ctx, &person); err != nil {
		span.RecordError(err)
		observability.Registrations().WithLabelValues(req.Role, "errored").Inc()
		return dto.PersonResponse{}, err
	}

	if person.Status == models.PersonStatusInProgress {
		s.armDeadlines(ctx, entity, &person)
	}

	if invitation.SingleUse {
		if err := s.invites.MarkUsed(ctx, token); err != nil {
			s.logger.Warn().Err(err).Str("token", token).Msg("failed to consume invitation token")
		}
	}

	observability.Registrations().WithLabelValues(req.Role, "accepted").Inc()
	s.logger.Info().
		Uint("person_id", person.ID).
		Uint("entity_id", entity.ID).
		Str("role", person.Role).
		Str("status", person.Status).
		Msg("registration accepted")

	return dto.NewPersonResponse(person), nil
}

func (s *registrationService) GetPerson(ctx context.Context, id uint) (dto.PersonResponse, error) {
	person, err := s.persons.FindByIDWithDependents(ctx, id)
	if err != nil {
		return dto.PersonResponse{}, err
	}
	return dto.NewPersonResponse(person), nil
}

// buildPerson validates the role section and assembles the initial person
// state. Roles without pending requirements complete immediately.
func (s *registrationService) buildPerson(entityID uint, token string, req dto.RegistrationRequest) (models.Person, error) {
	person := models.Person{
		EntityID:    entityID,
		Role:        req.Role,
		FullName:    s.sanitizer.Sanitize(req.FullName),
		Email:       req.Email,
		InviteToken: token,
	}

	switch req.Role {
	case models.RoleContactStaff:
		payload := req.ContactStaff
		if payload == nil {
			return models.Person{}, ErrRolePayloadMissing
		}
		person.LegalID = s.sanitizer.Sanitize(payload.LegalID)
		person.Position = s.sanitizer.Sanitize(payload.Position)
		person.Site = s.sanitizer.Sanitize(payload.Site)
		person.Schedule = s.sanitizer.Sanitize(payload.Schedule)
		person.HasDirectContact = true
		person.ClearanceOnFile = payload.HasClearance
		person.Status = models.PersonStatusInProgress

	case models.RoleNonContactStaff:
		payload := req.NonContactStaff
		if payload == nil {
			return models.Person{}, ErrRolePayloadMissing
		}
		person.Area = s.sanitizer.Sanitize(payload.Area)
		person.Status = models.PersonStatusComplete

	case models.RoleLeadership:
		payload := req.Leadership
		if payload == nil {
			return models.Person{}, ErrRolePayloadMissing
		}
		person.Position = s.sanitizer.Sanitize(payload.Position)
		person.HasDirectContact = payload.HasDirectContact
		person.ClearanceOnFile = payload.HasClearance
		if payload.HasDirectContact {
			person.Status = models.PersonStatusInProgress
		} else {
			person.Status = models.PersonStatusComplete
		}

	case models.RoleGuardian:
		payload := req.Guardian
		if payload == nil {
			return models.Person{}, ErrRolePayloadMissing
		}
		if len(payload.Dependents) == 0 {
			return models.Person{}, ErrChildrenRequired
		}
		for _, dependent := range payload.Dependents {
			person.Dependents = append(person.Dependents, models.Dependent{
				FullName:  s.sanitizer.Sanitize(dependent.FullName),
				BirthDate: dependent.BirthDate,
				Notes:     s.sanitizer.Sanitize(dependent.Notes),
			})
		}
		person.Status = models.PersonStatusComplete
	}

	return person, nil
}

// armDeadlines sets the person and entity deadlines for a registration that
// left pending requirements, and notifies the delegate when the clearance
// certificate is still missing.
func (s *registrationService) armDeadlines(ctx context.Context, entity models.Entity, person *models.Person) {
	now := time.Now().UTC()
	deadline := now.AddDate(0, 0, s.deadlineDays)

	if err := s.persons.SetDeadline(ctx, person.ID, deadline); err != nil {
		s.logger.Warn().Err(err).Uint("person_id", person.ID).Msg("failed to set person deadline")
	} else {
		person.DeadlineAt = &deadline
	}

	if _, err := s.compliance.EnsureDeadline(ctx, entity.ID, now); err != nil {
		s.logger.Warn().Err(err).Uint("entity_id", entity.ID).Msg("failed to arm compliance deadline")
	}

	if !person.ClearanceOnFile {
		payload := map[string]interface{}{
			"person_id":   person.ID,
			"person_name": person.FullName,
			"entity_id":   entity.ID,
			"deadline_at": deadline,
		}
		if _, err := s.notifications.Enqueue(ctx, TemplatePendingClearance, entity.DelegateEmail, payload); err != nil {
			s.logger.Warn().Err(err).Uint("person_id", person.ID).Msg("failed to enqueue pending clearance notification")
		}
	}
}
