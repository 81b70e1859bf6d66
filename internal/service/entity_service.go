package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/repository"
)

// EntityService onboards organizations and exposes their records.
type EntityService interface {
	// Register creates the entity together with its billing account and an
	// empty compliance record.
	Register(ctx context.Context, req dto.EntityCreateRequest) (dto.EntityResponse, error)
	Get(ctx context.Context, id uint) (dto.EntityResponse, error)
}

type entityService struct {
	entities        repository.EntityRepository
	billing         repository.BillingRepository
	compliance      repository.ComplianceRepository
	validator       *validator.Validate
	sanitizer       *bluemonday.Policy
	logger          zerolog.Logger
	tracer          trace.Tracer
	monthlyFeeCents int64
}

// NewEntityService constructs an entity service.
func NewEntityService(entities repository.EntityRepository, billing repository.BillingRepository, compliance repository.ComplianceRepository, validate *validator.Validate, monthlyFeeCents int64, logger zerolog.Logger) EntityService {
	return &entityService{
		entities:        entities,
		billing:         billing,
		compliance:      compliance,
		validator:       validate,
		sanitizer:       bluemonday.StrictPolicy(),
		logger:          logger.With().Str("component", "entity_service").Logger(),
		tracer:          otel.Tracer("github.com/noah-isme/tutela-go-api/internal/service/entity"),
		monthlyFeeCents: monthlyFeeCents,
	}
}

func (s *entityService) Register(ctx context.Context, req dto.EntityCreateRequest) (dto.EntityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "entities.register")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return dto.EntityResponse{}, err
	}

	channel := req.Channel
	if channel == "" {
		channel = "email"
	}

	entity := models.Entity{
		Name:          s.sanitizer.Sanitize(req.Name),
		Sector:        s.sanitizer.Sanitize(req.Sector),
		DelegateName:  s.sanitizer.Sanitize(req.DelegateName),
		DelegateEmail: req.DelegateEmail,
		Channel:       channel,
	}

	if err := s.entities.Create(ctx, &entity); err != nil {
		span.RecordError(err)
		return dto.EntityResponse{}, err
	}

	account := models.BillingAccount{
		EntityID:        entity.ID,
		PaymentMethodID: req.PaymentMethodID,
		AmountCents:     s.monthlyFeeCents,
		Currency:        "eur",
		DueDate:         time.Now().UTC().AddDate(0, 1, 0),
		PaymentStatus:   models.PaymentStatusReminded,
		AccountStatus:   models.AccountStatusActive,
	}
	if err := s.billing.Create(ctx, &account); err != nil {
		span.RecordError(err)
		return dto.EntityResponse{}, err
	}

	if _, err := s.compliance.FindOrCreate(ctx, entity.ID); err != nil {
		span.RecordError(err)
		return dto.EntityResponse{}, err
	}

	s.logger.Info().Uint("entity_id", entity.ID).Str("name", entity.Name).Msg("entity onboarded")

	return dto.NewEntityResponse(entity), nil
}

func (s *entityService) Get(ctx context.Context, id uint) (dto.EntityResponse, error) {
	entity, err := s.entities.FindByID(ctx, id)
	if err != nil {
		return dto.EntityResponse{}, err
	}
	return dto.NewEntityResponse(entity), nil
}
