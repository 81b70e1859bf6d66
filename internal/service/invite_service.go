package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/repository"
)

var (
	// ErrTokenNotFound indicates no active invitation matches the token.
	ErrTokenNotFound = errors.New("invitation token not found")
	// ErrTokenExpired indicates the invitation lifetime has elapsed.
	ErrTokenExpired = errors.New("invitation token expired")
	// ErrTokenAlreadyUsed indicates a single-use invitation was consumed.
	ErrTokenAlreadyUsed = errors.New("invitation token already used")
)

// InviteService issues and resolves time-bound registration tokens.
type InviteService interface {
	Issue(ctx context.Context, req dto.InviteCreateRequest) (dto.InviteResponse, error)
	// Resolve validates the token and returns it with the owning entity.
	Resolve(ctx context.Context, token string) (models.InviteToken, models.Entity, error)
	// MarkUsed consumes a token. Marking a token twice is a no-op.
	MarkUsed(ctx context.Context, token string) error
}

type inviteService struct {
	tokens     repository.InviteTokenRepository
	entities   repository.EntityRepository
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	defaultTTL int
}

// NewInviteService constructs an invitation service.
func NewInviteService(tokens repository.InviteTokenRepository, entities repository.EntityRepository, validate *validator.Validate, defaultTTLDays int, logger zerolog.Logger) InviteService {
	if defaultTTLDays <= 0 {
		defaultTTLDays = 14
	}

	return &inviteService{
		tokens:     tokens,
		entities:   entities,
		validator:  validate,
		logger:     logger.With().Str("component", "invite_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/tutela-go-api/internal/service/invite"),
		defaultTTL: defaultTTLDays,
	}
}

func (s *inviteService) Issue(ctx context.Context, req dto.InviteCreateRequest) (dto.InviteResponse, error) {
	ctx, span := s.tracer.Start(ctx, "invites.issue", trace.WithAttributes(
		attribute.Int("invite.entity_id", int(req.EntityID)),
		attribute.String("invite.role_scope", req.RoleScope),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return dto.InviteResponse{}, err
	}

	if _, err := s.entities.FindByID(ctx, req.EntityID); err != nil {
		span.RecordError(err)
		return dto.InviteResponse{}, err
	}

	ttl := req.TTLDays
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	token := models.InviteToken{
		Token:     uuid.NewString(),
		EntityID:  req.EntityID,
		RoleScope: req.RoleScope,
		// Guardian links are shared with many families; staff links bind a
		// single subject.
		SingleUse: req.RoleScope != models.RoleGuardian,
		Active:    true,
		ExpiresAt: time.Now().UTC().AddDate(0, 0, ttl),
	}

	if err := s.tokens.Create(ctx, &token); err != nil {
		span.RecordError(err)
		return dto.InviteResponse{}, err
	}

	s.logger.Info().Uint("entity_id", req.EntityID).Str("role_scope", req.RoleScope).Msg("invitation issued")

	return dto.NewInviteResponse(token), nil
}

func (s *inviteService) Resolve(ctx context.Context, token string) (models.InviteToken, models.Entity, error) {
	ctx, span := s.tracer.Start(ctx, "invites.resolve")
	defer span.End()

	record, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.InviteToken{}, models.Entity{}, ErrTokenNotFound
		}
		span.RecordError(err)
		return models.InviteToken{}, models.Entity{}, err
	}

	now := time.Now().UTC()
	if record.Expired(now) {
		return models.InviteToken{}, models.Entity{}, ErrTokenExpired
	}
	if record.SingleUse && record.UsedAt != nil {
		return models.InviteToken{}, models.Entity{}, ErrTokenAlreadyUsed
	}
	if !record.Active {
		// Deactivated by an operator; consumed single-use tokens were
		// already reported above.
		return models.InviteToken{}, models.Entity{}, ErrTokenNotFound
	}

	entity, err := s.entities.FindByID(ctx, record.EntityID)
	if err != nil {
		span.RecordError(err)
		return models.InviteToken{}, models.Entity{}, err
	}

	return record, entity, nil
}

func (s *inviteService) MarkUsed(ctx context.Context, token string) error {
	return s.tokens.MarkUsed(ctx, token, time.Now().UTC())
}
