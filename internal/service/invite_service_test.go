package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/models"
)

type stubInviteTokens struct {
	tokens map[string]*models.InviteToken
}

func newStubInviteTokens(tokens ...*models.InviteToken) *stubInviteTokens {
	s := &stubInviteTokens{tokens: map[string]*models.InviteToken{}}
	for _, token := range tokens {
		s.tokens[token.Token] = token
	}
	return s
}

func (s *stubInviteTokens) Create(_ context.Context, token *models.InviteToken) error {
	token.ID = uint(len(s.tokens) + 1)
	s.tokens[token.Token] = token
	return nil
}

func (s *stubInviteTokens) FindByToken(_ context.Context, token string) (models.InviteToken, error) {
	record, ok := s.tokens[token]
	if !ok {
		return models.InviteToken{}, gorm.ErrRecordNotFound
	}
	return *record, nil
}

func (s *stubInviteTokens) MarkUsed(_ context.Context, token string, usedAt time.Time) error {
	if record, ok := s.tokens[token]; ok && record.UsedAt == nil {
		record.UsedAt = &usedAt
		record.Active = false
	}
	return nil
}

func (s *stubInviteTokens) Deactivate(_ context.Context, token string) error {
	if record, ok := s.tokens[token]; ok {
		record.Active = false
	}
	return nil
}

func TestInviteServiceIssueGuardianTokensAreMultiUse(t *testing.T) {
	tokens := newStubInviteTokens()
	entities := newStubEntities(models.Entity{ID: 1, Name: "Club", DelegateEmail: "delegate@example.com"})
	svc := NewInviteService(tokens, entities, validator.New(), 14, testLogger())

	guardian, err := svc.Issue(context.Background(), dto.InviteCreateRequest{EntityID: 1, RoleScope: models.RoleGuardian})
	require.NoError(t, err)
	require.False(t, guardian.SingleUse)

	staff, err := svc.Issue(context.Background(), dto.InviteCreateRequest{EntityID: 1, RoleScope: models.RoleContactStaff})
	require.NoError(t, err)
	require.True(t, staff.SingleUse)
	require.NotEqual(t, guardian.Token, staff.Token)
}

func TestInviteServiceIssueRejectsUnknownEntity(t *testing.T) {
	svc := NewInviteService(newStubInviteTokens(), newStubEntities(), validator.New(), 14, testLogger())

	_, err := svc.Issue(context.Background(), dto.InviteCreateRequest{EntityID: 9, RoleScope: models.RoleGuardian})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInviteServiceResolveErrors(t *testing.T) {
	used := time.Now().UTC()
	tokens := newStubInviteTokens(
		&models.InviteToken{Token: "expired", EntityID: 1, RoleScope: models.RoleContactStaff, SingleUse: true, Active: true, ExpiresAt: time.Now().Add(-time.Hour)},
		&models.InviteToken{Token: "used", EntityID: 1, RoleScope: models.RoleContactStaff, SingleUse: true, ExpiresAt: time.Now().Add(time.Hour), UsedAt: &used},
		&models.InviteToken{Token: "revoked", EntityID: 1, RoleScope: models.RoleContactStaff, SingleUse: true, Active: false, ExpiresAt: time.Now().Add(time.Hour)},
	)
	entities := newStubEntities(models.Entity{ID: 1, Name: "Club", DelegateEmail: "delegate@example.com"})
	svc := NewInviteService(tokens, entities, validator.New(), 14, testLogger())

	_, _, err := svc.Resolve(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTokenNotFound)

	_, _, err = svc.Resolve(context.Background(), "expired")
	require.ErrorIs(t, err, ErrTokenExpired)

	_, _, err = svc.Resolve(context.Background(), "used")
	require.ErrorIs(t, err, ErrTokenAlreadyUsed)

	_, _, err = svc.Resolve(context.Background(), "revoked")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestInviteServiceResolveSharedTokenSurvivesUse(t *testing.T) {
	used := time.Now().UTC()
	tokens := newStubInviteTokens(
		&models.InviteToken{Token: "family", EntityID: 1, RoleScope: models.RoleGuardian, SingleUse: false, Active: true, ExpiresAt: time.Now().Add(time.Hour), UsedAt: &used},
	)
	entities := newStubEntities(models.Entity{ID: 1, Name: "Club", DelegateEmail: "delegate@example.com"})
	svc := NewInviteService(tokens, entities, validator.New(), 14, testLogger())

	token, entity, err := svc.Resolve(context.Background(), "family")
	require.NoError(t, err)
	require.Equal(t, models.RoleGuardian, token.RoleScope)
	require.Equal(t, "Club", entity.Name)
}
