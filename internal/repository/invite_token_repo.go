package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// InviteTokenRepository handles persistence for invitation tokens.
type InviteTokenRepository interface {
	Create(ctx context.Context, token *models.InviteToken) error
	FindByToken(ctx context.Context, token string) (models.InviteToken, error)
	// MarkUsed sets used_at once. A second call is a no-op, not an error.
	MarkUsed(ctx context.Context, token string, usedAt time.Time) error
	Deactivate(ctx context.Context, token string) error
}

type inviteTokenRepository struct {
	db *gorm.DB
}

// NewInviteTokenRepository constructs a repository backed by GORM.
func NewInviteTokenRepository(db *gorm.DB) InviteTokenRepository {
	return &inviteTokenRepository{db: db}
}

func (r *inviteTokenRepository) Create(ctx context.Context, token *models.InviteToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *inviteTokenRepository) FindByToken(ctx context.Context, token string) (models.InviteToken, error) {
	var record models.InviteToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		return models.InviteToken{}, err
	}
	return record, nil
}

func (r *inviteTokenRepository) MarkUsed(ctx context.Context, token string, usedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.InviteToken{}).
		Where("token = ? AND used_at IS NULL", token).
		Updates(map[string]interface{}{"used_at": usedAt, "active": false}).Error
}

func (r *inviteTokenRepository) Deactivate(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).
		Model(&models.InviteToken{}).
		Where("token = ?", token).
		Update("active", false).Error
}
