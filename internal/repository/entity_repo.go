package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// EntityRepository handles persistence for organization entities.
type EntityRepository interface {
	Create(ctx context.Context, entity *models.Entity) error
	FindByID(ctx context.Context, id uint) (models.Entity, error)
}

type entityRepository struct {
	db *gorm.DB
}

// NewEntityRepository constructs a repository backed by GORM.
func NewEntityRepository(db *gorm.DB) EntityRepository {
	return &entityRepository{db: db}
}

func (r *entityRepository) Create(ctx context.Context, entity *models.Entity) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *entityRepository) FindByID(ctx context.Context, id uint) (models.Entity, error) {
	var entity models.Entity
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		return models.Entity{}, err
	}
	return entity, nil
}
