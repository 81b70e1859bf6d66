package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// PersonRepository handles persistence for tracked subjects.
type PersonRepository interface {
	Create(ctx context.Context, person *models.Person) error
	FindByID(ctx context.Context, id uint) (models.Person, error)
	FindByIDWithDependents(ctx context.Context, id uint) (models.Person, error)
	ListInProgressByEntity(ctx context.Context, entityID uint) ([]models.Person, error)
	// TransitionStatus applies status "from" -> "to" only when the stored
	// status still matches "from". Returns false when another writer got
	// there first.
	TransitionStatus(ctx context.Context, id uint, from, to string) (bool, error)
	SetClearance(ctx context.Context, id uint, cleared bool) error
	SetDeadline(ctx context.Context, id uint, deadline time.Time) error
}

type personRepository struct {
	db *gorm.DB
}

// NewPersonRepository constructs a repository backed by GORM.
func NewPersonRepository(db *gorm.DB) PersonRepository {
	return &personRepository{db: db}
}

func (r *personRepository) Create(ctx context.Context, person *models.Person) error {
	return r.db.WithContext(ctx).Create(person).Error
}

func (r *personRepository) FindByID(ctx context.Context, id uint) (models.Person, error) {
	var person models.Person
	if err := r.db.WithContext(ctx).First(&person, id).Error; err != nil {
		return models.Person{}, err
	}
	return person, nil
}

func (r *personRepository) FindByIDWithDependents(ctx context.Context, id uint) (models.Person, error) {
	var person models.Person
	if err := r.db.WithContext(ctx).Preload("Dependents").First(&person, id).Error; err != nil {
		return models.Person{}, err
	}
	return person, nil
}

func (r *personRepository) ListInProgressByEntity(ctx context.Context, entityID uint) ([]models.Person, error) {
	var persons []models.Person
	if err := r.db.WithContext(ctx).
		Where("entity_id = ? AND status = ?", entityID, models.PersonStatusInProgress).
		Find(&persons).Error; err != nil {
		return nil, err
	}
	return persons, nil
}

func (r *personRepository) TransitionStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Person{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *personRepository) SetClearance(ctx context.Context, id uint, cleared bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Person{}).
		Where("id = ?", id).
		Update("clearance_on_file", cleared).Error
}

func (r *personRepository) SetDeadline(ctx context.Context, id uint, deadline time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Person{}).
		Where("id = ? AND deadline_at IS NULL", id).
		Update("deadline_at", deadline).Error
}
