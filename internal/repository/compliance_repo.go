package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// ComplianceRepository handles persistence for entity compliance records.
type ComplianceRepository interface {
	FindOrCreate(ctx context.Context, entityID uint) (models.ComplianceRecord, error)
	FindByEntity(ctx context.Context, entityID uint) (models.ComplianceRecord, error)
	// EnsureDeadline sets deadline_at only when it is still null. Returns
	// true when this call won the race and set the date.
	EnsureDeadline(ctx context.Context, entityID uint, deadline time.Time) (bool, error)
	MarkPostponed(ctx context.Context, entityID uint, dimension string) error
	MarkDone(ctx context.Context, entityID uint, dimension string) error
	ListOverdue(ctx context.Context, now time.Time) ([]models.ComplianceRecord, error)
}

type complianceRepository struct {
	db *gorm.DB
}

// NewComplianceRepository constructs a repository backed by GORM.
func NewComplianceRepository(db *gorm.DB) ComplianceRepository {
	return &complianceRepository{db: db}
}

func (r *complianceRepository) FindOrCreate(ctx context.Context, entityID uint) (models.ComplianceRecord, error) {
	var record models.ComplianceRecord
	err := r.db.WithContext(ctx).
		Where(models.ComplianceRecord{EntityID: entityID}).
		FirstOrCreate(&record).Error
	if err != nil {
		return models.ComplianceRecord{}, err
	}
	return record, nil
}

func (r *complianceRepository) FindByEntity(ctx context.Context, entityID uint) (models.ComplianceRecord, error) {
	var record models.ComplianceRecord
	if err := r.db.WithContext(ctx).Where("entity_id = ?", entityID).First(&record).Error; err != nil {
		return models.ComplianceRecord{}, err
	}
	return record, nil
}

func (r *complianceRepository) EnsureDeadline(ctx context.Context, entityID uint, deadline time.Time) (bool, error) {
	if _, err := r.FindOrCreate(ctx, entityID); err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).
		Model(&models.ComplianceRecord{}).
		Where("entity_id = ? AND deadline_at IS NULL", entityID).
		Update("deadline_at", deadline)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *complianceRepository) MarkPostponed(ctx context.Context, entityID uint, dimension string) error {
	column, err := postponedColumn(dimension)
	if err != nil {
		return err
	}

	if _, err := r.FindOrCreate(ctx, entityID); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.ComplianceRecord{}).
		Where("entity_id = ?", entityID).
		Update(column, true).Error
}

func (r *complianceRepository) MarkDone(ctx context.Context, entityID uint, dimension string) error {
	column, err := doneColumn(dimension)
	if err != nil {
		return err
	}

	if _, err := r.FindOrCreate(ctx, entityID); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.ComplianceRecord{}).
		Where("entity_id = ?", entityID).
		Update(column, true).Error
}

func (r *complianceRepository) ListOverdue(ctx context.Context, now time.Time) ([]models.ComplianceRecord, error) {
	var records []models.ComplianceRecord
	if err := r.db.WithContext(ctx).
		Where("deadline_at IS NOT NULL AND deadline_at < ?", now).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func postponedColumn(dimension string) (string, error) {
	switch dimension {
	case models.DimensionChannel:
		return "channel_postponed", nil
	case models.DimensionRiskMap:
		return "risk_map_postponed", nil
	case models.DimensionCriminalRecords:
		return "criminal_records_postponed", nil
	default:
		return "", fmt.Errorf("unknown compliance dimension %q", dimension)
	}
}

func doneColumn(dimension string) (string, error) {
	switch dimension {
	case models.DimensionChannel:
		return "channel_done", nil
	case models.DimensionRiskMap:
		return "risk_map_done", nil
	case models.DimensionCriminalRecords:
		return "criminal_records_done", nil
	default:
		return "", fmt.Errorf("unknown compliance dimension %q", dimension)
	}
}
