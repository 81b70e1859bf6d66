package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// CertificateRepository handles persistence for clearance certificates.
type CertificateRepository interface {
	Create(ctx context.Context, record *models.CertificateRecord) error
	ListByPerson(ctx context.Context, personID uint) ([]models.CertificateRecord, error)
}

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository constructs a repository backed by GORM.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) Create(ctx context.Context, record *models.CertificateRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *certificateRepository) ListByPerson(ctx context.Context, personID uint) ([]models.CertificateRecord, error) {
	var records []models.CertificateRecord
	if err := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
