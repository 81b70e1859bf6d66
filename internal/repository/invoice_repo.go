package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// InvoiceRepository handles persistence for settled charges.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	ListByEntity(ctx context.Context, entityID uint) ([]models.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository constructs a repository backed by GORM.
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) ListByEntity(ctx context.Context, entityID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("paid_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
