package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// BillingRepository handles persistence for billing accounts. All state
// transitions are conditional updates guarded by the expected pre-state so
// duplicated batch invocations cannot double-apply them.
type BillingRepository interface {
	Create(ctx context.Context, account *models.BillingAccount) error
	FindByEntity(ctx context.Context, entityID uint) (models.BillingAccount, error)
	ListEligibleForRetry(ctx context.Context, dueBy time.Time, maxRetries int) ([]models.BillingAccount, error)
	// MarkPaid finalizes a successful charge. Returns false when the account
	// no longer matches the expected retry count, meaning another run
	// already advanced it.
	MarkPaid(ctx context.Context, id uint, expectedRetries int, retryDate time.Time) (bool, error)
	// MarkFailed records a failed charge attempt. When escalate is true the
	// account also enters grace period; the account_status guard makes that
	// transition apply exactly once.
	MarkFailed(ctx context.Context, id uint, expectedRetries int, retryDate time.Time, escalate bool) (bool, error)
}

type billingRepository struct {
	db *gorm.DB
}

// NewBillingRepository constructs a repository backed by GORM.
func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) Create(ctx context.Context, account *models.BillingAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *billingRepository) FindByEntity(ctx context.Context, entityID uint) (models.BillingAccount, error) {
	var account models.BillingAccount
	if err := r.db.WithContext(ctx).Where("entity_id = ?", entityID).First(&account).Error; err != nil {
		return models.BillingAccount{}, err
	}
	return account, nil
}

func (r *billingRepository) ListEligibleForRetry(ctx context.Context, dueBy time.Time, maxRetries int) ([]models.BillingAccount, error) {
	var accounts []models.BillingAccount
	if err := r.db.WithContext(ctx).
		Where("payment_status IN ?", []string{models.PaymentStatusReminded, models.PaymentStatusFailed}).
		Where("due_date <= ?", dueBy).
		Where("retry_count < ?", maxRetries).
		Where("payment_method_id <> ''").
		Where("account_status = ?", models.AccountStatusActive).
		Order("entity_id ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *billingRepository) MarkPaid(ctx context.Context, id uint, expectedRetries int, retryDate time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BillingAccount{}).
		Where("id = ? AND retry_count = ?", id, expectedRetries).
		Where("payment_status IN ?", []string{models.PaymentStatusReminded, models.PaymentStatusFailed}).
		Updates(map[string]interface{}{
			"payment_status":  models.PaymentStatusPaid,
			"retry_count":     expectedRetries + 1,
			"last_retry_date": retryDate,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *billingRepository) MarkFailed(ctx context.Context, id uint, expectedRetries int, retryDate time.Time, escalate bool) (bool, error) {
	updates := map[string]interface{}{
		"payment_status":  models.PaymentStatusFailed,
		"retry_count":     expectedRetries + 1,
		"last_retry_date": retryDate,
	}

	query := r.db.WithContext(ctx).
		Model(&models.BillingAccount{}).
		Where("id = ? AND retry_count = ?", id, expectedRetries).
		Where("payment_status IN ?", []string{models.PaymentStatusReminded, models.PaymentStatusFailed})

	if escalate {
		updates["account_status"] = models.AccountStatusGracePeriod
		updates["grace_period_start"] = retryDate
		query = query.Where("account_status = ?", models.AccountStatusActive)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
