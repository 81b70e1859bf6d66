package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

func TestBillingRepositoryListEligibleForRetry(t *testing.T) {
	db := setupTestDB(t, &models.BillingAccount{})
	repo := NewBillingRepository(db)

	today := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	eligible := models.BillingAccount{EntityID: 1, PaymentMethodID: "pm_1", AmountCents: 4900, DueDate: today.AddDate(0, 0, -1), PaymentStatus: models.PaymentStatusReminded, AccountStatus: models.AccountStatusActive}
	noMethod := models.BillingAccount{EntityID: 2, AmountCents: 4900, DueDate: today.AddDate(0, 0, -1), PaymentStatus: models.PaymentStatusFailed, AccountStatus: models.AccountStatusActive}
	notDue := models.BillingAccount{EntityID: 3, PaymentMethodID: "pm_3", AmountCents: 4900, DueDate: today.AddDate(0, 0, 5), PaymentStatus: models.PaymentStatusReminded, AccountStatus: models.AccountStatusActive}
	exhausted := models.BillingAccount{EntityID: 4, PaymentMethodID: "pm_4", AmountCents: 4900, DueDate: today.AddDate(0, 0, -1), PaymentStatus: models.PaymentStatusFailed, RetryCount: 3, AccountStatus: models.AccountStatusActive}
	inGrace := models.BillingAccount{EntityID: 5, PaymentMethodID: "pm_5", AmountCents: 4900, DueDate: today.AddDate(0, 0, -1), PaymentStatus: models.PaymentStatusFailed, AccountStatus: models.AccountStatusGracePeriod}
	paid := models.BillingAccount{EntityID: 6, PaymentMethodID: "pm_6", AmountCents: 4900, DueDate: today.AddDate(0, 0, -1), PaymentStatus: models.PaymentStatusPaid, AccountStatus: models.AccountStatusActive}

	for _, account := range []*models.BillingAccount{&eligible, &noMethod, &notDue, &exhausted, &inGrace, &paid} {
		require.NoError(t, repo.Create(context.Background(), account))
	}

	accounts, err := repo.ListEligibleForRetry(context.Background(), today, 3)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, uint(1), accounts[0].EntityID)
}

func TestBillingRepositoryMarkPaidIsConditional(t *testing.T) {
	db := setupTestDB(t, &models.BillingAccount{})
	repo := NewBillingRepository(db)

	today := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	account := models.BillingAccount{EntityID: 1, PaymentMethodID: "pm_1", AmountCents: 4900, DueDate: today, PaymentStatus: models.PaymentStatusReminded, RetryCount: 1, AccountStatus: models.AccountStatusActive}
	require.NoError(t, repo.Create(context.Background(), &account))

	applied, err := repo.MarkPaid(context.Background(), account.ID, 1, today)
	require.NoError(t, err)
	require.True(t, applied)

	// Replaying the same transition finds the retry count advanced.
	applied, err = repo.MarkPaid(context.Background(), account.ID, 1, today)
	require.NoError(t, err)
	require.False(t, applied)

	stored, err := repo.FindByEntity(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	require.Equal(t, 2, stored.RetryCount)
}

func TestBillingRepositoryMarkFailedEscalatesOnce(t *testing.T) {
	db := setupTestDB(t, &models.BillingAccount{})
	repo := NewBillingRepository(db)

	today := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	account := models.BillingAccount{EntityID: 1, PaymentMethodID: "pm_1", AmountCents: 4900, DueDate: today, PaymentStatus: models.PaymentStatusFailed, RetryCount: 2, AccountStatus: models.AccountStatusActive}
	require.NoError(t, repo.Create(context.Background(), &account))

	applied, err := repo.MarkFailed(context.Background(), account.ID, 2, today, true)
	require.NoError(t, err)
	require.True(t, applied)

	stored, err := repo.FindByEntity(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.AccountStatusGracePeriod, stored.AccountStatus)
	require.Equal(t, 3, stored.RetryCount)
	require.NotNil(t, stored.GracePeriodStart)

	// The grace-period transition cannot fire a second time.
	applied, err = repo.MarkFailed(context.Background(), account.ID, 3, today.AddDate(0, 0, 1), true)
	require.NoError(t, err)
	require.False(t, applied)
}
