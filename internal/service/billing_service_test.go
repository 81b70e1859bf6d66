package service

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/pkg/payment"
)

type stubBillingRepo struct {
	accounts map[uint]*models.BillingAccount
}

func newStubBillingRepo(accounts ...*models.BillingAccount) *stubBillingRepo {
	s := &stubBillingRepo{accounts: map[uint]*models.BillingAccount{}}
	for i, account := range accounts {
		if account.ID == 0 {
			account.ID = uint(i + 1)
		}
		s.accounts[account.ID] = account
	}
	return s
}

func (s *stubBillingRepo) Create(_ context.Context, account *models.BillingAccount) error {
	account.ID = uint(len(s.accounts) + 1)
	s.accounts[account.ID] = account
	return nil
}

func (s *stubBillingRepo) FindByEntity(_ context.Context, entityID uint) (models.BillingAccount, error) {
	for _, account := range s.accounts {
		if account.EntityID == entityID {
			return *account, nil
		}
	}
	return models.BillingAccount{}, errors.New("not found")
}

func (s *stubBillingRepo) ListEligibleForRetry(_ context.Context, dueBy time.Time, maxRetries int) ([]models.BillingAccount, error) {
	var out []models.BillingAccount
	for _, account := range s.accounts {
		if account.AccountStatus != models.AccountStatusActive {
			continue
		}
		if account.PaymentStatus != models.PaymentStatusReminded && account.PaymentStatus != models.PaymentStatusFailed {
			continue
		}
		if account.RetryCount >= maxRetries || account.PaymentMethodID == "" || account.DueDate.After(dueBy) {
			continue
		}
		out = append(out, *account)
	}
	return out, nil
}

func (s *stubBillingRepo) MarkPaid(_ context.Context, id uint, expectedRetries int, retryDate time.Time) (bool, error) {
	account, ok := s.accounts[id]
	if !ok || account.RetryCount != expectedRetries {
		return false, nil
	}
	account.PaymentStatus = models.PaymentStatusPaid
	account.RetryCount = expectedRetries + 1
	account.LastRetryDate = &retryDate
	return true, nil
}

func (s *stubBillingRepo) MarkFailed(_ context.Context, id uint, expectedRetries int, retryDate time.Time, escalate bool) (bool, error) {
	account, ok := s.accounts[id]
	if !ok || account.RetryCount != expectedRetries {
		return false, nil
	}
	if escalate && account.AccountStatus != models.AccountStatusActive {
		return false, nil
	}
	account.PaymentStatus = models.PaymentStatusFailed
	account.RetryCount = expectedRetries + 1
	account.LastRetryDate = &retryDate
	if escalate {
		account.AccountStatus = models.AccountStatusGracePeriod
		account.GracePeriodStart = &retryDate
	}
	return true, nil
}

type stubInvoiceRepo struct {
	invoices []models.Invoice
}

func (s *stubInvoiceRepo) Create(_ context.Context, invoice *models.Invoice) error {
	invoice.ID = uint(len(s.invoices) + 1)
	s.invoices = append(s.invoices, *invoice)
	return nil
}

func (s *stubInvoiceRepo) ListByEntity(_ context.Context, entityID uint) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, invoice := range s.invoices {
		if invoice.EntityID == entityID {
			out = append(out, invoice)
		}
	}
	return out, nil
}

type stubGateway struct {
	result  payment.ChargeResult
	err     error
	charges []payment.ChargeRequest
}

func (s *stubGateway) Charge(_ context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	s.charges = append(s.charges, req)
	if s.err != nil {
		return payment.ChargeResult{}, s.err
	}
	return s.result, nil
}

func activeAccount(entityID uint, retries int, lastRetry *time.Time) *models.BillingAccount {
	return &models.BillingAccount{
		EntityID:         entityID,
		StripeCustomerID: "cus_1",
		PaymentMethodID:  "pm_1",
		AmountCents:      4900,
		Currency:         "eur",
		DueDate:          time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PaymentStatus:    models.PaymentStatusReminded,
		RetryCount:       retries,
		LastRetryDate:    lastRetry,
		AccountStatus:    models.AccountStatusActive,
	}
}

func billingFixture(gateway payment.Gateway, accounts ...*models.BillingAccount) (*stubBillingRepo, *stubInvoiceRepo, *stubNotifications, BillingService) {
	billing := newStubBillingRepo(accounts...)
	invoices := &stubInvoiceRepo{}
	notifications := &stubNotifications{}
	entities := newStubEntities(models.Entity{ID: 1, Name: "Club", DelegateEmail: "delegate@example.com"})
	svc := NewBillingService(billing, invoices, entities, notifications, gateway, nil, 3, 3, 7, testLogger())
	return billing, invoices, notifications, svc
}

func TestBillingBatchSuccessRecordsInvoiceAndNotifies(t *testing.T) {
	gateway := &stubGateway{result: payment.ChargeResult{Status: payment.StatusSucceeded, ChargeID: "pi_1"}}
	billing, invoices, notifications, svc := billingFixture(gateway, activeAccount(1, 0, nil))

	now := time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC)
	result, err := svc.RunDailyBatch(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 1, result.Succeeded)
	require.Zero(t, result.Failed)

	account := billing.accounts[1]
	require.Equal(t, models.PaymentStatusPaid, account.PaymentStatus)
	require.Equal(t, 1, account.RetryCount)
	require.Len(t, invoices.invoices, 1)
	require.Equal(t, "pi_1", invoices.invoices[0].ChargeID)
	require.Equal(t, []string{TemplatePaymentSuccess}, notifications.templates())
}

func TestBillingBatchSkipsSameDayRetry(t *testing.T) {
	today := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	earlier := today.Add(2 * time.Hour)
	gateway := &stubGateway{result: payment.ChargeResult{Status: payment.StatusSucceeded}}
	_, _, _, svc := billingFixture(gateway, activeAccount(1, 1, &earlier))

	result, err := svc.RunDailyBatch(context.Background(), today.Add(8*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	require.Zero(t, result.Processed)
	require.Empty(t, gateway.charges)
}

func TestBillingBatchHonorsBackoffWindow(t *testing.T) {
	lastRetry := time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC)
	gateway := &stubGateway{result: payment.ChargeResult{Status: payment.StatusSucceeded}}
	_, _, _, svc := billingFixture(gateway, activeAccount(1, 1, &lastRetry))

	// Two days after the last retry is still inside the three-day backoff.
	result, err := svc.RunDailyBatch(context.Background(), lastRetry.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	require.Empty(t, gateway.charges)

	// On day three the account is charged again.
	result, err = svc.RunDailyBatch(context.Background(), lastRetry.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Len(t, gateway.charges, 1)
}

func TestBillingBatchEscalatesOnFinalFailure(t *testing.T) {
	gateway := &stubGateway{err: payment.ErrCardDeclined}
	billing, _, notifications, svc := billingFixture(gateway, activeAccount(1, 2, nil))

	result, err := svc.RunDailyBatch(context.Background(), time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, 1, result.Escalated)

	account := billing.accounts[1]
	require.Equal(t, models.AccountStatusGracePeriod, account.AccountStatus)
	require.NotNil(t, account.GracePeriodStart)
	require.Equal(t, []string{TemplatePaymentGracePeriod}, notifications.templates())
}

func TestBillingBatchFailureBeforeCapSchedulesRetry(t *testing.T) {
	gateway := &stubGateway{err: payment.ErrGatewayTimeout}
	billing, _, notifications, svc := billingFixture(gateway, activeAccount(1, 0, nil))

	result, err := svc.RunDailyBatch(context.Background(), time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)
	require.Zero(t, result.Escalated)

	require.Equal(t, models.AccountStatusActive, billing.accounts[1].AccountStatus)
	require.Equal(t, []string{TemplatePaymentRetryFailed}, notifications.templates())
	require.Equal(t, 3, notifications.jobs[0].Payload["next_retry_days"])
}

func TestBillingBatchRequiresActionDoesNotConsumeRetry(t *testing.T) {
	gateway := &stubGateway{result: payment.ChargeResult{Status: payment.StatusRequiresAction, ChargeID: "pi_2"}}
	billing, _, notifications, svc := billingFixture(gateway, activeAccount(1, 1, nil))

	result, err := svc.RunDailyBatch(context.Background(), time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, result.RequiresAction)
	require.Equal(t, 1, billing.accounts[1].RetryCount)
	require.Empty(t, notifications.jobs)
}

func TestBillingBatchUnknownErrorDoesNotConsumeRetry(t *testing.T) {
	gateway := &stubGateway{err: errors.New("wire snapped")}
	billing, _, _, svc := billingFixture(gateway, activeAccount(1, 1, nil))

	result, err := svc.RunDailyBatch(context.Background(), time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, result.Errored)
	require.Equal(t, 1, billing.accounts[1].RetryCount)
	require.Equal(t, models.PaymentStatusReminded, billing.accounts[1].PaymentStatus)
}

func TestBillingBatchIdempotencyKeyIsStablePerDay(t *testing.T) {
	gateway := &stubGateway{result: payment.ChargeResult{Status: payment.StatusRequiresAction}}
	_, _, _, svc := billingFixture(gateway, activeAccount(1, 0, nil))

	now := time.Date(2026, 8, 10, 1, 0, 0, 0, time.UTC)
	_, err := svc.RunDailyBatch(context.Background(), now)
	require.NoError(t, err)
	_, err = svc.RunDailyBatch(context.Background(), now.Add(6*time.Hour))
	require.NoError(t, err)

	require.Len(t, gateway.charges, 2)
	require.Equal(t, gateway.charges[0].IdempotencyKey, gateway.charges[1].IdempotencyKey)
}

func TestBillingBatchDayLockPreventsConcurrentRuns(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	gateway := &stubGateway{result: payment.ChargeResult{Status: payment.StatusSucceeded, ChargeID: "pi_3"}}
	billing := newStubBillingRepo(activeAccount(1, 0, nil))
	entities := newStubEntities(models.Entity{ID: 1, Name: "Club", DelegateEmail: "delegate@example.com"})
	svc := NewBillingService(billing, &stubInvoiceRepo{}, entities, &stubNotifications{}, gateway, redisClient, 3, 3, 7, testLogger())

	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	_, err = svc.RunDailyBatch(context.Background(), now)
	require.NoError(t, err)

	_, err = svc.RunDailyBatch(context.Background(), now.Add(time.Minute))
	require.ErrorIs(t, err, ErrBatchAlreadyRunning)
	require.Len(t, gateway.charges, 1)
}
