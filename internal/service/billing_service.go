package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/observability"
	"github.com/noah-isme/tutela-go-api/internal/repository"
	"github.com/noah-isme/tutela-go-api/pkg/payment"
)

// ErrBatchAlreadyRunning indicates another scheduler invocation holds the
// run lock for today.
var ErrBatchAlreadyRunning = errors.New("payment retry batch already running for today")

const batchLockTTL = 10 * time.Minute

// BillingService drives the bounded payment retry engine. One invocation per
// day walks every eligible account, charges it off-session, and escalates to
// grace period when the final retry fails.
type BillingService interface {
	RunDailyBatch(ctx context.Context, now time.Time) (dto.BatchRunResponse, error)
	AccountStatus(ctx context.Context, entityID uint) (models.BillingAccount, error)
}

type billingService struct {
	billing       repository.BillingRepository
	invoices      repository.InvoiceRepository
	entities      repository.EntityRepository
	notifications NotificationService
	gateway       payment.Gateway
	redis         *redis.Client
	logger        zerolog.Logger
	tracer        trace.Tracer
	maxRetries    int
	backoffDays   int
	graceDays     int
}

// NewBillingService constructs the retry engine. The redis client may be
// nil; the day lock is then skipped and callers must guarantee single
// invocation themselves.
func NewBillingService(billing repository.BillingRepository, invoices repository.InvoiceRepository, entities repository.EntityRepository, notifications NotificationService, gateway payment.Gateway, redisClient *redis.Client, maxRetries, backoffDays, graceDays int, logger zerolog.Logger) BillingService {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if backoffDays <= 0 {
		backoffDays = 3
	}
	if graceDays <= 0 {
		graceDays = 7
	}

	return &billingService{
		billing:       billing,
		invoices:      invoices,
		entities:      entities,
		notifications: notifications,
		gateway:       gateway,
		redis:         redisClient,
		logger:        logger.With().Str("component", "billing_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/tutela-go-api/internal/service/billing"),
		maxRetries:    maxRetries,
		backoffDays:   backoffDays,
		graceDays:     graceDays,
	}
}

func (s *billingService) RunDailyBatch(ctx context.Context, now time.Time) (dto.BatchRunResponse, error) {
	ctx, span := s.tracer.Start(ctx, "billing.run_daily_batch")
	defer span.End()

	started := time.Now()
	defer func() {
		observability.BatchRunDuration().WithLabelValues("payment_retry").Observe(time.Since(started).Seconds())
	}()

	today := now.UTC().Truncate(24 * time.Hour)

	acquired, err := s.acquireRunLock(ctx, today)
	if err != nil {
		s.logger.Warn().Err(err).Msg("run lock check failed, proceeding without lock")
	} else if !acquired {
		return dto.BatchRunResponse{}, ErrBatchAlreadyRunning
	}

	accounts, err := s.billing.ListEligibleForRetry(ctx, today, s.maxRetries)
	if err != nil {
		span.RecordError(err)
		return dto.BatchRunResponse{}, err
	}

	var result dto.BatchRunResponse
	for _, account := range accounts {
		s.processAccount(ctx, account, today, &result)
	}

	s.logger.Info().
		Int("processed", result.Processed).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("escalated", result.Escalated).
		Int("requires_action", result.RequiresAction).
		Int("errored", result.Errored).
		Msg("payment retry batch finished")

	return result, nil
}

func (s *billingService) AccountStatus(ctx context.Context, entityID uint) (models.BillingAccount, error) {
	return s.billing.FindByEntity(ctx, entityID)
}

// processAccount handles one account in isolation. A panic or unknown error
// in one account never stops the rest of the batch, and never consumes one
// of the account's bounded retries.
func (s *billingService) processAccount(ctx context.Context, account models.BillingAccount, today time.Time, result *dto.BatchRunResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Uint("entity_id", account.EntityID).Msg("panic while processing billing account")
			result.Errored++
		}
	}()

	if account.LastRetryDate != nil {
		lastRetry := account.LastRetryDate.UTC().Truncate(24 * time.Hour)
		// Never charge the same account twice in one day, even across
		// duplicated scheduler invocations.
		if lastRetry.Equal(today) {
			result.Skipped++
			return
		}
		if account.RetryCount > 0 && today.Sub(lastRetry) < time.Duration(s.backoffDays)*24*time.Hour {
			result.Skipped++
			return
		}
	}

	result.Processed++

	charge, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		CustomerID:      account.StripeCustomerID,
		PaymentMethodID: account.PaymentMethodID,
		AmountCents:     account.AmountCents,
		Currency:        account.Currency,
		IdempotencyKey:  idempotencyKey(account.EntityID, today),
	})

	switch {
	case err == nil && charge.Status == payment.StatusSucceeded:
		s.settleSuccess(ctx, account, charge, today, result)

	case err == nil && charge.Status == payment.StatusRequiresAction:
		// Customer action pending; the attempt is neither a success nor a
		// failure, so the retry budget stays untouched.
		result.RequiresAction++
		observability.PaymentRetryAttempts().WithLabelValues("requires_action").Inc()

	case errors.Is(err, payment.ErrCardDeclined), errors.Is(err, payment.ErrGatewayTimeout), err == nil && charge.Status == payment.StatusFailed:
		s.settleFailure(ctx, account, today, result)

	default:
		s.logger.Error().Err(err).Uint("entity_id", account.EntityID).Msg("unexpected gateway error, retry not consumed")
		result.Errored++
		observability.PaymentRetryAttempts().WithLabelValues("errored").Inc()
	}
}

func (s *billingService) settleSuccess(ctx context.Context, account models.BillingAccount, charge payment.ChargeResult, today time.Time, result *dto.BatchRunResponse) {
	applied, err := s.billing.MarkPaid(ctx, account.ID, account.RetryCount, today)
	if err != nil {
		s.logger.Error().Err(err).Uint("entity_id", account.EntityID).Msg("failed to mark account paid")
		result.Errored++
		return
	}
	if !applied {
		// A concurrent run already advanced this account.
		result.Skipped++
		return
	}

	invoice := models.Invoice{
		EntityID:    account.EntityID,
		AmountCents: account.AmountCents,
		Currency:    account.Currency,
		ChargeID:    charge.ChargeID,
		PaidAt:      time.Now().UTC(),
	}
	if err := s.invoices.Create(ctx, &invoice); err != nil {
		s.logger.Error().Err(err).Uint("entity_id", account.EntityID).Msg("failed to record invoice")
	}

	result.Succeeded++
	observability.PaymentRetryAttempts().WithLabelValues("succeeded").Inc()

	s.notifyDelegate(ctx, account.EntityID, TemplatePaymentSuccess, map[string]interface{}{
		"amount_cents": account.AmountCents,
		"currency":     account.Currency,
	})
}

func (s *billingService) settleFailure(ctx context.Context, account models.BillingAccount, today time.Time, result *dto.BatchRunResponse) {
	escalate := account.RetryCount+1 >= s.maxRetries

	applied, err := s.billing.MarkFailed(ctx, account.ID, account.RetryCount, today, escalate)
	if err != nil {
		s.logger.Error().Err(err).Uint("entity_id", account.EntityID).Msg("failed to mark account failed")
		result.Errored++
		return
	}
	if !applied {
		result.Skipped++
		return
	}

	result.Failed++
	observability.PaymentRetryAttempts().WithLabelValues("failed").Inc()

	if escalate {
		result.Escalated++
		observability.GraceEscalations().Inc()
		s.logger.Warn().Uint("entity_id", account.EntityID).Msg("billing account escalated to grace period")
		s.notifyDelegate(ctx, account.EntityID, TemplatePaymentGracePeriod, map[string]interface{}{
			"retry_count":       account.RetryCount + 1,
			"grace_period_days": s.graceDays,
		})
		return
	}

	s.notifyDelegate(ctx, account.EntityID, TemplatePaymentRetryFailed, map[string]interface{}{
		"retry_count":     account.RetryCount + 1,
		"next_retry_days": s.backoffDays,
	})
}

func (s *billingService) notifyDelegate(ctx context.Context, entityID uint, template string, payload map[string]interface{}) {
	entity, err := s.entities.FindByID(ctx, entityID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("entity_id", entityID).Msg("failed to load entity for billing notification")
		return
	}

	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["entity_id"] = entityID

	if _, err := s.notifications.Enqueue(ctx, template, entity.DelegateEmail, payload); err != nil {
		s.logger.Warn().Err(err).Uint("entity_id", entityID).Str("template", template).Msg("failed to enqueue billing notification")
	}
}

// acquireRunLock takes a day-scoped lock so overlapping scheduler triggers
// cannot run the batch concurrently.
func (s *billingService) acquireRunLock(ctx context.Context, today time.Time) (bool, error) {
	if s.redis == nil {
		return true, nil
	}

	key := fmt.Sprintf("tutela:billing:run:%s", today.Format("2006-01-02"))
	return s.redis.SetNX(ctx, key, "1", batchLockTTL).Result()
}

// idempotencyKey is stable for a given account and day so the gateway
// deduplicates a re-sent charge for the same logical attempt.
func idempotencyKey(entityID uint, day time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", entityID, day.Format("2006-01-02"))))
	return hex.EncodeToString(sum[:])
}
