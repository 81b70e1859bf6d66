package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/handler"
	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/service"
)

type mockBillingService struct {
	response dto.BatchRunResponse
	err      error
	runs     int
}

func (m *mockBillingService) RunDailyBatch(_ context.Context, _ time.Time) (dto.BatchRunResponse, error) {
	m.runs++
	if m.err != nil {
		return dto.BatchRunResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockBillingService) AccountStatus(_ context.Context, _ uint) (models.BillingAccount, error) {
	return models.BillingAccount{}, nil
}

type mockComplianceService struct {
	sweepResponse dto.SweepRunResponse
	sweepErr      error
}

func (m *mockComplianceService) EnsureDeadline(_ context.Context, _ uint, _ time.Time) (bool, error) {
	return false, nil
}

func (m *mockComplianceService) Postpone(_ context.Context, _ uint, _ string) error { return nil }

func (m *mockComplianceService) MarkDone(_ context.Context, _ uint, _ string) error { return nil }

func (m *mockComplianceService) Status(_ context.Context, _ uint) (dto.ComplianceStatusResponse, error) {
	return dto.ComplianceStatusResponse{}, nil
}

func (m *mockComplianceService) IsOverdue(_ context.Context, _ uint, _ time.Time) (bool, error) {
	return false, nil
}

func (m *mockComplianceService) SweepOverdue(_ context.Context, _ time.Time) (dto.SweepRunResponse, error) {
	if m.sweepErr != nil {
		return dto.SweepRunResponse{}, m.sweepErr
	}
	return m.sweepResponse, nil
}

func newBatchApp(billing service.BillingService, compliance service.ComplianceService) *fiber.App {
	app := fiber.New()
	handler.NewBatchHandler(billing, compliance, zerolog.New(io.Discard)).Register(app.Group("/api/internal/batch"))
	return app
}

func TestBatchHandler_PaymentRetries(t *testing.T) {
	billing := &mockBillingService{response: dto.BatchRunResponse{Processed: 5, Succeeded: 3, Failed: 1, Escalated: 1}}
	app := newBatchApp(billing, &mockComplianceService{})

	req := httptest.NewRequest(http.MethodPost, "/api/internal/batch/payment-retries", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, billing.runs)

	var response struct {
		Success bool                 `json:"success"`
		Data    dto.BatchRunResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, 5, response.Data.Processed)
	require.Equal(t, 1, response.Data.Escalated)
}

func TestBatchHandler_PaymentRetriesAlreadyRunning(t *testing.T) {
	app := newBatchApp(&mockBillingService{err: service.ErrBatchAlreadyRunning}, &mockComplianceService{})

	req := httptest.NewRequest(http.MethodPost, "/api/internal/batch/payment-retries", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestBatchHandler_ComplianceSweep(t *testing.T) {
	compliance := &mockComplianceService{sweepResponse: dto.SweepRunResponse{OverdueEntities: 2, BlockedPersons: 4}}
	app := newBatchApp(&mockBillingService{}, compliance)

	req := httptest.NewRequest(http.MethodPost, "/api/internal/batch/compliance-sweep", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.SweepRunResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, 2, response.Data.OverdueEntities)
	require.Equal(t, 4, response.Data.BlockedPersons)
}

func TestBatchHandler_ComplianceSweepFailure(t *testing.T) {
	app := newBatchApp(&mockBillingService{}, &mockComplianceService{sweepErr: errors.New("db down")})

	req := httptest.NewRequest(http.MethodPost, "/api/internal/batch/compliance-sweep", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
