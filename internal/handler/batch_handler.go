package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutela-go-api/internal/service"
	"github.com/noah-isme/tutela-go-api/internal/utils"
)

// BatchHandler exposes the internal scheduler triggers for the payment
// retry batch and the compliance sweep.
type BatchHandler struct {
	billing    service.BillingService
	compliance service.ComplianceService
	logger     zerolog.Logger
}

// NewBatchHandler constructs a batch handler.
func NewBatchHandler(billing service.BillingService, compliance service.ComplianceService, logger zerolog.Logger) *BatchHandler {
	return &BatchHandler{
		billing:    billing,
		compliance: compliance,
		logger:     logger.With().Str("component", "batch_handler").Logger(),
	}
}

// Register wires batch routes.
func (h *BatchHandler) Register(router fiber.Router) {
	router.Post("/payment-retries", h.paymentRetries)
	router.Post("/compliance-sweep", h.complianceSweep)
}

func (h *BatchHandler) paymentRetries(c *fiber.Ctx) error {
	response, err := h.billing.RunDailyBatch(c.Context(), time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrBatchAlreadyRunning) {
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("payment retry batch failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "payment retry batch failed")
	}

	return utils.SendSuccess(c, "payment retry batch finished", response)
}

func (h *BatchHandler) complianceSweep(c *fiber.Ctx) error {
	response, err := h.compliance.SweepOverdue(c.Context(), time.Now().UTC())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("compliance sweep failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "compliance sweep failed")
	}

	return utils.SendSuccess(c, "compliance sweep finished", response)
}
