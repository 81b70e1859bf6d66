package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/service"
	"github.com/noah-isme/tutela-go-api/internal/utils"
)

// ComplianceHandler exposes entity compliance state and transitions.
type ComplianceHandler struct {
	service service.ComplianceService
	logger  zerolog.Logger
}

// NewComplianceHandler constructs a compliance handler.
func NewComplianceHandler(service service.ComplianceService, logger zerolog.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		service: service,
		logger:  logger.With().Str("component", "compliance_handler").Logger(),
	}
}

// Register wires compliance routes under an entity scope.
func (h *ComplianceHandler) Register(router fiber.Router) {
	router.Get("/:id/compliance", h.status)
	router.Post("/:id/compliance/:dimension/postpone", h.postpone)
	router.Post("/:id/compliance/:dimension/done", h.done)
}

func (h *ComplianceHandler) status(c *fiber.Ctx) error {
	entityID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid entity id")
	}

	response, err := h.service.Status(c.Context(), entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "entity not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load compliance status")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load compliance status")
	}

	return utils.SendSuccess(c, "compliance status", response)
}

func (h *ComplianceHandler) postpone(c *fiber.Ctx) error {
	entityID, dimension, err := h.parseDimensionRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Postpone(c.Context(), entityID, dimension); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to postpone compliance dimension")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to postpone compliance dimension")
	}

	return utils.SendSuccess(c, "compliance dimension postponed", nil)
}

func (h *ComplianceHandler) done(c *fiber.Ctx) error {
	entityID, dimension, err := h.parseDimensionRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.MarkDone(c.Context(), entityID, dimension); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to mark compliance dimension done")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to mark compliance dimension done")
	}

	return utils.SendSuccess(c, "compliance dimension marked done", nil)
}

func (h *ComplianceHandler) parseDimensionRequest(c *fiber.Ctx) (uint, string, error) {
	entityID, err := parseIDParam(c, "id")
	if err != nil {
		return 0, "", errors.New("invalid entity id")
	}

	dimension := strings.TrimSpace(c.Params("dimension"))
	switch dimension {
	case models.DimensionChannel, models.DimensionRiskMap, models.DimensionCriminalRecords:
		return entityID, dimension, nil
	default:
		return 0, "", errors.New("unknown compliance dimension")
	}
}
