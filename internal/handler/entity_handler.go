package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/service"
	"github.com/noah-isme/tutela-go-api/internal/utils"
)

// EntityHandler handles organization onboarding.
type EntityHandler struct {
	service service.EntityService
	logger  zerolog.Logger
}

// NewEntityHandler constructs an entity handler.
func NewEntityHandler(service service.EntityService, logger zerolog.Logger) *EntityHandler {
	return &EntityHandler{
		service: service,
		logger:  logger.With().Str("component", "entity_handler").Logger(),
	}
}

// Register wires entity routes.
func (h *EntityHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
}

func (h *EntityHandler) create(c *fiber.Ctx) error {
	var payload dto.EntityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Register(c.Context(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to onboard entity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to onboard entity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "entity onboarded", response)
}

func (h *EntityHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid entity id")
	}

	response, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "entity not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load entity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load entity")
	}

	return utils.SendSuccess(c, "entity found", response)
}
