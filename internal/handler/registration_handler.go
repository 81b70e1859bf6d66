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

// RegistrationHandler handles invitation-scoped registrations.
type RegistrationHandler struct {
	service service.RegistrationService
	logger  zerolog.Logger
}

// NewRegistrationHandler constructs a registration handler.
func NewRegistrationHandler(service service.RegistrationService, logger zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
		logger:  logger.With().Str("component", "registration_handler").Logger(),
	}
}

// Register wires registration routes.
func (h *RegistrationHandler) Register(router fiber.Router) {
	router.Post("/:token", h.submit)
	router.Get("/persons/:id", h.getPerson)
}

func (h *RegistrationHandler) submit(c *fiber.Ctx) error {
	var payload dto.RegistrationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Register(c.Context(), c.Params("token"), payload)
	if err != nil {
		switch {
		case isValidationError(err),
			errors.Is(err, service.ErrRolePayloadMissing),
			errors.Is(err, service.ErrChildrenRequired):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRoleScopeMismatch):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrTokenNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "invitation not found")
		case errors.Is(err, service.ErrTokenExpired):
			return utils.SendError(c, fiber.StatusGone, "invitation expired")
		case errors.Is(err, service.ErrTokenAlreadyUsed):
			return utils.SendError(c, fiber.StatusConflict, "invitation already used")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to process registration")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to process registration")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "registration accepted", response)
}

func (h *RegistrationHandler) getPerson(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid person id")
	}

	response, err := h.service.GetPerson(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "person not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load person")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load person")
	}

	return utils.SendSuccess(c, "person found", response)
}
