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

// InviteHandler handles invitation issuance and resolution.
type InviteHandler struct {
	service service.InviteService
	logger  zerolog.Logger
}

// NewInviteHandler constructs an invite handler.
func NewInviteHandler(service service.InviteService, logger zerolog.Logger) *InviteHandler {
	return &InviteHandler{
		service: service,
		logger:  logger.With().Str("component", "invite_handler").Logger(),
	}
}

// RegisterAdmin wires the operator-facing issuance route.
func (h *InviteHandler) RegisterAdmin(router fiber.Router) {
	router.Post("", h.issue)
}

// RegisterPublic wires the public resolution route.
func (h *InviteHandler) RegisterPublic(router fiber.Router) {
	router.Get("/:token", h.resolve)
}

func (h *InviteHandler) issue(c *fiber.Ctx) error {
	var payload dto.InviteCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Issue(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "entity not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to issue invitation")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to issue invitation")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "invitation issued", response)
}

func (h *InviteHandler) resolve(c *fiber.Ctx) error {
	token, entity, err := h.service.Resolve(c.Context(), c.Params("token"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "invitation not found")
		case errors.Is(err, service.ErrTokenExpired):
			return utils.SendError(c, fiber.StatusGone, "invitation expired")
		case errors.Is(err, service.ErrTokenAlreadyUsed):
			return utils.SendError(c, fiber.StatusConflict, "invitation already used")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve invitation")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve invitation")
		}
	}

	return utils.SendSuccess(c, "invitation valid", dto.InviteResolveResponse{
		EntityID:   entity.ID,
		EntityName: entity.Name,
		RoleScope:  token.RoleScope,
	})
}
