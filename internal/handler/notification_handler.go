package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutela-go-api/internal/service"
	"github.com/noah-isme/tutela-go-api/internal/utils"
)

// NotificationHandler lists queued notification jobs for operators.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register wires notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	response, err := h.service.List(c.Context(), c.Query("status"), limit, offset)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list notification jobs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list notification jobs")
	}

	return utils.SendSuccess(c, "notification jobs", response)
}
