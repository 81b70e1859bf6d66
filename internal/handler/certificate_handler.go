package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/tutela-go-api/internal/service"
	"github.com/noah-isme/tutela-go-api/internal/utils"
)

// CertificateHandler handles clearance certificate uploads.
type CertificateHandler struct {
	service service.CertificateService
	logger  zerolog.Logger
}

// NewCertificateHandler constructs a certificate handler.
func NewCertificateHandler(service service.CertificateService, logger zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		service: service,
		logger:  logger.With().Str("component", "certificate_handler").Logger(),
	}
}

// Register wires certificate routes under a person scope.
func (h *CertificateHandler) Register(router fiber.Router) {
	router.Post("/:id/certificates", h.upload)
	router.Get("/:id/certificates", h.list)
}

func (h *CertificateHandler) upload(c *fiber.Ctx) error {
	personID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid person id")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	response, err := h.service.Upload(c.Context(), personID, file)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "person not found")
		case errors.Is(err, service.ErrCertificateTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrCertificateType):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("certificate upload failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "certificate upload failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "certificate stored", response)
}

func (h *CertificateHandler) list(c *fiber.Ctx) error {
	personID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid person id")
	}

	response, err := h.service.List(c.Context(), personID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list certificates")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list certificates")
	}

	return utils.SendSuccess(c, "certificates found", response)
}
