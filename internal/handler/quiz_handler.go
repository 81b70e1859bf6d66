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

// QuizHandler handles knowledge-test attempts.
type QuizHandler struct {
	service service.QuizService
	logger  zerolog.Logger
}

// NewQuizHandler constructs a quiz handler.
func NewQuizHandler(service service.QuizService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Register wires quiz routes.
func (h *QuizHandler) Register(router fiber.Router) {
	router.Post("/attempts", h.start)
	router.Post("/attempts/:id/submit", h.submit)
}

func (h *QuizHandler) start(c *fiber.Ctx) error {
	var payload dto.QuizStartRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Start(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "person not found")
		case errors.Is(err, service.ErrQuizNotRequired):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, service.ErrQuestionBankTooSmall):
			requestLogger(h.logger, c).Error().Err(err).Msg("question bank not ready")
			return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to start quiz attempt")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to start quiz attempt")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz attempt started", response)
}

func (h *QuizHandler) submit(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid attempt id")
	}

	var payload dto.QuizSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Submit(c.Context(), id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "attempt not found")
		case errors.Is(err, service.ErrAttemptAlreadySubmitted):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to grade quiz attempt")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade quiz attempt")
		}
	}

	return utils.SendSuccess(c, "quiz attempt graded", response)
}
