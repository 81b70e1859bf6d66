package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/tutela-go-api/internal/service"
	"github.com/noah-isme/tutela-go-api/internal/utils"
)

// SeedHandler loads the quiz question bank.
type SeedHandler struct {
	service service.QuizBankService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.QuizBankService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seeding routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/quiz-bank", h.seedQuizBank)
}

func (h *SeedHandler) seedQuizBank(c *fiber.Ctx) error {
	token := c.Get("X-Seed-Token")

	affected, err := h.service.Seed(c.Context(), token, c.Body())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSeedingDisabled):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrSeedTokenInvalid):
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		default:
			requestLogger(h.logger, c).Warn().Err(err).Msg("question bank rejected")
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
	}

	return utils.SendSuccess(c, "question bank seeded", fiber.Map{"affected": affected})
}
