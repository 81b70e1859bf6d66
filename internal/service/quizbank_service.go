package service

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"

	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/repository"
)

var (
	// ErrSeedingDisabled indicates the seeding endpoint is switched off.
	ErrSeedingDisabled = errors.New("question bank seeding is disabled")
	// ErrSeedTokenInvalid indicates the supplied seed token does not match.
	ErrSeedTokenInvalid = errors.New("invalid seed token")
)

// quizBankSchema validates the uploaded question bank before any row is
// written. correctIndex bounds against the options slice are checked in code
// since the schema cannot express the cross-field constraint.
const quizBankSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["slug", "prompt", "options", "correct_index"],
		"properties": {
			"slug": {"type": "string", "minLength": 1, "maxLength": 128},
			"prompt": {"type": "string", "minLength": 1},
			"options": {
				"type": "array",
				"minItems": 2,
				"maxItems": 8,
				"items": {"type": "string", "minLength": 1}
			},
			"correct_index": {"type": "integer", "minimum": 0},
			"active": {"type": "boolean"}
		},
		"additionalProperties": false
	}
}`

type quizBankEntry struct {
	Slug         string   `json:"slug"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Active       *bool    `json:"active"`
}

// QuizBankService loads and refreshes the knowledge-test question bank.
type QuizBankService interface {
	// Seed validates the JSON bank and upserts it by slug. Existing
	// attempts keep referencing their original question rows.
	Seed(ctx context.Context, token string, bank []byte) (int64, error)
}

type quizBankService struct {
	quizzes repository.QuizRepository
	schema  *jsonschema.Schema
	logger  zerolog.Logger
	enabled bool
	token   string
}

// NewQuizBankService constructs the seeding service. The schema is compiled
// at startup so a broken schema fails fast.
func NewQuizBankService(quizzes repository.QuizRepository, enabled bool, token string, logger zerolog.Logger) (QuizBankService, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("quiz_bank.json", bytes.NewReader([]byte(quizBankSchema))); err != nil {
		return nil, fmt.Errorf("failed to load quiz bank schema: %w", err)
	}
	schema, err := compiler.Compile("quiz_bank.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile quiz bank schema: %w", err)
	}

	return &quizBankService{
		quizzes: quizzes,
		schema:  schema,
		logger:  logger.With().Str("component", "quiz_bank_service").Logger(),
		enabled: enabled,
		token:   token,
	}, nil
}

func (s *quizBankService) Seed(ctx context.Context, token string, bank []byte) (int64, error) {
	if !s.enabled || s.token == "" {
		return 0, ErrSeedingDisabled
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		return 0, ErrSeedTokenInvalid
	}

	var document interface{}
	if err := json.Unmarshal(bank, &document); err != nil {
		return 0, fmt.Errorf("invalid question bank JSON: %w", err)
	}
	if err := s.schema.Validate(document); err != nil {
		return 0, fmt.Errorf("question bank failed validation: %w", err)
	}

	var entries []quizBankEntry
	if err := json.Unmarshal(bank, &entries); err != nil {
		return 0, fmt.Errorf("invalid question bank JSON: %w", err)
	}

	questions := make([]models.QuizQuestion, 0, len(entries))
	for _, entry := range entries {
		if entry.CorrectIndex >= len(entry.Options) {
			return 0, fmt.Errorf("question %q: correct_index %d out of range", entry.Slug, entry.CorrectIndex)
		}

		options, err := json.Marshal(entry.Options)
		if err != nil {
			return 0, err
		}

		active := true
		if entry.Active != nil {
			active = *entry.Active
		}

		questions = append(questions, models.QuizQuestion{
			Slug:         entry.Slug,
			Prompt:       entry.Prompt,
			Options:      datatypes.JSON(options),
			CorrectIndex: entry.CorrectIndex,
			Active:       active,
		})
	}

	affected, err := s.quizzes.UpsertQuestions(ctx, questions)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int64("affected", affected).Int("questions", len(questions)).Msg("question bank seeded")

	return affected, nil
}
