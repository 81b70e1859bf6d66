package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/observability"
	"github.com/noah-isme/tutela-go-api/internal/repository"
)

var (
	// ErrQuizNotRequired indicates the person's role has no knowledge test.
	ErrQuizNotRequired = errors.New("quiz is not required for this role")
	// ErrQuestionBankTooSmall indicates the active bank cannot fill a sheet.
	ErrQuestionBankTooSmall = errors.New("question bank has too few active questions")
	// ErrAttemptAlreadySubmitted indicates the attempt was already graded.
	ErrAttemptAlreadySubmitted = errors.New("quiz attempt already submitted")
)

// QuizService runs the knowledge test: opening attempts, grading
// submissions, and completing the person when every requirement is met.
type QuizService interface {
	Start(ctx context.Context, req dto.QuizStartRequest) (dto.QuizStartResponse, error)
	Submit(ctx context.Context, attemptID uint, req dto.QuizSubmitRequest) (dto.QuizResultResponse, error)
}

type quizService struct {
	quizzes     repository.QuizRepository
	persons     repository.PersonRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	quizLength  int
	passPercent int
}

// NewQuizService constructs a quiz service.
func NewQuizService(quizzes repository.QuizRepository, persons repository.PersonRepository, validate *validator.Validate, quizLength, passPercent int, logger zerolog.Logger) QuizService {
	if quizLength <= 0 {
		quizLength = 10
	}
	if passPercent <= 0 || passPercent > 100 {
		passPercent = 75
	}

	return &quizService{
		quizzes:     quizzes,
		persons:     persons,
		validator:   validate,
		logger:      logger.With().Str("component", "quiz_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/tutela-go-api/internal/service/quiz"),
		quizLength:  quizLength,
		passPercent: passPercent,
	}
}

func (s *quizService) Start(ctx context.Context, req dto.QuizStartRequest) (dto.QuizStartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz.start", trace.WithAttributes(
		attribute.Int("quiz.person_id", int(req.PersonID)),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return dto.QuizStartResponse{}, err
	}

	person, err := s.persons.FindByID(ctx, req.PersonID)
	if err != nil {
		span.RecordError(err)
		return dto.QuizStartResponse{}, err
	}

	if !person.RequiresQuiz() {
		return dto.QuizStartResponse{}, ErrQuizNotRequired
	}

	questions, err := s.quizzes.ListActiveQuestions(ctx, s.quizLength)
	if err != nil {
		span.RecordError(err)
		return dto.QuizStartResponse{}, err
	}
	if len(questions) < s.quizLength {
		return dto.QuizStartResponse{}, ErrQuestionBankTooSmall
	}

	ids := make([]uint, 0, len(questions))
	items := make([]dto.QuizItem, 0, len(questions))
	for _, question := range questions {
		ids = append(ids, question.ID)
		items = append(items, dto.NewQuizItem(question))
	}

	encodedIDs, err := json.Marshal(ids)
	if err != nil {
		span.RecordError(err)
		return dto.QuizStartResponse{}, err
	}

	attempt := models.QuizAttempt{
		PersonID:    person.ID,
		QuestionIDs: datatypes.JSON(encodedIDs),
		TotalCount:  len(questions),
	}
	if err := s.quizzes.CreateAttempt(ctx, &attempt); err != nil {
		span.RecordError(err)
		return dto.QuizStartResponse{}, err
	}

	s.logger.Info().Uint("attempt_id", attempt.ID).Uint("person_id", person.ID).Msg("quiz attempt opened")

	return dto.QuizStartResponse{AttemptID: attempt.ID, Items: items}, nil
}

func (s *quizService) Submit(ctx context.Context, attemptID uint, req dto.QuizSubmitRequest) (dto.QuizResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz.submit", trace.WithAttributes(
		attribute.Int("quiz.attempt_id", int(attemptID)),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}

	attempt, err := s.quizzes.FindAttempt(ctx, attemptID)
	if err != nil {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}
	if attempt.SubmittedAt != nil {
		return dto.QuizResultResponse{}, ErrAttemptAlreadySubmitted
	}

	var questionIDs []uint
	if err := json.Unmarshal(attempt.QuestionIDs, &questionIDs); err != nil {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}

	questions, err := s.quizzes.FindQuestionsByIDs(ctx, questionIDs)
	if err != nil {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}

	correctByID := make(map[uint]int, len(questions))
	for _, question := range questions {
		correctByID[question.ID] = question.CorrectIndex
	}

	// Only answers for questions on this attempt's sheet count; missing
	// answers grade as wrong.
	selectedByID := make(map[uint]int, len(req.Answers))
	for _, answer := range req.Answers {
		selectedByID[answer.QuestionID] = answer.OptionIndex
	}

	correct := 0
	for _, id := range questionIDs {
		selected, answered := selectedByID[id]
		if answered && selected == correctByID[id] {
			correct++
		}
	}

	total := len(questionIDs)
	percentage := 0
	if total > 0 {
		percentage = correct * 100 / total
	}
	passed := percentage >= s.passPercent

	now := time.Now().UTC()
	encodedAnswers, err := json.Marshal(req.Answers)
	if err != nil {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}

	attempt.Answers = datatypes.JSON(encodedAnswers)
	attempt.CorrectCount = correct
	attempt.TotalCount = total
	attempt.Passed = passed
	attempt.SubmittedAt = &now

	if err := s.quizzes.FinalizeAttempt(ctx, &attempt); err != nil {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}

	result := "failed"
	if passed {
		result = "passed"
	}
	observability.QuizAttempts().WithLabelValues(result).Inc()

	if passed {
		s.maybeComplete(ctx, attempt.PersonID)
	}

	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Uint("person_id", attempt.PersonID).
		Int("correct", correct).
		Int("total", total).
		Bool("passed", passed).
		Msg("quiz attempt graded")

	return dto.QuizResultResponse{
		AttemptID:    attempt.ID,
		CorrectCount: correct,
		TotalCount:   total,
		Percentage:   percentage,
		Passed:       passed,
	}, nil
}

// maybeComplete advances the person when both the quiz and the clearance
// certificate are on file.
func (s *quizService) maybeComplete(ctx context.Context, personID uint) {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("person_id", personID).Msg("failed to load person after passed quiz")
		return
	}

	if !person.ClearanceOnFile {
		return
	}

	applied, err := s.persons.TransitionStatus(ctx, personID, models.PersonStatusInProgress, models.PersonStatusComplete)
	if err != nil {
		s.logger.Error().Err(err).Uint("person_id", personID).Msg("failed to complete person after passed quiz")
		return
	}
	if applied {
		s.logger.Info().Uint("person_id", personID).Msg("person completed onboarding")
	}
}
