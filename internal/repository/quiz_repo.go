package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// QuizRepository handles persistence for quiz questions and attempts.
type QuizRepository interface {
	ListActiveQuestions(ctx context.Context, limit int) ([]models.QuizQuestion, error)
	FindQuestionsByIDs(ctx context.Context, ids []uint) ([]models.QuizQuestion, error)
	CountActiveQuestions(ctx context.Context) (int64, error)
	UpsertQuestions(ctx context.Context, questions []models.QuizQuestion) (int64, error)
	CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	FindAttempt(ctx context.Context, id uint) (models.QuizAttempt, error)
	FinalizeAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	HasPassedAttempt(ctx context.Context, personID uint) (bool, error)
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository constructs a repository backed by GORM.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) ListActiveQuestions(ctx context.Context, limit int) ([]models.QuizQuestion, error) {
	if limit <= 0 {
		limit = 10
	}

	var questions []models.QuizQuestion
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Limit(limit).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *quizRepository) FindQuestionsByIDs(ctx context.Context, ids []uint) ([]models.QuizQuestion, error) {
	var questions []models.QuizQuestion
	if len(ids) == 0 {
		return questions, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *quizRepository) CountActiveQuestions(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.QuizQuestion{}).
		Where("active = ?", true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *quizRepository) UpsertQuestions(ctx context.Context, questions []models.QuizQuestion) (int64, error) {
	if len(questions) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"prompt", "options", "correct_index", "active", "updated_at"}),
	}).Create(&questions)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *quizRepository) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *quizRepository) FindAttempt(ctx context.Context, id uint) (models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := r.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return models.QuizAttempt{}, err
	}
	return attempt, nil
}

func (r *quizRepository) HasPassedAttempt(ctx context.Context, personID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("person_id = ? AND passed = ?", personID, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *quizRepository) FinalizeAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ? AND submitted_at IS NULL", attempt.ID).
		Updates(map[string]interface{}{
			"answers":       attempt.Answers,
			"correct_count": attempt.CorrectCount,
			"total_count":   attempt.TotalCount,
			"passed":        attempt.Passed,
			"submitted_at":  attempt.SubmittedAt,
		}).Error
}
