package dto

import (
	"encoding/json"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// QuizStartRequest opens a new attempt for a person.
type QuizStartRequest struct {
	PersonID uint `json:"person_id" validate:"required"`
}

// QuizItem is one question as shown to the candidate. The correct answer is
// never serialized.
type QuizItem struct {
	QuestionID uint     `json:"question_id"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
}

// QuizStartResponse returns the attempt and its question set.
type QuizStartResponse struct {
	AttemptID uint       `json:"attempt_id"`
	Items     []QuizItem `json:"items"`
}

// QuizSubmitRequest carries the selected option index per question.
type QuizSubmitRequest struct {
	Answers []QuizAnswer `json:"answers" validate:"required,min=1,dive"`
}

// QuizAnswer is a single selected option.
type QuizAnswer struct {
	QuestionID  uint `json:"question_id" validate:"required"`
	OptionIndex int  `json:"option_index" validate:"min=0"`
}

// QuizResultResponse is the outcome of a submitted attempt.
type QuizResultResponse struct {
	AttemptID    uint `json:"attempt_id"`
	CorrectCount int  `json:"correct_count"`
	TotalCount   int  `json:"total_count"`
	Percentage   int  `json:"percentage"`
	Passed       bool `json:"passed"`
}

// NewQuizItem converts a question model into its candidate-facing DTO.
func NewQuizItem(question models.QuizQuestion) QuizItem {
	item := QuizItem{
		QuestionID: question.ID,
		Prompt:     question.Prompt,
	}
	_ = json.Unmarshal(question.Options, &item.Options)
	return item
}
