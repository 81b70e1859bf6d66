package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuizQuestion is one item from the fixed knowledge-test bank.
type QuizQuestion struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Slug         string         `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Prompt       string         `gorm:"type:text;not null" json:"prompt"`
	Options      datatypes.JSON `gorm:"type:json;not null" json:"options"`
	CorrectIndex int            `gorm:"not null" json:"-"`
	Active       bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// QuizAttempt records one sitting of the knowledge test.
type QuizAttempt struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	PersonID     uint           `gorm:"index;not null" json:"person_id"`
	QuestionIDs  datatypes.JSON `gorm:"type:json" json:"question_ids"`
	Answers      datatypes.JSON `gorm:"type:json" json:"answers"`
	CorrectCount int            `gorm:"not null;default:0" json:"correct_count"`
	TotalCount   int            `gorm:"not null;default:0" json:"total_count"`
	Passed       bool           `gorm:"not null;default:false" json:"passed"`
	SubmittedAt  *time.Time     `json:"submitted_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
