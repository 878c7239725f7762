package model

import (
	"time"

	"gorm.io/gorm"
)

// Question is immutable once generated. QuestionKey is unique within a round
// and is the identifier clients submit answers against.
type Question struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	RoundID     uint   `json:"round_id" gorm:"not null;index:idx_round_question_key,unique"`
	QuestionKey string `json:"question_key" gorm:"not null;index:idx_round_question_key,unique"`

	Text               string   `json:"text" gorm:"type:text;not null"`
	Type               string   `json:"type" gorm:"not null"` // always a concrete type, never "mixed"
	Difficulty         string   `json:"difficulty" gorm:"not null"`
	ExpectedAnswer     string   `json:"expected_answer,omitempty" gorm:"type:text"`
	Hints              []string `json:"hints" gorm:"serializer:json"`
	EvaluationCriteria []string `json:"evaluation_criteria" gorm:"serializer:json"`
	Tags               []string `json:"tags" gorm:"serializer:json"`

	TimeLimitSeconds int  `json:"time_limit_seconds"`
	MaxHints         int  `json:"max_hints"`
	Skippable        bool `json:"skippable"`
	OrderInRound     int  `json:"order_in_round" gorm:"not null"`
	IsFallback       bool `json:"is_fallback"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
