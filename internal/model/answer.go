package model

import (
	"time"
)

// Answer is append-only: the composite unique index is the duplicate-submit
// guard, enforced by the database rather than application memory. Answers are
// deliberately not soft-deleted so the index holds unconditionally.
type Answer struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	RoundID     uint   `json:"round_id" gorm:"not null;index:idx_round_answer_key,unique"`
	QuestionKey string `json:"question_key" gorm:"not null;index:idx_round_answer_key,unique"`

	AnswerText       string      `json:"answer_text" gorm:"type:text"`
	TimeTakenSeconds int         `json:"time_taken_seconds"`
	HintsUsed        int         `json:"hints_used"`
	Skipped          bool        `json:"skipped"`
	Evaluation       *Evaluation `json:"evaluation,omitempty" gorm:"serializer:json"`
	SubmittedAt      time.Time   `json:"submitted_at" gorm:"autoCreateTime"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Evaluation is the scored judgment of a single answer. It is stored as a JSON
// document on the Answer row.
type Evaluation struct {
	OverallScore   int                `json:"overall_score"`
	CategoryScores EvaluationScores   `json:"category_scores"`
	Strengths      []string           `json:"strengths"`
	Improvements   []string           `json:"improvements"`
	Feedback       string             `json:"feedback"`
	IsComplete     bool               `json:"is_complete"`
	MissingPoints  []string           `json:"missing_points"`
	NeedsFollowUp  bool               `json:"needs_follow_up"`
	WeightedScore  int                `json:"weighted_score"`
	Metadata       EvaluationMetadata `json:"metadata"`
}

type EvaluationScores struct {
	Accuracy     int `json:"accuracy"`
	Clarity      int `json:"clarity"`
	Completeness int `json:"completeness"`
	Depth        int `json:"depth"`
}

type EvaluationMetadata struct {
	WordCount   int       `json:"word_count"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	Fallback    bool      `json:"fallback"`
}
