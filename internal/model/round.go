package model

import (
	"time"

	"gorm.io/gorm"
)

// Round is one set of questions generated for one interview attempt. Questions
// are fixed after generation; Answers grow monotonically.
type Round struct {
	ID          uint `gorm:"primarykey" json:"id"`
	InterviewID uint `json:"interview_id" gorm:"not null;index"`
	RoundNumber int  `json:"round_number" gorm:"not null"`

	RoundType string `json:"round_type" gorm:"not null"`

	Questions         []Question         `json:"questions,omitempty" gorm:"foreignKey:RoundID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Answers           []Answer           `json:"answers,omitempty" gorm:"foreignKey:RoundID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ConversationTurns []ConversationTurn `json:"conversation_turns,omitempty" gorm:"foreignKey:RoundID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AnswerFor returns the answer recorded for a question key, or nil.
func (r *Round) AnswerFor(questionKey string) *Answer {
	for i := range r.Answers {
		if r.Answers[i].QuestionKey == questionKey {
			return &r.Answers[i]
		}
	}
	return nil
}

// QuestionByKey returns the question with the given key, or nil if it is not
// part of this round.
func (r *Round) QuestionByKey(questionKey string) *Question {
	for i := range r.Questions {
		if r.Questions[i].QuestionKey == questionKey {
			return &r.Questions[i]
		}
	}
	return nil
}

// NextUnanswered returns the first question (by order) that has no answer yet.
// Answers may interleave with skips, so the gap is not necessarily contiguous.
func (r *Round) NextUnanswered() *Question {
	for i := range r.Questions {
		if r.AnswerFor(r.Questions[i].QuestionKey) == nil {
			return &r.Questions[i]
		}
	}
	return nil
}
