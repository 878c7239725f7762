package model

import (
	"time"

	"gorm.io/gorm"
)

// Interview statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// Interview types. TypeMixed is a config-time convenience only: it is resolved
// to a concrete type at start and never appears on Question records.
const (
	TypeBehavioral   = "behavioral"
	TypeTechnical    = "technical"
	TypeCoding       = "coding"
	TypeSystemDesign = "system-design"
	TypeMixed        = "mixed"
)

// Difficulties.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// ConcreteTypes are the question types an interview round can actually contain.
var ConcreteTypes = []string{TypeBehavioral, TypeTechnical, TypeCoding, TypeSystemDesign}

func IsValidInterviewType(t string) bool {
	switch t {
	case TypeBehavioral, TypeTechnical, TypeCoding, TypeSystemDesign, TypeMixed:
		return true
	}
	return false
}

func IsValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Interview is the aggregate root. Config fields are immutable after creation.
type Interview struct {
	ID     uint `gorm:"primarykey" json:"id"`
	UserID uint `json:"user_id" gorm:"not null;index"`

	Domain              string `json:"domain" gorm:"not null"`
	SubDomain           string `json:"sub_domain,omitempty"`
	InterviewType       string `json:"interview_type" gorm:"not null"`
	Difficulty          string `json:"difficulty" gorm:"not null"`
	DurationMinutes     int    `json:"duration_minutes"`
	TargetCompany       string `json:"target_company,omitempty"`
	UsesCustomQuestions bool   `json:"uses_custom_questions"`

	Status               string       `json:"status" gorm:"not null;default:'pending';index"`
	Rounds               []Round      `json:"rounds,omitempty" gorm:"foreignKey:InterviewID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Performance          *Performance `json:"performance,omitempty" gorm:"serializer:json"`
	Results              *Results     `json:"results,omitempty" gorm:"serializer:json"`
	StartTime            *time.Time   `json:"start_time,omitempty"`
	EndTime              *time.Time   `json:"end_time,omitempty"`
	TotalDurationSeconds int          `json:"total_duration_seconds"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CurrentRound returns the active round. The platform currently runs exactly one
// round per interview.
func (iv *Interview) CurrentRound() *Round {
	if len(iv.Rounds) == 0 {
		return nil
	}
	return &iv.Rounds[len(iv.Rounds)-1]
}
