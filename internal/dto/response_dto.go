package dto

import (
	"time"

	"github.com/lshigami/Mockingbird/internal/model"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// QuestionDTO is the candidate-facing view of a question. The expected answer
// outline and hint contents are withheld; hints come through the hint endpoint.
type QuestionDTO struct {
	QuestionKey      string   `json:"question_key"`
	Text             string   `json:"text"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Tags             []string `json:"tags,omitempty"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	MaxHints         int      `json:"max_hints"`
	Skippable        bool     `json:"skippable"`
	OrderInRound     int      `json:"order_in_round"`
	IsFallback       bool     `json:"is_fallback,omitempty"`
}

type InterviewResponse struct {
	ID                   uint               `json:"id"`
	Status               string             `json:"status"`
	Domain               string             `json:"domain"`
	SubDomain            string             `json:"sub_domain,omitempty"`
	InterviewType        string             `json:"interview_type"`
	Difficulty           string             `json:"difficulty"`
	DurationMinutes      int                `json:"duration_minutes,omitempty"`
	TargetCompany        string             `json:"target_company,omitempty"`
	Performance          *model.Performance `json:"performance,omitempty"`
	StartTime            *time.Time         `json:"start_time,omitempty"`
	EndTime              *time.Time         `json:"end_time,omitempty"`
	TotalDurationSeconds int                `json:"total_duration_seconds,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
}

type StartInterviewResponse struct {
	InterviewID          uint        `json:"interview_id"`
	Status               string      `json:"status"`
	FirstQuestion        QuestionDTO `json:"first_question"`
	TotalQuestions       int         `json:"total_questions"`
	TimeRemainingSeconds int         `json:"time_remaining_seconds"`
}

type Progress struct {
	TotalQuestions    int `json:"total_questions"`
	QuestionsAnswered int `json:"questions_answered"`
	QuestionsSkipped  int `json:"questions_skipped"`
	Remaining         int `json:"remaining"`
}

type SubmitAnswerResponse struct {
	Evaluation   *model.Evaluation `json:"evaluation"`
	IsComplete   bool              `json:"is_complete"`
	NextQuestion *QuestionDTO      `json:"next_question,omitempty"`
	Progress     Progress          `json:"progress"`
	CurrentScore int               `json:"current_score"`
}

type SkipQuestionResponse struct {
	IsComplete   bool         `json:"is_complete"`
	NextQuestion *QuestionDTO `json:"next_question,omitempty"`
	Progress     Progress     `json:"progress"`
}

type HintResponse struct {
	Hint           string `json:"hint"`
	HintsRemaining int    `json:"hints_remaining"`
}

type ResultsResponse struct {
	InterviewID uint           `json:"interview_id"`
	Results     *model.Results `json:"results"`
}

// --- real-time conversational mode ---

type ConversationTurnDTO struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type StartConversationResponse struct {
	Greeting       string      `json:"greeting"`
	FirstQuestion  QuestionDTO `json:"first_question"`
	TotalQuestions int         `json:"total_questions"`
}

type NextQuestionResponse struct {
	Introduction  string       `json:"introduction"`
	Question      *QuestionDTO `json:"question,omitempty"`
	QuestionIndex int          `json:"question_index"`
	Completed     bool         `json:"completed"`
}

type RealTimeResponse struct {
	Reply        string `json:"reply"`
	IsSufficient bool   `json:"is_sufficient"`
	Completed    bool   `json:"completed"`
}
