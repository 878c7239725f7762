package model

import "time"

// Results is the final, one-time-generated report produced at completion.
// Stored as a JSON document on the Interview row.
type Results struct {
	Summary           ResultsSummary     `json:"summary"`
	CategoryBreakdown PerformanceScores  `json:"category_breakdown"`
	DetailedFeedback  DetailedFeedback   `json:"detailed_feedback"`
	ImprovementPlan   []string           `json:"improvement_plan"`
	ComparisonData    ComparisonData     `json:"comparison_data"`
	QuestionAnalysis  []QuestionAnalysis `json:"question_analysis"`
	Timeline          Timeline           `json:"timeline"`
	CertificateData   CertificateData    `json:"certificate_data"`
	GeneratedAt       time.Time          `json:"generated_at"`
	Degraded          bool               `json:"degraded,omitempty"`
}

type ResultsSummary struct {
	OverallScore      int    `json:"overall_score"`
	Grade             string `json:"grade"`
	Percentile        int    `json:"percentile"`
	Passed            bool   `json:"passed"`
	TotalQuestions    int    `json:"total_questions"`
	QuestionsAnswered int    `json:"questions_answered"`
	QuestionsSkipped  int    `json:"questions_skipped"`
	CorrectAnswers    int    `json:"correct_answers"`
	PartiallyCorrect  int    `json:"partially_correct"`
	IncorrectAnswers  int    `json:"incorrect_answers"`
}

type DetailedFeedback struct {
	Strengths         []string          `json:"strengths"`
	Weaknesses        []string          `json:"weaknesses"`
	OverallAssessment string            `json:"overall_assessment"`
	CategoryAnalyses  map[string]string `json:"category_analyses"`
	Fallback          bool              `json:"fallback,omitempty"`
}

type ComparisonData struct {
	Percentile       int     `json:"percentile"`
	AverageScore     int     `json:"average_score"`
	TopScore         int     `json:"top_score"`
	AverageTimePerQn float64 `json:"average_time_per_question_seconds"`
}

// QuestionAnalysis replays one question against its answer for the report.
type QuestionAnalysis struct {
	QuestionKey   string `json:"question_key"`
	QuestionText  string `json:"question_text"`
	QuestionType  string `json:"question_type"`
	UserAnswer    string `json:"user_answer"`
	ModelAnswer   string `json:"model_answer,omitempty"`
	Score         int    `json:"score"`
	WeightedScore int    `json:"weighted_score"`
	Skipped       bool   `json:"skipped"`
	Feedback      string `json:"feedback,omitempty"`
	TimeTaken     int    `json:"time_taken_seconds"`
}

type Timeline struct {
	StartedAt            *time.Time `json:"started_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	TotalDurationSeconds int        `json:"total_duration_seconds"`
}

type CertificateData struct {
	CertificateID    string    `json:"certificate_id"`
	IssuedAt         time.Time `json:"issued_at"`
	ValidUntil       time.Time `json:"valid_until"`
	VerificationCode string    `json:"verification_code"`
	ShareableLink    string    `json:"shareable_link"`
}
