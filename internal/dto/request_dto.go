package dto

// CreateInterviewRequest carries the immutable interview configuration.
type CreateInterviewRequest struct {
	Domain              string `json:"domain" binding:"required"`
	SubDomain           string `json:"sub_domain"`
	InterviewType       string `json:"interview_type" binding:"required,oneof=behavioral technical coding system-design mixed"`
	Difficulty          string `json:"difficulty" binding:"required,oneof=easy medium hard"`
	DurationMinutes     int    `json:"duration_minutes" binding:"omitempty,min=5,max=180"`
	TargetCompany       string `json:"target_company"`
	UsesCustomQuestions bool   `json:"uses_custom_questions"`
}

type SubmitAnswerRequest struct {
	QuestionKey      string `json:"question_key" binding:"required"`
	AnswerText       string `json:"answer_text" binding:"required"`
	TimeTakenSeconds int    `json:"time_taken_seconds" binding:"min=0,max=3600"`
	HintsUsed        int    `json:"hints_used" binding:"min=0"`
}

type SkipQuestionRequest struct {
	QuestionKey string `json:"question_key" binding:"required"`
}

// ConversationMessageRequest is one candidate turn in real-time mode.
type ConversationMessageRequest struct {
	Content string `json:"content" binding:"required"`
}
