package model

// Performance is the live aggregate score state of an in-progress interview.
// It is always recomputed from scratch over the current round's answers and
// never independently mutated.
type Performance struct {
	OverallScore      int               `json:"overall_score"`
	CategoryScores    PerformanceScores `json:"category_scores"`
	Percentile        int               `json:"percentile"`
	TotalQuestions    int               `json:"total_questions"`
	QuestionsAnswered int               `json:"questions_answered"`
	QuestionsSkipped  int               `json:"questions_skipped"`
	HintsUsed         int               `json:"hints_used"`
}

type PerformanceScores struct {
	Technical      int `json:"technical"`
	Communication  int `json:"communication"`
	ProblemSolving int `json:"problem_solving"`
	Confidence     int `json:"confidence"`
}
