package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lshigami/Mockingbird/internal/model"
	"github.com/rs/zerolog/log"
)

// difficultyMultipliers adjust an answer's score by question difficulty.
var difficultyMultipliers = map[string]float64{
	model.DifficultyEasy:   0.8,
	model.DifficultyMedium: 1.0,
	model.DifficultyHard:   1.2,
}

// evaluationRubrics holds the type-specific rubric instructions, dispatched by
// question type rather than branched inline.
var evaluationRubrics = map[string]string{
	model.TypeBehavioral: "Evaluate against the STAR method: is the Situation and Task clear, are the Actions specific " +
		"and owned by the candidate, is the Result concrete and ideally quantified? Reward self-awareness and honest reflection.",
	model.TypeTechnical: "Evaluate technical correctness and depth: are the stated facts accurate, does the candidate " +
		"explain the underlying mechanism rather than reciting definitions, and do they reason about tradeoffs?",
	model.TypeCoding: "Evaluate the code or described approach for correctness (including edge cases), algorithmic " +
		"complexity and whether the candidate analyzes it, and readability/structure of the solution.",
	model.TypeSystemDesign: "Evaluate scalability thinking: requirement clarification, capacity reasoning, component " +
		"choices, and explicit tradeoff analysis. Penalize premature detail without requirements.",
}

type EvaluationService interface {
	// EvaluateAnswer scores one answer. It never fails: any gateway problem
	// degrades to the deterministic length-based heuristic, so a failing
	// evaluation can never block answer submission.
	EvaluateAnswer(ctx context.Context, question *model.Question, answerText, domainContext string) *model.Evaluation
}

type evaluationService struct {
	llm LLMService
}

func NewEvaluationService(llm LLMService) EvaluationService {
	return &evaluationService{llm: llm}
}

func (s *evaluationService) EvaluateAnswer(ctx context.Context, question *model.Question, answerText, domainContext string) *model.Evaluation {
	doc, err := s.llm.ChatJSON(ctx, s.buildMessages(question, answerText, domainContext), GenerationOptions{})
	if err != nil {
		log.Warn().Err(err).Str("questionKey", question.QuestionKey).Msg("Evaluation degraded to heuristic scorer")
		return heuristicEvaluation(question, answerText)
	}

	obj, ok := doc.(map[string]interface{})
	if !ok {
		log.Warn().Str("questionKey", question.QuestionKey).Msg("Evaluation response was not a JSON object, using heuristic")
		return heuristicEvaluation(question, answerText)
	}
	return normalizeEvaluation(obj, question, answerText)
}

func (s *evaluationService) buildMessages(question *model.Question, answerText, domainContext string) []Message {
	system := fmt.Sprintf("You are a strict but fair %s interviewer", question.Type)
	if domainContext != "" {
		system += " for the " + domainContext + " domain"
	}
	system += ". " + evaluationRubrics[question.Type]

	var user strings.Builder
	user.WriteString("Question:\n")
	user.WriteString(question.Text)
	if question.ExpectedAnswer != "" {
		user.WriteString("\n\nReference answer outline:\n")
		user.WriteString(question.ExpectedAnswer)
	}
	if len(question.EvaluationCriteria) > 0 {
		user.WriteString("\n\nEvaluation criteria:\n- ")
		user.WriteString(strings.Join(question.EvaluationCriteria, "\n- "))
	}
	user.WriteString("\n\nCandidate's answer:\n---\n")
	user.WriteString(answerText)
	user.WriteString("\n---\n\n")
	user.WriteString("Respond with a strict JSON object:\n")
	user.WriteString(`{"overallScore": 0-100, "categoryScores": {"accuracy": 0-100, "clarity": 0-100, "completeness": 0-100, "depth": 0-100}, `)
	user.WriteString(`"strengths": [..], "improvements": [..], "feedback": "...", "isComplete": bool, "missingPoints": [..], "needsFollowUp": bool}`)
	user.WriteString("\nReturn only the JSON object, no prose.")

	return []Message{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: user.String()},
	}
}

// normalizeEvaluation turns the untrusted model document into a canonical
// Evaluation. Every field is defaulted when absent; missing category scores
// derive from the overall score; the weighted score is always computed here
// and never taken from the model.
func normalizeEvaluation(obj map[string]interface{}, question *model.Question, answerText string) *model.Evaluation {
	overall := clampScore(docInt(obj, 70, "overallScore", "overall_score", "score"))

	scores := model.EvaluationScores{Accuracy: overall, Clarity: overall, Completeness: overall, Depth: overall}
	if cs, ok := obj["categoryScores"].(map[string]interface{}); ok {
		scores.Accuracy = clampScore(docInt(cs, overall, "accuracy"))
		scores.Clarity = clampScore(docInt(cs, overall, "clarity"))
		scores.Completeness = clampScore(docInt(cs, overall, "completeness"))
		scores.Depth = clampScore(docInt(cs, overall, "depth"))
	}

	strengths := docStrings(obj, "strengths")
	if strengths == nil {
		strengths = []string{}
	}
	improvements := docStrings(obj, "improvements")
	if improvements == nil {
		improvements = []string{}
	}
	missing := docStrings(obj, "missingPoints", "missing_points")
	if missing == nil {
		missing = []string{}
	}

	feedback := docString(obj, "feedback")
	if feedback == "" {
		feedback = "Your answer has been recorded and scored."
	}

	isComplete := true
	if v, ok := obj["isComplete"].(bool); ok {
		isComplete = v
	}
	needsFollowUp := false
	if v, ok := obj["needsFollowUp"].(bool); ok {
		needsFollowUp = v
	}

	return &model.Evaluation{
		OverallScore:   overall,
		CategoryScores: scores,
		Strengths:      strengths,
		Improvements:   improvements,
		Feedback:       feedback,
		IsComplete:     isComplete,
		MissingPoints:  missing,
		NeedsFollowUp:  needsFollowUp,
		WeightedScore:  WeightedScore(overall, question.Difficulty),
		Metadata: model.EvaluationMetadata{
			WordCount:   wordCount(answerText),
			EvaluatedAt: time.Now(),
		},
	}
}

// WeightedScore applies the difficulty multiplier, capped at 100.
func WeightedScore(overall int, difficulty string) int {
	mult, ok := difficultyMultipliers[difficulty]
	if !ok {
		mult = 1.0
	}
	weighted := int(math.Round(float64(overall) * mult))
	if weighted > 100 {
		weighted = 100
	}
	if weighted < 0 {
		weighted = 0
	}
	return weighted
}

// heuristicEvaluation is the degraded-mode scorer: a deterministic function of
// answer length, banded into the 30-100 range with small controlled variance
// across sub-scores.
func heuristicEvaluation(question *model.Question, answerText string) *model.Evaluation {
	wc := wordCount(answerText)

	var base int
	switch {
	case wc == 0:
		base = 30
	case wc < 20:
		base = 40
	case wc < 50:
		base = 55
	case wc < 100:
		base = 65
	case wc < 200:
		base = 75
	default:
		base = 85
	}

	scores := model.EvaluationScores{
		Accuracy:     clampScore(base + wc%5 - 2),
		Clarity:      clampScore(base + wc%3),
		Completeness: clampScore(base + (wc/3)%5 - 2),
		Depth:        clampScore(base + wc%4 - 3),
	}

	return &model.Evaluation{
		OverallScore:   base,
		CategoryScores: scores,
		Strengths:      []string{"Answer was submitted within the interview flow."},
		Improvements:   []string{"Automated scoring was unavailable; consider elaborating with concrete examples."},
		Feedback: fmt.Sprintf("AI evaluation is temporarily unavailable. A provisional score was derived from the "+
			"substance of your %d-word answer.", wc),
		IsComplete:    wc >= 20,
		MissingPoints: []string{},
		NeedsFollowUp: false,
		WeightedScore: WeightedScore(base, question.Difficulty),
		Metadata: model.EvaluationMetadata{
			WordCount:   wc,
			EvaluatedAt: time.Now(),
			Fallback:    true,
		},
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// docInt reads the first present numeric field among the given keys, falling
// back to def. JSON numbers arrive as float64.
func docInt(obj map[string]interface{}, def int, keys ...string) int {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case float64:
			return int(math.Round(v))
		case int:
			return v
		}
	}
	return def
}
