package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Mockingbird/internal/model"
	"github.com/rs/zerolog/log"
)

// certificateValidityDays is the validity window of an issued certificate.
const certificateValidityDays = 365

const shareableLinkBase = "https://mockingbird.dev/certificates"

type ResultsService interface {
	// GenerateResults assembles the final report. Idempotence is owned by the
	// orchestrator: if Results already exist they are returned before this is
	// called. Tolerates interviews with no rounds or no answers.
	GenerateResults(ctx context.Context, interview *model.Interview) (*model.Results, error)
}

type resultsService struct {
	llm LLMService
}

func NewResultsService(llm LLMService) ResultsService {
	return &resultsService{llm: llm}
}

// GradeFor maps an overall score to a letter grade.
func GradeFor(score int) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 90:
		return "A"
	case score >= 85:
		return "B+"
	case score >= 80:
		return "B"
	case score >= 75:
		return "C+"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// PercentileFor is a fixed score-band lookup. It is a deliberate placeholder
// policy, not a population comparison.
func PercentileFor(score int) int {
	switch {
	case score >= 90:
		return 95
	case score >= 80:
		return 85
	case score >= 70:
		return 70
	case score >= 60:
		return 55
	case score >= 50:
		return 40
	default:
		return 25
	}
}

func (s *resultsService) GenerateResults(ctx context.Context, interview *model.Interview) (*model.Results, error) {
	round := interview.CurrentRound()

	var questions []model.Question
	var answers []model.Answer
	if round != nil {
		questions = round.Questions
		answers = round.Answers
	}

	summary, avgTime := buildSummary(questions, answers)
	breakdown := derivePerformance(questions, answers).CategoryScores

	feedback := s.narrativeFeedback(ctx, interview, summary, breakdown)

	results := &model.Results{
		Summary:           summary,
		CategoryBreakdown: breakdown,
		DetailedFeedback:  feedback,
		ImprovementPlan:   improvementPlan(summary, feedback),
		ComparisonData: model.ComparisonData{
			Percentile:       summary.Percentile,
			AverageScore:     68,
			TopScore:         98,
			AverageTimePerQn: avgTime,
		},
		QuestionAnalysis: questionAnalysis(questions, answers),
		Timeline: model.Timeline{
			StartedAt:            interview.StartTime,
			CompletedAt:          interview.EndTime,
			TotalDurationSeconds: interview.TotalDurationSeconds,
		},
		CertificateData: NewCertificate(interview.ID),
		GeneratedAt:     time.Now(),
		Degraded:        len(questions) == 0,
	}
	return results, nil
}

// NewCertificate synthesizes a certificate record with a fresh verification
// code and the standard validity window.
func NewCertificate(interviewID uint) model.CertificateData {
	id := uuid.New().String()
	code := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
	issued := time.Now()
	return model.CertificateData{
		CertificateID:    id,
		IssuedAt:         issued,
		ValidUntil:       issued.AddDate(0, 0, certificateValidityDays),
		VerificationCode: code,
		ShareableLink:    fmt.Sprintf("%s/%s?verify=%s", shareableLinkBase, id, code),
	}
}

func buildSummary(questions []model.Question, answers []model.Answer) (model.ResultsSummary, float64) {
	var scored, skipped, correct, partial, incorrect, scoreSum, timeSum int
	for _, a := range answers {
		if a.Skipped {
			skipped++
			continue
		}
		scored++
		timeSum += a.TimeTakenSeconds
		score := 0
		if a.Evaluation != nil {
			score = a.Evaluation.OverallScore
		}
		scoreSum += score
		switch {
		case score >= 80:
			correct++
		case score >= 50:
			partial++
		default:
			incorrect++
		}
	}

	overall := 0
	avgTime := 0.0
	if scored > 0 {
		overall = int(math.Round(float64(scoreSum) / float64(scored)))
		avgTime = float64(timeSum) / float64(scored)
	}

	return model.ResultsSummary{
		OverallScore:      overall,
		Grade:             GradeFor(overall),
		Percentile:        PercentileFor(overall),
		Passed:            scored > 0 && overall >= 70,
		TotalQuestions:    len(questions),
		QuestionsAnswered: scored,
		QuestionsSkipped:  skipped,
		CorrectAnswers:    correct,
		PartiallyCorrect:  partial,
		IncorrectAnswers:  incorrect,
	}, avgTime
}

func (s *resultsService) narrativeFeedback(ctx context.Context, interview *model.Interview, summary model.ResultsSummary, breakdown model.PerformanceScores) model.DetailedFeedback {
	doc, err := s.llm.ChatJSON(ctx, narrativeMessages(interview, summary, breakdown), GenerationOptions{})
	if err != nil {
		log.Warn().Err(err).Uint("interviewID", interview.ID).Msg("Narrative feedback degraded to template")
		return templatedFeedback(summary)
	}
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return templatedFeedback(summary)
	}

	feedback := model.DetailedFeedback{
		Strengths:         docStrings(obj, "strengths"),
		Weaknesses:        docStrings(obj, "weaknesses"),
		OverallAssessment: docString(obj, "overallAssessment", "overall_assessment"),
		CategoryAnalyses:  map[string]string{},
	}
	if analyses, ok := obj["categoryAnalyses"].(map[string]interface{}); ok {
		for k, v := range analyses {
			if text, ok := v.(string); ok {
				feedback.CategoryAnalyses[k] = text
			}
		}
	}

	// Partial model output still gets templated defaults.
	tpl := templatedFeedback(summary)
	if len(feedback.Strengths) == 0 {
		feedback.Strengths = tpl.Strengths
	}
	if len(feedback.Weaknesses) == 0 {
		feedback.Weaknesses = tpl.Weaknesses
	}
	if feedback.OverallAssessment == "" {
		feedback.OverallAssessment = tpl.OverallAssessment
	}
	return feedback
}

func narrativeMessages(interview *model.Interview, summary model.ResultsSummary, breakdown model.PerformanceScores) []Message {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("A candidate completed a %s %s mock interview for the %s domain",
		interview.Difficulty, interview.InterviewType, interview.Domain))
	if interview.TargetCompany != "" {
		b.WriteString(fmt.Sprintf(" targeting %s", interview.TargetCompany))
	}
	b.WriteString(fmt.Sprintf(".\nOverall score %d/100 (grade %s). Answered %d of %d questions, skipped %d.\n",
		summary.OverallScore, summary.Grade, summary.QuestionsAnswered, summary.TotalQuestions, summary.QuestionsSkipped))
	b.WriteString(fmt.Sprintf("Category scores: technical %d, communication %d, problem solving %d, confidence %d.\n\n",
		breakdown.Technical, breakdown.Communication, breakdown.ProblemSolving, breakdown.Confidence))
	b.WriteString("Write a qualitative assessment. Respond with a strict JSON object:\n")
	b.WriteString(`{"strengths": [3-5 strings], "weaknesses": [3-5 strings], "overallAssessment": "2-3 sentences", `)
	b.WriteString(`"categoryAnalyses": {"technical": "...", "communication": "...", "problemSolving": "...", "confidence": "..."}}`)

	return []Message{
		{Role: model.RoleSystem, Content: "You are an experienced interview coach writing constructive, specific feedback reports."},
		{Role: model.RoleUser, Content: b.String()},
	}
}

// templatedFeedback is the narrative fallback, parameterized by score band.
func templatedFeedback(summary model.ResultsSummary) model.DetailedFeedback {
	var assessment string
	var strengths, weaknesses []string
	switch {
	case summary.QuestionsAnswered == 0:
		assessment = "No questions were answered in this session, so no meaningful assessment can be made. Try a shorter, easier configuration to build momentum."
		strengths = []string{"Completed the interview session flow."}
		weaknesses = []string{"No answers were submitted for evaluation."}
	case summary.OverallScore >= 85:
		assessment = "A strong performance across the board. Your answers showed depth and structure consistent with a well-prepared candidate."
		strengths = []string{"Consistently high answer quality.", "Good coverage of the questions asked."}
		weaknesses = []string{"Keep refining conciseness under time pressure."}
	case summary.OverallScore >= 70:
		assessment = "A solid performance with room to grow. Most answers landed, though some lacked depth or concrete detail."
		strengths = []string{"Answered the majority of questions competently."}
		weaknesses = []string{"Some answers stayed at the surface level.", "Work on backing claims with concrete examples."}
	case summary.OverallScore >= 50:
		assessment = "A mixed performance. The fundamentals are visible but need reinforcement before a real interview."
		strengths = []string{"Engaged with every question attempted."}
		weaknesses = []string{"Accuracy and completeness were inconsistent.", "Review the core topics covered in this session."}
	default:
		assessment = "This session surfaced significant gaps. Treat it as a baseline and focus practice on the weakest categories below."
		strengths = []string{"Completing a full session is the right first step."}
		weaknesses = []string{"Scores were below the passing threshold across categories."}
	}

	return model.DetailedFeedback{
		Strengths:         strengths,
		Weaknesses:        weaknesses,
		OverallAssessment: assessment,
		CategoryAnalyses:  map[string]string{},
		Fallback:          true,
	}
}

func improvementPlan(summary model.ResultsSummary, feedback model.DetailedFeedback) []string {
	plan := make([]string, 0, len(feedback.Weaknesses)+1)
	for _, w := range feedback.Weaknesses {
		plan = append(plan, "Address: "+w)
	}
	if summary.OverallScore < 70 {
		plan = append(plan, "Retake a session at the same difficulty and aim for a passing score of 70.")
	} else {
		plan = append(plan, "Increase the difficulty in your next session to keep improving.")
	}
	return plan
}

// questionAnalysis replays each question against its answer for the report.
func questionAnalysis(questions []model.Question, answers []model.Answer) []model.QuestionAnalysis {
	byKey := make(map[string]*model.Answer, len(answers))
	for i := range answers {
		byKey[answers[i].QuestionKey] = &answers[i]
	}

	analysis := make([]model.QuestionAnalysis, 0, len(questions))
	for _, q := range questions {
		qa := model.QuestionAnalysis{
			QuestionKey:  q.QuestionKey,
			QuestionText: q.Text,
			QuestionType: q.Type,
			ModelAnswer:  q.ExpectedAnswer,
			UserAnswer:   "Not answered",
			Skipped:      true,
		}
		if a, ok := byKey[q.QuestionKey]; ok {
			qa.Skipped = a.Skipped
			qa.TimeTaken = a.TimeTakenSeconds
			if !a.Skipped {
				qa.UserAnswer = a.AnswerText
				if a.Evaluation != nil {
					qa.Score = a.Evaluation.OverallScore
					qa.WeightedScore = a.Evaluation.WeightedScore
					qa.Feedback = a.Evaluation.Feedback
				}
			}
		}
		analysis = append(analysis, qa)
	}
	return analysis
}
