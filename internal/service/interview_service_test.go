package service

import (
	"context"
	"strings"
	"testing"

	"github.com/lshigami/Mockingbird/internal/apperr"
	"github.com/lshigami/Mockingbird/internal/dto"
	"github.com/lshigami/Mockingbird/internal/model"
	"github.com/lshigami/Mockingbird/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dispatchLLM answers both the question-generation and evaluation prompts so a
// full interview can run without touching the degraded paths. Narrative
// feedback still fails over to the template.
func dispatchLLM(t *testing.T, evalScore int) *mockLLM {
	return &mockLLM{
		chatJSONFn: func(ctx context.Context, messages []Message, opts GenerationOptions) (interface{}, error) {
			prompt := messages[len(messages)-1].Content
			switch {
			case strings.Contains(prompt, "JSON array"):
				var items []map[string]interface{}
				for i := 0; i < 12; i++ {
					items = append(items, map[string]interface{}{
						"text":           "Walk me through how you would shard a relational database.",
						"expectedAnswer": "Partition key choice, rebalancing, cross-shard queries.",
						"hints":          []string{"Start with the partition key.", "What happens on resharding?"},
					})
				}
				return jsonDoc(t, items), nil
			case strings.Contains(prompt, "overallScore"):
				return jsonDoc(t, map[string]interface{}{
					"overallScore": evalScore,
					"categoryScores": map[string]interface{}{
						"accuracy": evalScore, "clarity": evalScore, "completeness": evalScore, "depth": evalScore,
					},
					"feedback": "Solid reasoning.",
				}), nil
			default:
				return nil, ErrLLMUnavailable
			}
		},
	}
}

func TestCreateInterviewValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.interviewSvc.Create(ctx, testUserID, newCreateRequest("quiz", model.DifficultyEasy))
	assert.True(t, apperr.IsValidation(err))

	_, err = env.interviewSvc.Create(ctx, testUserID, newCreateRequest(model.TypeTechnical, "brutal"))
	assert.True(t, apperr.IsValidation(err))

	resp, err := env.interviewSvc.Create(ctx, testUserID, newCreateRequest(model.TypeMixed, model.DifficultyMedium))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, resp.Status)
	assert.Equal(t, model.TypeMixed, resp.InterviewType, "mixed stays on the config until start resolves it")
}

func TestStartInterview(t *testing.T) {
	env := newTestEnv(t, dispatchLLM(t, 80))
	ctx := context.Background()
	id := env.createInterview(t, model.TypeTechnical, model.DifficultyEasy)

	resp, err := env.interviewSvc.Start(ctx, testUserID, id)
	require.NoError(t, err)

	assert.Equal(t, model.StatusInProgress, resp.Status)
	assert.Equal(t, 2, resp.TotalQuestions, "easy technical rounds have two questions")
	assert.Equal(t, "q1", resp.FirstQuestion.QuestionKey)
	assert.False(t, resp.FirstQuestion.Skippable)
	assert.Equal(t, 30*60, resp.TimeRemainingSeconds)

	loaded, err := env.interviewSvc.Get(ctx, testUserID, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, loaded.Status)
	assert.NotNil(t, loaded.StartTime)

	// Starting twice is a state conflict.
	_, err = env.interviewSvc.Start(ctx, testUserID, id)
	assert.True(t, apperr.IsStateConflict(err))
}

func TestStartLostRaceRollsBackSecondRound(t *testing.T) {
	env := newTestEnv(t, dispatchLLM(t, 80))
	ctx := context.Background()
	id := env.createInterview(t, model.TypeTechnical, model.DifficultyEasy)

	_, err := env.interviewSvc.Start(ctx, testUserID, id)
	require.NoError(t, err)

	// A racer whose status check ran against a stale pending read commits
	// after the winner. The conditional flip matches zero rows, so the
	// racer's round must roll back instead of silently replacing the
	// active question set.
	stale := model.Round{
		InterviewID: id,
		RoundNumber: 2,
		RoundType:   model.TypeTechnical,
		Questions: []model.Question{
			{QuestionKey: "q1", Text: "Describe an index you added and why.", Type: model.TypeTechnical, OrderInRound: 1},
		},
	}
	err = env.interviewSvc.(*interviewService).attachRound(&stale, id, testUserID)
	assert.True(t, apperr.IsStateConflict(err), "the losing start reports a state conflict")

	interview, err := env.interviewRepo.FindByIDAndUser(id, testUserID)
	require.NoError(t, err)
	assert.Len(t, interview.Rounds, 1, "a lost-race start must not leave a second round attached")
}

func TestStartResolvesMixedType(t *testing.T) {
	env := newTestEnv(t, nil) // bank fallback is fine here
	ctx := context.Background()
	id := env.createInterview(t, model.TypeMixed, model.DifficultyMedium)

	resp, err := env.interviewSvc.Start(ctx, testUserID, id)
	require.NoError(t, err)
	assert.Contains(t, model.ConcreteTypes, resp.FirstQuestion.Type, "mixed resolves to a concrete type before generation")
}

func TestSubmitAnswerHappyPath(t *testing.T) {
	env := newTestEnv(t, dispatchLLM(t, 80))
	ctx := context.Background()
	id := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)

	first, err := env.interviewSvc.SubmitAnswer(ctx, testUserID, id, dto.SubmitAnswerRequest{
		QuestionKey:      "q1",
		AnswerText:       "Pick a partition key aligned with the access pattern, use consistent hashing for rebalancing.",
		TimeTakenSeconds: 120,
	})
	require.NoError(t, err)

	require.NotNil(t, first.Evaluation)
	assert.Equal(t, 80, first.Evaluation.OverallScore)
	assert.False(t, first.IsComplete)
	require.NotNil(t, first.NextQuestion)
	assert.Equal(t, "q2", first.NextQuestion.QuestionKey)
	assert.Equal(t, 1, first.Progress.QuestionsAnswered)
	assert.Equal(t, 1, first.Progress.Remaining)
	assert.Equal(t, 80, first.CurrentScore)

	second, err := env.interviewSvc.SubmitAnswer(ctx, testUserID, id, dto.SubmitAnswerRequest{
		QuestionKey:      "q2",
		AnswerText:       "Cross-shard queries need scatter-gather or denormalized lookups.",
		TimeTakenSeconds: 90,
	})
	require.NoError(t, err)
	assert.True(t, second.IsComplete)
	assert.Nil(t, second.NextQuestion)

	// Performance is recomputed and persisted after every submission.
	loaded, err := env.interviewSvc.Get(ctx, testUserID, id)
	require.NoError(t, err)
	require.NotNil(t, loaded.Performance)
	assert.Equal(t, 80, loaded.Performance.OverallScore)
	assert.Equal(t, 2, loaded.Performance.QuestionsAnswered)
	assert.Equal(t, 80, loaded.Performance.CategoryScores.Confidence)
}

func TestSubmitAnswerRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)

	req := dto.SubmitAnswerRequest{QuestionKey: "q1", AnswerText: "first attempt", TimeTakenSeconds: 30}
	_, err := env.interviewSvc.SubmitAnswer(ctx, testUserID, id, req)
	require.NoError(t, err)

	req.AnswerText = "second attempt"
	_, err = env.interviewSvc.SubmitAnswer(ctx, testUserID, id, req)
	assert.True(t, apperr.IsStateConflict(err))

	var count int64
	env.db.Model(&model.Answer{}).Where("question_key = ?", "q1").Count(&count)
	assert.EqualValues(t, 1, count, "the duplicate submission must not create a second answer row")
}

func TestAnswerRepositoryDuplicateGuard(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)

	interview, err := env.interviewRepo.FindByIDAndUser(id, testUserID)
	require.NoError(t, err)
	roundID := interview.CurrentRound().ID

	require.NoError(t, env.answerRepo.Insert(&model.Answer{RoundID: roundID, QuestionKey: "q1", AnswerText: "a"}))
	err = env.answerRepo.Insert(&model.Answer{RoundID: roundID, QuestionKey: "q1", AnswerText: "b"})
	assert.ErrorIs(t, err, repository.ErrDuplicateAnswer, "the unique index backs the duplicate guard at the data layer")
}

func TestSubmitAnswerValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)

	_, err := env.interviewSvc.SubmitAnswer(ctx, testUserID, id, dto.SubmitAnswerRequest{
		QuestionKey: "q1", AnswerText: "x", TimeTakenSeconds: 5000,
	})
	assert.True(t, apperr.IsValidation(err), "time taken beyond an hour is rejected")

	_, err = env.interviewSvc.SubmitAnswer(ctx, testUserID, id, dto.SubmitAnswerRequest{
		QuestionKey: "q99", AnswerText: "x",
	})
	assert.True(t, apperr.IsNotFound(err))
}

func TestSubmitAnswerRequiresInProgress(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.createInterview(t, model.TypeTechnical, model.DifficultyEasy)

	_, err := env.interviewSvc.SubmitAnswer(ctx, testUserID, id, dto.SubmitAnswerRequest{QuestionKey: "q1", AnswerText: "x"})
	assert.True(t, apperr.IsStateConflict(err))
}

func TestSkipQuestion(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)

	_, err := env.interviewSvc.SkipQuestion(ctx, testUserID, id, dto.SkipQuestionRequest{QuestionKey: "q1"})
	assert.True(t, apperr.IsValidation(err), "the opening question is not skippable")

	resp, err := env.interviewSvc.SkipQuestion(ctx, testUserID, id, dto.SkipQuestionRequest{QuestionKey: "q2"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Progress.QuestionsSkipped)

	// A skipped question cannot be answered afterwards.
	_, err = env.interviewSvc.SubmitAnswer(ctx, testUserID, id, dto.SubmitAnswerRequest{QuestionKey: "q2", AnswerText: "late"})
	assert.True(t, apperr.IsStateConflict(err))
}

func TestGetHint(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)

	hint, err := env.interviewSvc.GetHint(ctx, testUserID, id, "q1", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, hint.Hint)
	assert.GreaterOrEqual(t, hint.HintsRemaining, 0)

	_, err = env.interviewSvc.GetHint(ctx, testUserID, id, "q1", 99)
	assert.True(t, apperr.IsValidation(err))

	_, err = env.interviewSvc.GetHint(ctx, testUserID, id, "q99", 0)
	assert.True(t, apperr.IsNotFound(err))
}

func TestGetHintRequiresInProgress(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.createInterview(t, model.TypeTechnical, model.DifficultyEasy)

	_, err := env.interviewSvc.GetHint(ctx, testUserID, id, "q1", 0)
	assert.True(t, apperr.IsStateConflict(err))
}

func TestCompleteIsIdempotent(t *testing.T) {
	env := newTestEnv(t, dispatchLLM(t, 85))
	ctx := context.Background()
	id := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)

	for _, key := range []string{"q1", "q2"} {
		_, err := env.interviewSvc.SubmitAnswer(ctx, testUserID, id, dto.SubmitAnswerRequest{
			QuestionKey: key, AnswerText: "A reasonable answer with enough substance.", TimeTakenSeconds: 60,
		})
		require.NoError(t, err)
	}

	first, err := env.interviewSvc.Complete(ctx, testUserID, id)
	require.NoError(t, err)
	require.NotNil(t, first.Results)
	assert.Equal(t, 85, first.Results.Summary.OverallScore)
	assert.Equal(t, "B+", first.Results.Summary.Grade)
	assert.True(t, first.Results.Summary.Passed)

	second, err := env.interviewSvc.Complete(ctx, testUserID, id)
	require.NoError(t, err)
	require.NotNil(t, second.Results)
	assert.Equal(t, first.Results.CertificateData.CertificateID, second.Results.CertificateData.CertificateID,
		"a repeat completion returns the cached results, not a regenerated report")
	assert.Equal(t, first.Results.CertificateData.VerificationCode, second.Results.CertificateData.VerificationCode)
	assert.Equal(t, first.Results.Summary, second.Results.Summary)

	loaded, err := env.interviewSvc.Get(ctx, testUserID, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, loaded.Status)
	assert.NotNil(t, loaded.EndTime)
}

func TestCompleteRequiresInProgress(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.createInterview(t, model.TypeTechnical, model.DifficultyEasy)

	_, err := env.interviewSvc.Complete(ctx, testUserID, id)
	assert.True(t, apperr.IsStateConflict(err), "a pending interview cannot be completed")
}

func TestCompleteWithOnlySkips(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)

	_, err := env.interviewSvc.SkipQuestion(ctx, testUserID, id, dto.SkipQuestionRequest{QuestionKey: "q2"})
	require.NoError(t, err)

	resp, err := env.interviewSvc.Complete(ctx, testUserID, id)
	require.NoError(t, err)

	results := resp.Results
	require.NotNil(t, results)
	assert.Equal(t, 0, results.Summary.QuestionsAnswered)
	assert.Equal(t, 1, results.Summary.QuestionsSkipped)
	assert.False(t, results.Summary.Passed)
	assert.Equal(t, "F", results.Summary.Grade)
	assert.NotEmpty(t, results.DetailedFeedback.OverallAssessment, "results are fully populated even with nothing answered")
	assert.NotEmpty(t, results.CertificateData.CertificateID)
	assert.Len(t, results.QuestionAnalysis, 2)
}

func TestGetResults(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)

	_, err := env.interviewSvc.GetResults(ctx, testUserID, id)
	assert.True(t, apperr.IsStateConflict(err), "results exist only after completion")

	_, err = env.interviewSvc.Complete(ctx, testUserID, id)
	require.NoError(t, err)

	resp, err := env.interviewSvc.GetResults(ctx, testUserID, id)
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
}

func TestAbandon(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	id := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)
	require.NoError(t, env.interviewSvc.Abandon(ctx, testUserID, id))
	assert.NoError(t, env.interviewSvc.Abandon(ctx, testUserID, id), "abandoning twice is a no-op")

	loaded, err := env.interviewSvc.Get(ctx, testUserID, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAbandoned, loaded.Status)

	// An abandoned interview accepts no further answers.
	_, err = env.interviewSvc.SubmitAnswer(ctx, testUserID, id, dto.SubmitAnswerRequest{QuestionKey: "q1", AnswerText: "x"})
	assert.True(t, apperr.IsStateConflict(err))

	completed := env.startedInterview(t, model.TypeTechnical, model.DifficultyEasy)
	_, err = env.interviewSvc.Complete(ctx, testUserID, completed)
	require.NoError(t, err)
	err = env.interviewSvc.Abandon(ctx, testUserID, completed)
	assert.True(t, apperr.IsStateConflict(err), "a completed interview cannot be abandoned")
}

func TestUserScoping(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.createInterview(t, model.TypeTechnical, model.DifficultyEasy)

	_, err := env.interviewSvc.Get(ctx, testUserID+1, id)
	assert.True(t, apperr.IsNotFound(err), "another user's interview reads as not found")

	_, err = env.interviewSvc.Start(ctx, testUserID+1, id)
	assert.True(t, apperr.IsNotFound(err))

	mine, err := env.interviewSvc.List(ctx, testUserID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := env.interviewSvc.List(ctx, testUserID+1)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestDerivePerformance(t *testing.T) {
	questions := []model.Question{{QuestionKey: "q1"}, {QuestionKey: "q2"}, {QuestionKey: "q3"}}
	answers := []model.Answer{
		{QuestionKey: "q1", HintsUsed: 1, Evaluation: &model.Evaluation{
			OverallScore:   80,
			CategoryScores: model.EvaluationScores{Clarity: 70, Completeness: 60},
		}},
		{QuestionKey: "q2", Evaluation: &model.Evaluation{
			OverallScore:   60,
			CategoryScores: model.EvaluationScores{Clarity: 50, Completeness: 40},
		}},
		{QuestionKey: "q3", Skipped: true, HintsUsed: 2},
	}

	perf := derivePerformance(questions, answers)
	assert.Equal(t, 70, perf.OverallScore)
	assert.Equal(t, 70, perf.CategoryScores.Technical)
	assert.Equal(t, 60, perf.CategoryScores.Communication)
	assert.Equal(t, 50, perf.CategoryScores.ProblemSolving)
	assert.Equal(t, 65, perf.CategoryScores.Confidence)
	assert.Equal(t, 3, perf.TotalQuestions)
	assert.Equal(t, 2, perf.QuestionsAnswered)
	assert.Equal(t, 1, perf.QuestionsSkipped)
	assert.Equal(t, 3, perf.HintsUsed)
	assert.Equal(t, 70, perf.Percentile)

	// Pure recomputation: the same inputs always produce the same output.
	assert.Equal(t, perf, derivePerformance(questions, answers))

	empty := derivePerformance(questions, nil)
	assert.Equal(t, 0, empty.OverallScore)
	assert.Equal(t, 25, empty.Percentile)
}

func TestFullyDegradedInterview(t *testing.T) {
	// Gateway down for generation, evaluation and narrative at once: the whole
	// flow must still run end to end on fallbacks.
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.createInterview(t, model.TypeTechnical, model.DifficultyEasy)

	start, err := env.interviewSvc.Start(ctx, testUserID, id)
	require.NoError(t, err)
	assert.True(t, start.FirstQuestion.IsFallback, "bank questions are flagged when generation is down")

	answer, err := env.interviewSvc.SubmitAnswer(ctx, testUserID, id, dto.SubmitAnswerRequest{
		QuestionKey: "q1",
		AnswerText:  strings.TrimSpace(strings.Repeat("word ", 80)),
	})
	require.NoError(t, err)
	require.NotNil(t, answer.Evaluation)
	assert.True(t, answer.Evaluation.Metadata.Fallback, "heuristic evaluations carry the fallback marker")
	assert.Equal(t, 65, answer.Evaluation.OverallScore)

	_, err = env.interviewSvc.SubmitAnswer(ctx, testUserID, id, dto.SubmitAnswerRequest{
		QuestionKey: "q2", AnswerText: "short",
	})
	require.NoError(t, err)

	resp, err := env.interviewSvc.Complete(ctx, testUserID, id)
	require.NoError(t, err)
	require.NotNil(t, resp.Results)
	assert.True(t, resp.Results.DetailedFeedback.Fallback)
	assert.NotEmpty(t, resp.Results.CertificateData.CertificateID)
	assert.False(t, resp.Results.Degraded, "fallback content is not the same as a degraded skeleton")
}
