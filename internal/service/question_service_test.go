package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/lshigami/Mockingbird/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionCount(t *testing.T) {
	cases := []struct {
		difficulty string
		qType      string
		want       int
	}{
		{model.DifficultyEasy, model.TypeBehavioral, 3},
		{model.DifficultyEasy, model.TypeTechnical, 2},
		{model.DifficultyEasy, model.TypeCoding, 2},
		{model.DifficultyEasy, model.TypeSystemDesign, 1},
		{model.DifficultyMedium, model.TypeBehavioral, 5},
		{model.DifficultyMedium, model.TypeTechnical, 6},
		{model.DifficultyMedium, model.TypeCoding, 3},
		{model.DifficultyMedium, model.TypeSystemDesign, 2},
		{model.DifficultyHard, model.TypeBehavioral, 7},
		{model.DifficultyHard, model.TypeTechnical, 12},
		{model.DifficultyHard, model.TypeCoding, 5},
		{model.DifficultyHard, model.TypeSystemDesign, 3},
	}
	for _, tc := range cases {
		t.Run(tc.difficulty+"/"+tc.qType, func(t *testing.T) {
			assert.Equal(t, tc.want, QuestionCount(tc.difficulty, tc.qType))
		})
	}

	assert.Equal(t, 3, QuestionCount("unknown", "unknown"), "unknown pairs fall back to 3")
}

func TestResolveConcreteType(t *testing.T) {
	for _, concrete := range model.ConcreteTypes {
		assert.Equal(t, concrete, ResolveConcreteType(concrete))
	}

	// "mixed" must always resolve to one of the concrete types.
	for i := 0; i < 50; i++ {
		resolved := ResolveConcreteType(model.TypeMixed)
		assert.Contains(t, model.ConcreteTypes, resolved)
		assert.NotEqual(t, model.TypeMixed, resolved)
	}
}

func TestGenerateQuestionsNormalizesModelOutput(t *testing.T) {
	llm := &mockLLM{
		chatJSONFn: func(ctx context.Context, messages []Message, opts GenerationOptions) (interface{}, error) {
			return jsonDoc(t, []map[string]interface{}{
				{
					"text":           "Explain how a B-tree index speeds up range scans.",
					"expectedAnswer": "Sorted keys, logarithmic descent, sequential leaf traversal.",
					"hints":          []string{"Think about key ordering.", "What do leaf nodes link to?"},
					"type":           "coding", // model lies about the type; must be overridden
				},
				{
					"question": "What is a write-ahead log for?",
					// no hints, criteria or tags: defaults must apply
				},
			}), nil
		},
	}
	svc := NewQuestionService(llm)
	interview := &model.Interview{Domain: "backend", Difficulty: model.DifficultyEasy, InterviewType: model.TypeTechnical}

	questions := svc.GenerateQuestions(context.Background(), interview, model.TypeTechnical)
	require.Len(t, questions, 2)

	first := questions[0]
	assert.Equal(t, "q1", first.QuestionKey)
	assert.Equal(t, model.TypeTechnical, first.Type, "question type is forced to the resolved concrete type")
	assert.Equal(t, model.DifficultyEasy, first.Difficulty)
	assert.Equal(t, 420, first.TimeLimitSeconds)
	assert.False(t, first.Skippable, "the first question is never skippable")
	assert.Equal(t, 1, first.OrderInRound)
	assert.False(t, first.IsFallback)
	assert.Equal(t, len(first.Hints), first.MaxHints)

	second := questions[1]
	assert.Equal(t, "q2", second.QuestionKey)
	assert.True(t, second.Skippable)
	assert.NotEmpty(t, second.Hints, "missing hints get defaults")
	assert.NotEmpty(t, second.EvaluationCriteria, "missing criteria get type defaults")
	assert.NotEmpty(t, second.Tags, "missing tags get domain defaults")
}

func TestGenerateQuestionsDiscardsUnusableItems(t *testing.T) {
	llm := &mockLLM{
		chatJSONFn: func(ctx context.Context, messages []Message, opts GenerationOptions) (interface{}, error) {
			return jsonDoc(t, []interface{}{
				map[string]interface{}{"text": ""}, // empty text is dropped
				map[string]interface{}{"text": "Explain the CAP theorem."},
			}), nil
		},
	}
	svc := NewQuestionService(llm)
	interview := &model.Interview{Domain: "backend", Difficulty: model.DifficultyEasy, InterviewType: model.TypeTechnical}

	questions := svc.GenerateQuestions(context.Background(), interview, model.TypeTechnical)
	require.Len(t, questions, 1)

	// The surviving item is the first question actually placed in the round,
	// so it carries the first-question guarantees even though the model
	// listed it last.
	assert.Equal(t, "q1", questions[0].QuestionKey)
	assert.Equal(t, 1, questions[0].OrderInRound)
	assert.False(t, questions[0].Skippable, "the first placed question is never skippable")
}

func TestGenerateQuestionsTruncatesExcess(t *testing.T) {
	llm := &mockLLM{
		chatJSONFn: func(ctx context.Context, messages []Message, opts GenerationOptions) (interface{}, error) {
			var items []map[string]interface{}
			for i := 0; i < 10; i++ {
				items = append(items, map[string]interface{}{"text": fmt.Sprintf("Question number %d?", i)})
			}
			return jsonDoc(t, items), nil
		},
	}
	svc := NewQuestionService(llm)
	interview := &model.Interview{Domain: "backend", Difficulty: model.DifficultyEasy}

	questions := svc.GenerateQuestions(context.Background(), interview, model.TypeSystemDesign)
	assert.Len(t, questions, 1, "easy system-design rounds have exactly one question")
}

func TestGenerateQuestionsAcceptsObjectWrappedArray(t *testing.T) {
	llm := &mockLLM{
		chatJSONFn: func(ctx context.Context, messages []Message, opts GenerationOptions) (interface{}, error) {
			return jsonDoc(t, map[string]interface{}{
				"questions": []map[string]interface{}{
					{"text": "Tell me about a time you disagreed with a teammate."},
				},
			}), nil
		},
	}
	svc := NewQuestionService(llm)
	interview := &model.Interview{Domain: "backend", Difficulty: model.DifficultyEasy}

	questions := svc.GenerateQuestions(context.Background(), interview, model.TypeBehavioral)
	require.NotEmpty(t, questions)
	assert.Equal(t, model.TypeBehavioral, questions[0].Type)
}

func TestGenerateQuestionsFallsBackToBankOnGatewayFailure(t *testing.T) {
	svc := NewQuestionService(&mockLLM{}) // zero-value mock always fails
	interview := &model.Interview{Domain: "backend", Difficulty: model.DifficultyHard}

	questions := svc.GenerateQuestions(context.Background(), interview, model.TypeTechnical)
	require.Len(t, questions, 12, "hard technical rounds have twelve questions and the bank covers it")
	for i, q := range questions {
		assert.True(t, q.IsFallback, "bank questions carry the fallback flag")
		assert.Equal(t, fmt.Sprintf("q%d", i+1), q.QuestionKey)
		assert.Equal(t, model.TypeTechnical, q.Type)
		assert.Equal(t, i > 0, q.Skippable)
		assert.NotEmpty(t, q.Hints)
		assert.NotEmpty(t, q.EvaluationCriteria)
	}
}

func TestGenerateQuestionsFallsBackOnUnusableOutput(t *testing.T) {
	llm := &mockLLM{
		chatJSONFn: func(ctx context.Context, messages []Message, opts GenerationOptions) (interface{}, error) {
			return jsonDoc(t, []map[string]interface{}{{"text": ""}}), nil
		},
	}
	svc := NewQuestionService(llm)
	interview := &model.Interview{Domain: "backend", Difficulty: model.DifficultyEasy}

	questions := svc.GenerateQuestions(context.Background(), interview, model.TypeCoding)
	require.Len(t, questions, 2)
	assert.True(t, questions[0].IsFallback)
}
