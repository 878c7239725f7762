package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/lshigami/Mockingbird/internal/dto"
	"github.com/lshigami/Mockingbird/internal/model"
	"github.com/lshigami/Mockingbird/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockLLM implements LLMService with function fields. A zero value fails every
// call with ErrLLMUnavailable, which exercises the degraded paths.
type mockLLM struct {
	chatFn     func(ctx context.Context, messages []Message, opts GenerationOptions) (string, error)
	chatJSONFn func(ctx context.Context, messages []Message, opts GenerationOptions) (interface{}, error)
}

func (m *mockLLM) Chat(ctx context.Context, messages []Message, opts GenerationOptions) (string, error) {
	if m.chatFn == nil {
		return "", ErrLLMUnavailable
	}
	return m.chatFn(ctx, messages, opts)
}

func (m *mockLLM) ChatJSON(ctx context.Context, messages []Message, opts GenerationOptions) (interface{}, error) {
	if m.chatJSONFn == nil {
		return nil, ErrLLMUnavailable
	}
	return m.chatJSONFn(ctx, messages, opts)
}

func (m *mockLLM) ChatStream(ctx context.Context, messages []Message, opts GenerationOptions) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errs := make(chan error, 1)
	close(chunks)
	errs <- ErrLLMUnavailable
	return chunks, errs
}

// jsonDoc round-trips a value through encoding/json so mocks return the same
// shape a real gateway response would have (maps and float64 numbers).
func jsonDoc(t *testing.T, v interface{}) interface{} {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal mock document: %v", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("failed to unmarshal mock document: %v", err)
	}
	return doc
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Interview{},
		&model.Round{},
		&model.Question{},
		&model.Answer{},
		&model.ConversationTurn{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// testEnv wires real repositories over an in-memory database with a mock
// gateway, mirroring the production dependency graph.
type testEnv struct {
	db            *gorm.DB
	llm           *mockLLM
	interviewRepo repository.InterviewRepository
	answerRepo    repository.AnswerRepository
	convRepo      repository.ConversationRepository
	interviewSvc  InterviewService
	convSvc       ConversationService
}

func newTestEnv(t *testing.T, llm *mockLLM) *testEnv {
	t.Helper()
	if llm == nil {
		llm = &mockLLM{}
	}
	db := newTestDB(t)
	interviewRepo := repository.NewInterviewRepository(db)
	roundRepo := repository.NewRoundRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	convRepo := repository.NewConversationRepository(db)
	questionSvc := NewQuestionService(llm)
	evaluationSvc := NewEvaluationService(llm)
	resultsSvc := NewResultsService(llm)

	return &testEnv{
		db:            db,
		llm:           llm,
		interviewRepo: interviewRepo,
		answerRepo:    answerRepo,
		convRepo:      convRepo,
		interviewSvc:  NewInterviewService(interviewRepo, roundRepo, answerRepo, questionSvc, evaluationSvc, resultsSvc, db),
		convSvc:       NewConversationService(interviewRepo, convRepo, questionSvc, llm, db),
	}
}

const testUserID = uint(42)

func newAnswer(key string) dto.SubmitAnswerRequest {
	return dto.SubmitAnswerRequest{
		QuestionKey:      key,
		AnswerText:       "A serviceable answer with some concrete detail.",
		TimeTakenSeconds: 45,
	}
}

func newCreateRequest(interviewType, difficulty string) dto.CreateInterviewRequest {
	return dto.CreateInterviewRequest{
		Domain:          "backend",
		SubDomain:       "distributed systems",
		InterviewType:   interviewType,
		Difficulty:      difficulty,
		DurationMinutes: 30,
	}
}

func (e *testEnv) createInterview(t *testing.T, interviewType, difficulty string) uint {
	t.Helper()
	resp, err := e.interviewSvc.Create(context.Background(), testUserID, newCreateRequest(interviewType, difficulty))
	if err != nil {
		t.Fatalf("failed to create interview: %v", err)
	}
	return resp.ID
}

func (e *testEnv) startedInterview(t *testing.T, interviewType, difficulty string) uint {
	t.Helper()
	id := e.createInterview(t, interviewType, difficulty)
	if _, err := e.interviewSvc.Start(context.Background(), testUserID, id); err != nil {
		t.Fatalf("failed to start interview: %v", err)
	}
	return id
}
