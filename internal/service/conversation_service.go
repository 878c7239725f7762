package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/Mockingbird/internal/apperr"
	"github.com/lshigami/Mockingbird/internal/dto"
	"github.com/lshigami/Mockingbird/internal/model"
	"github.com/lshigami/Mockingbird/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ConversationService drives the real-time conversational sub-protocol. Every
// turn is persisted immediately: reconnecting clients resume from the stored
// history, never from socket memory. This protocol does not write to
// Round.Answers; a separate SubmitAnswer call finalizes a turn into an Answer.
type ConversationService interface {
	StartConversation(ctx context.Context, userID, interviewID uint) (*dto.StartConversationResponse, error)
	AskNextQuestion(ctx context.Context, userID, interviewID uint) (*dto.NextQuestionResponse, error)
	GetRealTimeResponse(ctx context.Context, userID, interviewID uint, content string) (*dto.RealTimeResponse, error)
	History(ctx context.Context, userID, interviewID uint) ([]dto.ConversationTurnDTO, error)
}

type conversationService struct {
	interviewRepo repository.InterviewRepository
	convRepo      repository.ConversationRepository
	questionSvc   QuestionService
	llm           LLMService
	db            *gorm.DB
}

func NewConversationService(
	interviewRepo repository.InterviewRepository,
	convRepo repository.ConversationRepository,
	questionSvc QuestionService,
	llm LLMService,
	db *gorm.DB,
) ConversationService {
	return &conversationService{
		interviewRepo: interviewRepo,
		convRepo:      convRepo,
		questionSvc:   questionSvc,
		llm:           llm,
		db:            db,
	}
}

// StartConversation performs the pending -> in-progress transition and seeds
// the conversation history with an AI greeting in the same call.
func (s *conversationService) StartConversation(ctx context.Context, userID, interviewID uint) (*dto.StartConversationResponse, error) {
	interview, err := s.load(interviewID, userID)
	if err != nil {
		return nil, err
	}
	if interview.Status != model.StatusPending {
		return nil, apperr.StateConflict("interview %d is %s, only pending interviews can start a conversation", interviewID, interview.Status)
	}

	concreteType := ResolveConcreteType(interview.InterviewType)
	questions := s.questionSvc.GenerateQuestions(ctx, interview, concreteType)

	greeting, err := s.llm.Chat(ctx, []Message{
		{Role: model.RoleSystem, Content: "You are a friendly professional interviewer opening a mock interview session. Keep it to 2-3 sentences."},
		{Role: model.RoleUser, Content: fmt.Sprintf("Greet a candidate starting a %s %s interview for the %s domain and tell them the first question is coming up.",
			interview.Difficulty, concreteType, interview.Domain)},
	}, GenerationOptions{})
	if err != nil {
		greeting = fmt.Sprintf("Welcome! This is your %s %s interview with %d questions. Take your time, and let's begin.",
			interview.Difficulty, concreteType, len(questions))
	}

	round := model.Round{
		InterviewID: interview.ID,
		RoundNumber: len(interview.Rounds) + 1,
		RoundType:   concreteType,
		Questions:   questions,
	}
	if err := s.seedRound(&round, greeting, interview.ID, userID); err != nil {
		log.Error().Err(err).Uint("interviewID", interviewID).Msg("Failed to start conversation")
		return nil, err
	}

	return &dto.StartConversationResponse{
		Greeting:       greeting,
		FirstQuestion:  questionToDTO(&round.Questions[0]),
		TotalQuestions: len(round.Questions),
	}, nil
}

// seedRound persists the round with its greeting turn and flips status to
// in-progress in one transaction. The conditional update is the race guard:
// when two starts race, the loser matches zero rows and everything it wrote
// is rolled back.
func (s *conversationService) seedRound(round *model.Round, greeting string, interviewID, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(round).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.ConversationTurn{
			RoundID:   round.ID,
			TurnOrder: 1,
			Role:      model.RoleAssistant,
			Content:   greeting,
		}).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Interview{}).
			Where("id = ? AND user_id = ? AND status = ?", interviewID, userID, model.StatusPending).
			Updates(map[string]interface{}{
				"status":     model.StatusInProgress,
				"start_time": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.StateConflict("interview %d is no longer pending", interviewID)
		}
		return nil
	})
}

// AskNextQuestion selects the question at index len(round.Answers) and asks
// the model to phrase a natural introduction for it.
func (s *conversationService) AskNextQuestion(ctx context.Context, userID, interviewID uint) (*dto.NextQuestionResponse, error) {
	_, round, err := s.loadActive(interviewID, userID)
	if err != nil {
		return nil, err
	}

	index := len(round.Answers)
	if index >= len(round.Questions) {
		return &dto.NextQuestionResponse{
			Introduction:  "That was the last question. Great work making it through the whole session.",
			QuestionIndex: index,
			Completed:     true,
		}, nil
	}
	question := round.Questions[index]

	intro, err := s.llm.Chat(ctx, []Message{
		{Role: model.RoleSystem, Content: "You are an interviewer transitioning to the next question. Introduce it naturally in 1-2 sentences, then state the question."},
		{Role: model.RoleUser, Content: fmt.Sprintf("Question %d of %d: %s", index+1, len(round.Questions), question.Text)},
	}, GenerationOptions{})
	if err != nil {
		intro = fmt.Sprintf("Let's move on to question %d of %d: %s", index+1, len(round.Questions), question.Text)
	}

	if err := s.appendTurn(round.ID, model.RoleAssistant, intro); err != nil {
		return nil, err
	}

	q := questionToDTO(&question)
	return &dto.NextQuestionResponse{
		Introduction:  intro,
		Question:      &q,
		QuestionIndex: index,
	}, nil
}

// GetRealTimeResponse records the candidate's turn, asks the model whether the
// answer so far is sufficient, and replies with either a follow-up or a
// completion signal.
func (s *conversationService) GetRealTimeResponse(ctx context.Context, userID, interviewID uint, content string) (*dto.RealTimeResponse, error) {
	if content == "" {
		return nil, apperr.Validation("message content must not be empty")
	}
	_, round, err := s.loadActive(interviewID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.appendTurn(round.ID, model.RoleUser, content); err != nil {
		return nil, err
	}

	index := len(round.Answers)
	var questionText string
	if index < len(round.Questions) {
		questionText = round.Questions[index].Text
	}

	reply, sufficient := s.judgeTurn(ctx, round, questionText, content)

	if err := s.appendTurn(round.ID, model.RoleAssistant, reply); err != nil {
		return nil, err
	}

	return &dto.RealTimeResponse{
		Reply:        reply,
		IsSufficient: sufficient,
		Completed:    sufficient && index >= len(round.Questions)-1,
	}, nil
}

func (s *conversationService) History(ctx context.Context, userID, interviewID uint) ([]dto.ConversationTurnDTO, error) {
	_, round, err := s.loadActive(interviewID, userID)
	if err != nil {
		return nil, err
	}
	turns, err := s.convRepo.FindByRound(round.ID)
	if err != nil {
		return nil, err
	}
	history := make([]dto.ConversationTurnDTO, 0, len(turns))
	for _, t := range turns {
		history = append(history, dto.ConversationTurnDTO{Role: t.Role, Content: t.Content, Timestamp: t.Timestamp})
	}
	return history, nil
}

// judgeTurn decides whether the candidate's latest turn sufficiently answers
// the current question. Gateway failure degrades to a length heuristic.
func (s *conversationService) judgeTurn(ctx context.Context, round *model.Round, questionText, content string) (string, bool) {
	doc, err := s.llm.ChatJSON(ctx, []Message{
		{Role: model.RoleSystem, Content: "You are an interviewer judging whether the candidate's latest reply sufficiently answers the current question. " +
			"If it does, acknowledge briefly. If not, ask one short follow-up question."},
		{Role: model.RoleUser, Content: fmt.Sprintf("Current question: %s\n\nCandidate's reply:\n%s\n\n"+
			`Respond with a strict JSON object: {"sufficient": bool, "reply": "your acknowledgment or follow-up"}`, questionText, content)},
	}, GenerationOptions{})
	if err != nil {
		log.Warn().Err(err).Uint("roundID", round.ID).Msg("Real-time judgment degraded to heuristic")
		if wordCount(content) >= 30 {
			return "Thank you, that covers it. When you're ready, ask for the next question.", true
		}
		return "Could you expand on that a little? A concrete example would help.", false
	}

	obj, _ := doc.(map[string]interface{})
	sufficient := false
	if v, ok := obj["sufficient"].(bool); ok {
		sufficient = v
	}
	reply := docString(obj, "reply")
	if reply == "" {
		if sufficient {
			reply = "Thank you, that covers it. When you're ready, ask for the next question."
		} else {
			reply = "Could you expand on that a little?"
		}
	}
	return reply, sufficient
}

func (s *conversationService) appendTurn(roundID uint, role, content string) error {
	order, err := s.convRepo.NextTurnOrder(roundID)
	if err != nil {
		return err
	}
	return s.convRepo.Append(&model.ConversationTurn{
		RoundID:   roundID,
		TurnOrder: order,
		Role:      role,
		Content:   content,
	})
}

func (s *conversationService) load(interviewID, userID uint) (*model.Interview, error) {
	interview, err := s.interviewRepo.FindByIDAndUser(interviewID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("interview %d not found", interviewID)
		}
		return nil, err
	}
	return interview, nil
}

func (s *conversationService) loadActive(interviewID, userID uint) (*model.Interview, *model.Round, error) {
	interview, err := s.load(interviewID, userID)
	if err != nil {
		return nil, nil, err
	}
	if interview.Status != model.StatusInProgress {
		return nil, nil, apperr.StateConflict("interview %d is %s, the conversation requires an in-progress interview", interviewID, interview.Status)
	}
	round := interview.CurrentRound()
	if round == nil {
		return nil, nil, apperr.NotFound("interview %d has no active round", interviewID)
	}
	return interview, round, nil
}
