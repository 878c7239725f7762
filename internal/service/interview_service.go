package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Mockingbird/internal/apperr"
	"github.com/lshigami/Mockingbird/internal/dto"
	"github.com/lshigami/Mockingbird/internal/model"
	"github.com/lshigami/Mockingbird/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InterviewService owns the interview lifecycle state machine:
// pending -> in-progress -> completed, with abandoned reachable from the two
// non-terminal states. All operations are scoped by (interviewID, userID).
type InterviewService interface {
	Create(ctx context.Context, userID uint, req dto.CreateInterviewRequest) (*dto.InterviewResponse, error)
	Get(ctx context.Context, userID, interviewID uint) (*dto.InterviewResponse, error)
	List(ctx context.Context, userID uint) ([]dto.InterviewResponse, error)
	Start(ctx context.Context, userID, interviewID uint) (*dto.StartInterviewResponse, error)
	SubmitAnswer(ctx context.Context, userID, interviewID uint, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error)
	SkipQuestion(ctx context.Context, userID, interviewID uint, req dto.SkipQuestionRequest) (*dto.SkipQuestionResponse, error)
	GetHint(ctx context.Context, userID, interviewID uint, questionKey string, hintIndex int) (*dto.HintResponse, error)
	Complete(ctx context.Context, userID, interviewID uint) (*dto.ResultsResponse, error)
	GetResults(ctx context.Context, userID, interviewID uint) (*dto.ResultsResponse, error)
	Abandon(ctx context.Context, userID, interviewID uint) error
}

type interviewService struct {
	interviewRepo repository.InterviewRepository
	roundRepo     repository.RoundRepository
	answerRepo    repository.AnswerRepository
	questionSvc   QuestionService
	evaluationSvc EvaluationService
	resultsSvc    ResultsService
	db            *gorm.DB // transactions spanning round creation and status flips
}

func NewInterviewService(
	interviewRepo repository.InterviewRepository,
	roundRepo repository.RoundRepository,
	answerRepo repository.AnswerRepository,
	questionSvc QuestionService,
	evaluationSvc EvaluationService,
	resultsSvc ResultsService,
	db *gorm.DB,
) InterviewService {
	return &interviewService{
		interviewRepo: interviewRepo,
		roundRepo:     roundRepo,
		answerRepo:    answerRepo,
		questionSvc:   questionSvc,
		evaluationSvc: evaluationSvc,
		resultsSvc:    resultsSvc,
		db:            db,
	}
}

func (s *interviewService) Create(ctx context.Context, userID uint, req dto.CreateInterviewRequest) (*dto.InterviewResponse, error) {
	if !model.IsValidInterviewType(req.InterviewType) {
		return nil, apperr.Validation("invalid interview type %q", req.InterviewType)
	}
	if !model.IsValidDifficulty(req.Difficulty) {
		return nil, apperr.Validation("invalid difficulty %q", req.Difficulty)
	}

	interview := model.Interview{
		UserID:              userID,
		Domain:              req.Domain,
		SubDomain:           req.SubDomain,
		InterviewType:       req.InterviewType,
		Difficulty:          req.Difficulty,
		DurationMinutes:     req.DurationMinutes,
		TargetCompany:       req.TargetCompany,
		UsesCustomQuestions: req.UsesCustomQuestions,
		Status:              model.StatusPending,
	}
	if err := s.interviewRepo.Create(&interview); err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("Failed to create interview")
		return nil, err
	}

	log.Info().Uint("interviewID", interview.ID).Uint("userID", userID).
		Str("type", interview.InterviewType).Str("difficulty", interview.Difficulty).
		Msg("Interview created")
	return interviewToDTO(&interview), nil
}

func (s *interviewService) Get(ctx context.Context, userID, interviewID uint) (*dto.InterviewResponse, error) {
	interview, err := s.load(interviewID, userID)
	if err != nil {
		return nil, err
	}
	return interviewToDTO(interview), nil
}

func (s *interviewService) List(ctx context.Context, userID uint) ([]dto.InterviewResponse, error) {
	interviews, err := s.interviewRepo.FindAllByUser(userID)
	if err != nil {
		return nil, err
	}
	dtos := make([]dto.InterviewResponse, 0, len(interviews))
	for i := range interviews {
		dtos = append(dtos, *interviewToDTO(&interviews[i]))
	}
	return dtos, nil
}

// Start is one-shot: pending -> in-progress. It resolves "mixed" to a concrete
// type, generates the round and flips status in one transaction.
func (s *interviewService) Start(ctx context.Context, userID, interviewID uint) (*dto.StartInterviewResponse, error) {
	interview, err := s.load(interviewID, userID)
	if err != nil {
		return nil, err
	}
	if interview.Status != model.StatusPending {
		return nil, apperr.StateConflict("interview %d is %s, only pending interviews can be started", interviewID, interview.Status)
	}

	concreteType := ResolveConcreteType(interview.InterviewType)
	questions := s.questionSvc.GenerateQuestions(ctx, interview, concreteType)

	round := model.Round{
		InterviewID: interview.ID,
		RoundNumber: len(interview.Rounds) + 1,
		RoundType:   concreteType,
		Questions:   questions,
	}
	if err := s.attachRound(&round, interview.ID, userID); err != nil {
		log.Error().Err(err).Uint("interviewID", interviewID).Msg("Failed to start interview")
		return nil, err
	}

	log.Info().Uint("interviewID", interviewID).Str("roundType", concreteType).
		Int("questions", len(round.Questions)).Bool("fallback", len(questions) > 0 && questions[0].IsFallback).
		Msg("Interview started")

	return &dto.StartInterviewResponse{
		InterviewID:          interview.ID,
		Status:               model.StatusInProgress,
		FirstQuestion:        questionToDTO(&round.Questions[0]),
		TotalQuestions:       len(round.Questions),
		TimeRemainingSeconds: interview.DurationMinutes * 60,
	}, nil
}

// attachRound persists the round and flips status to in-progress in one
// transaction. The conditional update is the race guard: when two starts race,
// the loser matches zero rows and its round creation is rolled back.
func (s *interviewService) attachRound(round *model.Round, interviewID, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.roundRepo.WithTx(tx).Create(round); err != nil {
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

func (s *interviewService) SubmitAnswer(ctx context.Context, userID, interviewID uint, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error) {
	if req.TimeTakenSeconds < 0 || req.TimeTakenSeconds > 3600 {
		return nil, apperr.Validation("time_taken_seconds must be between 0 and 3600")
	}

	interview, round, question, err := s.loadForAnswer(interviewID, userID, req.QuestionKey)
	if err != nil {
		return nil, err
	}

	domainContext := interview.Domain
	if interview.SubDomain != "" {
		domainContext += "/" + interview.SubDomain
	}
	evaluation := s.evaluationSvc.EvaluateAnswer(ctx, question, req.AnswerText, domainContext)

	answer := model.Answer{
		RoundID:          round.ID,
		QuestionKey:      question.QuestionKey,
		AnswerText:       req.AnswerText,
		TimeTakenSeconds: req.TimeTakenSeconds,
		HintsUsed:        req.HintsUsed,
		Evaluation:       evaluation,
	}
	if err := s.appendAnswer(round, &answer); err != nil {
		return nil, err
	}

	performance := derivePerformance(round.Questions, round.Answers)
	if err := s.interviewRepo.UpdateFields(interview.ID, map[string]interface{}{"performance": performance}); err != nil {
		log.Error().Err(err).Uint("interviewID", interviewID).Msg("Failed to persist recomputed performance")
	}

	next := round.NextUnanswered()
	resp := &dto.SubmitAnswerResponse{
		Evaluation:   evaluation,
		IsComplete:   len(round.Answers) >= len(round.Questions),
		Progress:     progressOf(round),
		CurrentScore: performance.OverallScore,
	}
	if next != nil {
		q := questionToDTO(next)
		resp.NextQuestion = &q
	}
	return resp, nil
}

func (s *interviewService) SkipQuestion(ctx context.Context, userID, interviewID uint, req dto.SkipQuestionRequest) (*dto.SkipQuestionResponse, error) {
	interview, round, question, err := s.loadForAnswer(interviewID, userID, req.QuestionKey)
	if err != nil {
		return nil, err
	}
	if !question.Skippable {
		return nil, apperr.Validation("question %s is not skippable", question.QuestionKey)
	}

	answer := model.Answer{
		RoundID:     round.ID,
		QuestionKey: question.QuestionKey,
		Skipped:     true,
	}
	if err := s.appendAnswer(round, &answer); err != nil {
		return nil, err
	}

	performance := derivePerformance(round.Questions, round.Answers)
	if err := s.interviewRepo.UpdateFields(interview.ID, map[string]interface{}{"performance": performance}); err != nil {
		log.Error().Err(err).Uint("interviewID", interviewID).Msg("Failed to persist recomputed performance")
	}

	next := round.NextUnanswered()
	resp := &dto.SkipQuestionResponse{
		IsComplete: len(round.Answers) >= len(round.Questions),
		Progress:   progressOf(round),
	}
	if next != nil {
		q := questionToDTO(next)
		resp.NextQuestion = &q
	}
	return resp, nil
}

func (s *interviewService) GetHint(ctx context.Context, userID, interviewID uint, questionKey string, hintIndex int) (*dto.HintResponse, error) {
	interview, err := s.load(interviewID, userID)
	if err != nil {
		return nil, err
	}
	if interview.Status != model.StatusInProgress {
		return nil, apperr.StateConflict("interview %d is %s, hints are only available while in-progress", interviewID, interview.Status)
	}
	round := interview.CurrentRound()
	if round == nil {
		return nil, apperr.NotFound("interview %d has no active round", interviewID)
	}
	question := round.QuestionByKey(questionKey)
	if question == nil {
		return nil, apperr.NotFound("question %s is not part of this round", questionKey)
	}
	if hintIndex < 0 || hintIndex >= len(question.Hints) {
		return nil, apperr.Validation("hint index %d out of range, question has %d hints", hintIndex, len(question.Hints))
	}

	return &dto.HintResponse{
		Hint:           question.Hints[hintIndex],
		HintsRemaining: len(question.Hints) - hintIndex - 1,
	}, nil
}

// Complete is one-shot and idempotent: a completed interview returns its
// persisted Results without recomputation.
func (s *interviewService) Complete(ctx context.Context, userID, interviewID uint) (*dto.ResultsResponse, error) {
	interview, err := s.load(interviewID, userID)
	if err != nil {
		return nil, err
	}
	if interview.Status == model.StatusCompleted && interview.Results != nil {
		return &dto.ResultsResponse{InterviewID: interview.ID, Results: interview.Results}, nil
	}
	if interview.Status != model.StatusInProgress {
		return nil, apperr.StateConflict("interview %d is %s and cannot be completed", interviewID, interview.Status)
	}

	now := time.Now()
	interview.EndTime = &now
	if interview.StartTime != nil {
		interview.TotalDurationSeconds = int(now.Sub(*interview.StartTime).Seconds())
	}

	results, err := s.resultsSvc.GenerateResults(ctx, interview)
	if err != nil {
		// The interview must still reach completed: fall back to a minimal
		// skeleton so certificate issuance and history are never blocked.
		log.Error().Err(err).Uint("interviewID", interviewID).Msg("Results aggregation failed, persisting degraded skeleton")
		results = degradedResults(interview)
	}

	if err := s.interviewRepo.UpdateFields(interview.ID, map[string]interface{}{
		"status":                 model.StatusCompleted,
		"end_time":               now,
		"total_duration_seconds": interview.TotalDurationSeconds,
		"results":                results,
	}); err != nil {
		log.Error().Err(err).Uint("interviewID", interviewID).Msg("Failed to persist completion")
		return nil, err
	}

	log.Info().Uint("interviewID", interviewID).Int("score", results.Summary.OverallScore).
		Str("grade", results.Summary.Grade).Msg("Interview completed")
	return &dto.ResultsResponse{InterviewID: interview.ID, Results: results}, nil
}

// GetResults returns persisted Results, generating them on demand if the
// interview completed without them.
func (s *interviewService) GetResults(ctx context.Context, userID, interviewID uint) (*dto.ResultsResponse, error) {
	interview, err := s.load(interviewID, userID)
	if err != nil {
		return nil, err
	}
	if interview.Status != model.StatusCompleted {
		return nil, apperr.StateConflict("interview %d is %s, results exist only after completion", interviewID, interview.Status)
	}
	if interview.Results != nil {
		return &dto.ResultsResponse{InterviewID: interview.ID, Results: interview.Results}, nil
	}

	results, err := s.resultsSvc.GenerateResults(ctx, interview)
	if err != nil {
		results = degradedResults(interview)
	}
	if err := s.interviewRepo.UpdateFields(interview.ID, map[string]interface{}{"results": results}); err != nil {
		log.Error().Err(err).Uint("interviewID", interviewID).Msg("Failed to persist on-demand results")
	}
	return &dto.ResultsResponse{InterviewID: interview.ID, Results: results}, nil
}

func (s *interviewService) Abandon(ctx context.Context, userID, interviewID uint) error {
	interview, err := s.load(interviewID, userID)
	if err != nil {
		return err
	}
	switch interview.Status {
	case model.StatusAbandoned:
		return nil
	case model.StatusCompleted:
		return apperr.StateConflict("interview %d is already completed", interviewID)
	}
	return s.interviewRepo.UpdateFields(interview.ID, map[string]interface{}{"status": model.StatusAbandoned})
}

// --- helpers ---

func (s *interviewService) load(interviewID, userID uint) (*model.Interview, error) {
	interview, err := s.interviewRepo.FindByIDAndUser(interviewID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("interview %d not found", interviewID)
		}
		return nil, err
	}
	return interview, nil
}

// loadForAnswer performs the structural checks shared by submit and skip.
// None of them mutate state.
func (s *interviewService) loadForAnswer(interviewID, userID uint, questionKey string) (*model.Interview, *model.Round, *model.Question, error) {
	interview, err := s.load(interviewID, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	if interview.Status != model.StatusInProgress {
		return nil, nil, nil, apperr.StateConflict("interview %d is %s, answers are only accepted while in-progress", interviewID, interview.Status)
	}
	round := interview.CurrentRound()
	if round == nil {
		return nil, nil, nil, apperr.NotFound("interview %d has no active round", interviewID)
	}
	question := round.QuestionByKey(questionKey)
	if question == nil {
		return nil, nil, nil, apperr.NotFound("question %s is not part of this round", questionKey)
	}
	if round.AnswerFor(questionKey) != nil {
		return nil, nil, nil, apperr.StateConflict("question %s has already been answered", questionKey)
	}
	return interview, round, question, nil
}

// appendAnswer persists the answer, relying on the unique index to reject a
// concurrent duplicate, and mirrors it into the in-memory round.
func (s *interviewService) appendAnswer(round *model.Round, answer *model.Answer) error {
	if err := s.answerRepo.Insert(answer); err != nil {
		if errors.Is(err, repository.ErrDuplicateAnswer) {
			return apperr.StateConflict("question %s has already been answered", answer.QuestionKey)
		}
		return err
	}
	round.Answers = append(round.Answers, *answer)
	return nil
}

// derivePerformance recomputes Performance from scratch over the round's
// answers. It is a pure function of its inputs: averages of overall score,
// clarity and completeness over non-skipped answers become the technical,
// communication and problem-solving categories; confidence is the mean of
// technical and communication.
func derivePerformance(questions []model.Question, answers []model.Answer) *model.Performance {
	var scored, skipped, hints, scoreSum, claritySum, completenessSum int
	for _, a := range answers {
		hints += a.HintsUsed
		if a.Skipped {
			skipped++
			continue
		}
		scored++
		if a.Evaluation != nil {
			scoreSum += a.Evaluation.OverallScore
			claritySum += a.Evaluation.CategoryScores.Clarity
			completenessSum += a.Evaluation.CategoryScores.Completeness
		}
	}

	perf := &model.Performance{
		TotalQuestions:    len(questions),
		QuestionsAnswered: scored,
		QuestionsSkipped:  skipped,
		HintsUsed:         hints,
	}
	if scored == 0 {
		perf.Percentile = PercentileFor(0)
		return perf
	}

	technical := int(math.Round(float64(scoreSum) / float64(scored)))
	communication := int(math.Round(float64(claritySum) / float64(scored)))
	problemSolving := int(math.Round(float64(completenessSum) / float64(scored)))

	perf.OverallScore = technical
	perf.CategoryScores = model.PerformanceScores{
		Technical:      technical,
		Communication:  communication,
		ProblemSolving: problemSolving,
		Confidence:     int(math.Round(float64(technical+communication) / 2)),
	}
	perf.Percentile = PercentileFor(technical)
	return perf
}

// degradedResults is the minimal skeleton persisted when aggregation itself
// fails: zeroed summary, empty narrative, certificate still synthesized.
func degradedResults(interview *model.Interview) *model.Results {
	return &model.Results{
		Summary: model.ResultsSummary{Grade: GradeFor(0), Percentile: PercentileFor(0)},
		DetailedFeedback: model.DetailedFeedback{
			Strengths:        []string{},
			Weaknesses:       []string{},
			CategoryAnalyses: map[string]string{},
			Fallback:         true,
		},
		ImprovementPlan:  []string{},
		QuestionAnalysis: []model.QuestionAnalysis{},
		Timeline: model.Timeline{
			StartedAt:            interview.StartTime,
			CompletedAt:          interview.EndTime,
			TotalDurationSeconds: interview.TotalDurationSeconds,
		},
		CertificateData: NewCertificate(interview.ID),
		GeneratedAt:     time.Now(),
		Degraded:        true,
	}
}

func progressOf(round *model.Round) dto.Progress {
	var answered, skipped int
	for _, a := range round.Answers {
		if a.Skipped {
			skipped++
		} else {
			answered++
		}
	}
	return dto.Progress{
		TotalQuestions:    len(round.Questions),
		QuestionsAnswered: answered,
		QuestionsSkipped:  skipped,
		Remaining:         len(round.Questions) - len(round.Answers),
	}
}

func questionToDTO(q *model.Question) dto.QuestionDTO {
	var out dto.QuestionDTO
	copier.Copy(&out, q)
	return out
}

func interviewToDTO(interview *model.Interview) *dto.InterviewResponse {
	var out dto.InterviewResponse
	copier.Copy(&out, interview)
	return &out
}
