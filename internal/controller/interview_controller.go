package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Mockingbird/internal/apperr"
	"github.com/lshigami/Mockingbird/internal/dto"
	"github.com/lshigami/Mockingbird/internal/service"
	"github.com/rs/zerolog/log"
)

type InterviewController struct {
	interviewSvc service.InterviewService
}

func NewInterviewController(interviewSvc service.InterviewService) *InterviewController {
	return &InterviewController{interviewSvc: interviewSvc}
}

// userID extracts the authenticated user from the X-User-ID header. The
// gateway in front of this service performs authentication; this layer only
// trusts and scopes by the passed identity.
func userID(ctx *gin.Context) (uint, bool) {
	raw := ctx.GetHeader("X-User-ID")
	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || val == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Missing or invalid X-User-ID header"})
		return 0, false
	}
	return uint(val), true
}

func interviewID(ctx *gin.Context) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param("interview_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid interview ID format"})
		return 0, false
	}
	return uint(val), true
}

// respondError maps the service error taxonomy onto HTTP status codes.
func respondError(ctx *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	case apperr.KindNotFound:
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
	case apperr.KindStateConflict:
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Str("path", ctx.FullPath()).Msg("Unhandled service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
	}
}

// CreateInterview godoc
// @Summary Create a new interview
// @Description Create an interview in pending state from an immutable configuration.
// @Tags Interviews
// @Accept json
// @Produce json
// @Param X-User-ID header int true "Authenticated user ID"
// @Param config body dto.CreateInterviewRequest true "Interview configuration"
// @Success 201 {object} dto.InterviewResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /interviews [post]
func (c *InterviewController) CreateInterview(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	var req dto.CreateInterviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.interviewSvc.Create(ctx.Request.Context(), uid, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListInterviews godoc
// @Summary List the caller's interviews
// @Tags Interviews
// @Produce json
// @Param X-User-ID header int true "Authenticated user ID"
// @Success 200 {array} dto.InterviewResponse
// @Router /interviews [get]
func (c *InterviewController) ListInterviews(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	resp, err := c.interviewSvc.List(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetInterview godoc
// @Summary Get one interview
// @Tags Interviews
// @Produce json
// @Param X-User-ID header int true "Authenticated user ID"
// @Param interview_id path int true "Interview ID"
// @Success 200 {object} dto.InterviewResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /interviews/{interview_id} [get]
func (c *InterviewController) GetInterview(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	id, ok := interviewID(ctx)
	if !ok {
		return
	}
	resp, err := c.interviewSvc.Get(ctx.Request.Context(), uid, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// StartInterview godoc
// @Summary Start a pending interview
// @Description Generates the question round and transitions the interview to in-progress. One-shot.
// @Tags Interviews
// @Produce json
// @Param X-User-ID header int true "Authenticated user ID"
// @Param interview_id path int true "Interview ID"
// @Success 200 {object} dto.StartInterviewResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Interview is not pending"
// @Router /interviews/{interview_id}/start [post]
func (c *InterviewController) StartInterview(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	id, ok := interviewID(ctx)
	if !ok {
		return
	}
	resp, err := c.interviewSvc.Start(ctx.Request.Context(), uid, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitAnswer godoc
// @Summary Submit an answer for evaluation
// @Description Evaluates the answer (degrading to a heuristic score if AI is unavailable), appends it to the round and recomputes performance.
// @Tags Interviews
// @Accept json
// @Produce json
// @Param X-User-ID header int true "Authenticated user ID"
// @Param interview_id path int true "Interview ID"
// @Param answer body dto.SubmitAnswerRequest true "Answer payload"
// @Success 200 {object} dto.SubmitAnswerResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Question already answered"
// @Router /interviews/{interview_id}/answers [post]
func (c *InterviewController) SubmitAnswer(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	id, ok := interviewID(ctx)
	if !ok {
		return
	}
	var req dto.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.interviewSvc.SubmitAnswer(ctx.Request.Context(), uid, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SkipQuestion godoc
// @Summary Skip a question
// @Tags Interviews
// @Accept json
// @Produce json
// @Param X-User-ID header int true "Authenticated user ID"
// @Param interview_id path int true "Interview ID"
// @Param skip body dto.SkipQuestionRequest true "Question to skip"
// @Success 200 {object} dto.SkipQuestionResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /interviews/{interview_id}/skip [post]
func (c *InterviewController) SkipQuestion(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	id, ok := interviewID(ctx)
	if !ok {
		return
	}
	var req dto.SkipQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.interviewSvc.SkipQuestion(ctx.Request.Context(), uid, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetHint godoc
// @Summary Get a hint for a question
// @Tags Interviews
// @Produce json
// @Param X-User-ID header int true "Authenticated user ID"
// @Param interview_id path int true "Interview ID"
// @Param question_key path string true "Question key"
// @Param hint_index path int true "Hint index (0-based)"
// @Success 200 {object} dto.HintResponse
// @Failure 400 {object} dto.ErrorResponse "Hint index out of range"
// @Router /interviews/{interview_id}/questions/{question_key}/hints/{hint_index} [get]
func (c *InterviewController) GetHint(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	id, ok := interviewID(ctx)
	if !ok {
		return
	}
	hintIndex, err := strconv.Atoi(ctx.Param("hint_index"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid hint index format"})
		return
	}
	resp, err := c.interviewSvc.GetHint(ctx.Request.Context(), uid, id, ctx.Param("question_key"), hintIndex)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CompleteInterview godoc
// @Summary Complete an interview and generate results
// @Description One-shot transition to completed; repeat calls return the cached results unchanged.
// @Tags Interviews
// @Produce json
// @Param X-User-ID header int true "Authenticated user ID"
// @Param interview_id path int true "Interview ID"
// @Success 200 {object} dto.ResultsResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /interviews/{interview_id}/complete [post]
func (c *InterviewController) CompleteInterview(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	id, ok := interviewID(ctx)
	if !ok {
		return
	}
	resp, err := c.interviewSvc.Complete(ctx.Request.Context(), uid, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetResults godoc
// @Summary Get the final results of a completed interview
// @Tags Interviews
// @Produce json
// @Param X-User-ID header int true "Authenticated user ID"
// @Param interview_id path int true "Interview ID"
// @Success 200 {object} dto.ResultsResponse
// @Failure 409 {object} dto.ErrorResponse "Interview not completed yet"
// @Router /interviews/{interview_id}/results [get]
func (c *InterviewController) GetResults(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	id, ok := interviewID(ctx)
	if !ok {
		return
	}
	resp, err := c.interviewSvc.GetResults(ctx.Request.Context(), uid, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// AbandonInterview godoc
// @Summary Abandon an interview
// @Tags Interviews
// @Produce json
// @Param X-User-ID header int true "Authenticated user ID"
// @Param interview_id path int true "Interview ID"
// @Success 204 "Abandoned"
// @Failure 409 {object} dto.ErrorResponse "Interview already completed"
// @Router /interviews/{interview_id}/abandon [post]
func (c *InterviewController) AbandonInterview(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	id, ok := interviewID(ctx)
	if !ok {
		return
	}
	if err := c.interviewSvc.Abandon(ctx.Request.Context(), uid, id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
