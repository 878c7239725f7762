package controller

import (
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lshigami/Mockingbird/internal/apperr"
	"github.com/lshigami/Mockingbird/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origins are vetted by the CORS layer in front of this handler.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsFrame is the envelope for every message exchanged on the live interview
// socket, in both directions.
type wsFrame struct {
	Type    string      `json:"type"`
	Content string      `json:"content,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

const (
	frameStart        = "start"
	frameMessage      = "message"
	frameNextQuestion = "next_question"
	frameAIResponse   = "ai_response"
	frameComplete     = "complete"
	frameError        = "error"
	frameAudio        = "audio"
	frameHistory      = "history"
)

// RealtimeController runs the conversational interview mode over a WebSocket.
// Each connection is self-contained: the session state lives in the database,
// so a dropped client can reconnect and replay the transcript.
type RealtimeController struct {
	conversationSvc service.ConversationService
	ttsSvc          service.TTSService
}

func NewRealtimeController(conversationSvc service.ConversationService, ttsSvc service.TTSService) *RealtimeController {
	return &RealtimeController{conversationSvc: conversationSvc, ttsSvc: ttsSvc}
}

// LiveInterview godoc
// @Summary Conversational interview over WebSocket
// @Description Upgrades to a WebSocket carrying JSON frames {type, content, payload}. Client sends start/message/next_question frames; server replies with ai_response, next_question, audio, complete and error frames.
// @Tags Realtime
// @Param X-User-ID header int true "Authenticated user ID"
// @Param interview_id path int true "Interview ID"
// @Success 101 "Switching Protocols"
// @Router /interviews/{interview_id}/live [get]
func (c *RealtimeController) LiveInterview(ctx *gin.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}
	id, ok := interviewID(ctx)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sess := &liveSession{
		conn:        conn,
		controller:  c,
		userID:      uid,
		interviewID: id,
	}
	sess.run(ctx)
}

// liveSession serves one WebSocket connection. The mutex serializes frame
// writes between the handler loop and the keepalive pinger.
type liveSession struct {
	conn        *websocket.Conn
	controller  *RealtimeController
	userID      uint
	interviewID uint
	writeMu     sync.Mutex
}

func (s *liveSession) run(ctx *gin.Context) {
	s.conn.SetReadLimit(64 * 1024)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(done)

	// Replaying the transcript lets a reconnecting client catch up before
	// sending its next frame.
	if history, err := s.controller.conversationSvc.History(ctx.Request.Context(), s.userID, s.interviewID); err == nil && len(history) > 0 {
		s.write(wsFrame{Type: frameHistory, Payload: history})
	}

	for {
		var frame wsFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Uint("interview_id", s.interviewID).Msg("WebSocket read error")
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch frame.Type {
		case frameStart:
			s.handleStart(ctx)
		case frameMessage:
			s.handleMessage(ctx, frame.Content)
		case frameNextQuestion:
			s.handleNextQuestion(ctx)
		default:
			s.writeError("Unknown frame type: " + frame.Type)
		}
	}
}

func (s *liveSession) handleStart(ctx *gin.Context) {
	resp, err := s.controller.conversationSvc.StartConversation(ctx.Request.Context(), s.userID, s.interviewID)
	if err != nil {
		s.writeServiceError(err)
		return
	}
	s.write(wsFrame{Type: frameStart, Payload: resp})
	s.speak(ctx, resp.Greeting+" "+resp.FirstQuestion.Text)
}

func (s *liveSession) handleMessage(ctx *gin.Context, content string) {
	if content == "" {
		s.writeError("Empty message")
		return
	}
	resp, err := s.controller.conversationSvc.GetRealTimeResponse(ctx.Request.Context(), s.userID, s.interviewID, content)
	if err != nil {
		s.writeServiceError(err)
		return
	}
	s.write(wsFrame{Type: frameAIResponse, Payload: resp})
	s.speak(ctx, resp.Reply)
	if resp.Completed {
		s.write(wsFrame{Type: frameComplete, Content: "All questions answered. Complete the interview to see your results."})
	}
}

func (s *liveSession) handleNextQuestion(ctx *gin.Context) {
	resp, err := s.controller.conversationSvc.AskNextQuestion(ctx.Request.Context(), s.userID, s.interviewID)
	if err != nil {
		s.writeServiceError(err)
		return
	}
	if resp.Completed {
		s.write(wsFrame{Type: frameComplete, Content: resp.Introduction})
		return
	}
	s.write(wsFrame{Type: frameNextQuestion, Payload: resp})
	if resp.Question != nil {
		s.speak(ctx, resp.Introduction+" "+resp.Question.Text)
	}
}

// speak synthesizes the interviewer's line and ships it as an audio frame.
// Voice is best effort; if the TTS backend is down the client still has the
// text and the session continues.
func (s *liveSession) speak(ctx *gin.Context, text string) {
	audio, err := s.controller.ttsSvc.Synthesize(ctx.Request.Context(), text)
	if err != nil {
		if !errors.Is(err, service.ErrTTSUnavailable) {
			log.Warn().Err(err).Msg("TTS synthesis failed")
		}
		return
	}
	s.write(wsFrame{Type: frameAudio, Content: base64.StdEncoding.EncodeToString(audio)})
}

func (s *liveSession) write(frame wsFrame) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(frame); err != nil {
		log.Warn().Err(err).Uint("interview_id", s.interviewID).Msg("WebSocket write failed")
	}
}

func (s *liveSession) writeError(message string) {
	s.write(wsFrame{Type: frameError, Content: message})
}

func (s *liveSession) writeServiceError(err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindStateConflict:
		s.writeError(err.Error())
	default:
		log.Error().Err(err).Uint("interview_id", s.interviewID).Msg("Unhandled service error on WebSocket")
		s.writeError("Internal server error")
	}
}

func (s *liveSession) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
