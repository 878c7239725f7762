package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lshigami/Mockingbird/config"
	"github.com/rs/zerolog/log"
)

// ErrTTSUnavailable marks any speech-synthesis failure. It is always
// non-fatal: the realtime layer degrades to text-only delivery.
var ErrTTSUnavailable = errors.New("tts backend unavailable")

// TTSService converts interviewer text to speech via an external service.
type TTSService interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type httpTTSService struct {
	baseURL string
	client  *http.Client
}

func NewTTSService(cfg *config.Config) TTSService {
	timeout := time.Duration(cfg.TTS.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.TTS.BaseURL == "" {
		log.Warn().Msg("TTS_BASE_URL is not set. Realtime voice will degrade to text-only.")
	}
	return &httpTTSService{
		baseURL: cfg.TTS.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *httpTTSService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.baseURL == "" {
		return nil, ErrTTSUnavailable
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("TTS request failed")
		return nil, fmt.Errorf("tts request: %v: %w", err, ErrTTSUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("TTS returned non-OK status")
		return nil, fmt.Errorf("tts status %d: %w", resp.StatusCode, ErrTTSUnavailable)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response: %v: %w", err, ErrTTSUnavailable)
	}
	return audio, nil
}
