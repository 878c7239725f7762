package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/Mockingbird/config"
	"github.com/lshigami/Mockingbird/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type geminiLLMService struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
}

// NewGeminiLLMService builds the Gemini-backed gateway. A missing API key
// leaves the client nil, which behaves as a permanent upstream failure so all
// components run on their fallbacks.
func NewGeminiLLMService(cfg *config.Config) (LLMService, error) {
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. LLM gateway will run in degraded mode.")
		return &geminiLLMService{client: nil, modelName: cfg.GeminiModel, timeout: timeout}, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &geminiLLMService{client: client, modelName: cfg.GeminiModel, timeout: timeout}, nil
}

// buildModel prepares a fresh GenerativeModel per call so per-request options
// never leak between concurrent callers.
func (s *geminiLLMService) buildModel(messages []Message, opts GenerationOptions) (*genai.GenerativeModel, []genai.Part) {
	m := s.client.GenerativeModel(s.modelName)

	if opts.Temperature != nil {
		m.SetTemperature(*opts.Temperature)
	}
	if opts.MaxTokens != nil {
		m.SetMaxOutputTokens(*opts.MaxTokens)
	}
	if opts.JSONMode {
		m.ResponseMIMEType = "application/json"
	}

	var systemParts []genai.Part
	var prompt strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			systemParts = append(systemParts, genai.Text(msg.Content))
		case model.RoleAssistant:
			prompt.WriteString("Interviewer: ")
			prompt.WriteString(msg.Content)
			prompt.WriteString("\n\n")
		default:
			prompt.WriteString(msg.Content)
			prompt.WriteString("\n\n")
		}
	}
	if len(systemParts) > 0 {
		m.SystemInstruction = &genai.Content{Parts: systemParts}
	}

	return m, []genai.Part{genai.Text(strings.TrimSpace(prompt.String()))}
}

func (s *geminiLLMService) Chat(ctx context.Context, messages []Message, opts GenerationOptions) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("gemini client not initialized: %w", ErrLLMUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	m, parts := s.buildModel(messages, opts)
	resp, err := m.GenerateContent(callCtx, parts...)
	if err != nil {
		log.Error().Err(err).Str("model", s.modelName).Msg("Gemini API call failed")
		return "", fmt.Errorf("gemini generate content: %v: %w", err, ErrLLMUnavailable)
	}

	text := extractText(resp)
	if text == "" {
		log.Warn().Msg("Gemini returned no text content")
		return "", fmt.Errorf("gemini returned empty response: %w", ErrLLMUnavailable)
	}
	return text, nil
}

func (s *geminiLLMService) ChatJSON(ctx context.Context, messages []Message, opts GenerationOptions) (interface{}, error) {
	opts.JSONMode = true
	raw, err := s.Chat(ctx, messages, opts)
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &doc); err != nil {
		log.Warn().Err(err).Str("raw", truncate(raw, 300)).Msg("Gemini returned non-JSON content in JSON mode")
		return nil, fmt.Errorf("gemini returned malformed JSON: %w", ErrLLMUnavailable)
	}
	return doc, nil
}

func (s *geminiLLMService) ChatStream(ctx context.Context, messages []Message, opts GenerationOptions) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errs := make(chan error, 1)

	if s.client == nil {
		close(chunks)
		errs <- fmt.Errorf("gemini client not initialized: %w", ErrLLMUnavailable)
		close(errs)
		return chunks, errs
	}

	m, parts := s.buildModel(messages, opts)
	iter := m.GenerateContentStream(ctx, parts...)

	go func() {
		defer close(chunks)
		defer close(errs)
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errs <- fmt.Errorf("gemini stream: %v: %w", err, ErrLLMUnavailable)
				return
			}
			text := extractText(resp)
			if text == "" {
				continue
			}
			select {
			case chunks <- text:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, errs
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// stripCodeFences removes a markdown fence the model sometimes wraps around
// JSON output even in JSON mode.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
