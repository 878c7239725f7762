package service

import (
	"context"
	"errors"
)

// Message is one turn of a structured chat request sent to the model backend.
type Message struct {
	Role    string // model.RoleSystem, model.RoleUser or model.RoleAssistant
	Content string
}

// GenerationOptions tune a single model call.
type GenerationOptions struct {
	Temperature *float32
	MaxTokens   *int32
	JSONMode    bool
}

// ErrLLMUnavailable marks any gateway failure: network error, timeout, missing
// API key, or unusable content. Callers resolve it via their documented
// fallback and never surface it to the interview flow.
var ErrLLMUnavailable = errors.New("llm backend unavailable")

// LLMService is the only boundary that talks to the external language model.
type LLMService interface {
	// Chat returns the raw text of the model's reply.
	Chat(ctx context.Context, messages []Message, opts GenerationOptions) (string, error)
	// ChatJSON requests JSON-mode output and returns the parsed document
	// (map[string]interface{} or []interface{}). Every field access on the
	// result must be treated as optional.
	ChatJSON(ctx context.Context, messages []Message, opts GenerationOptions) (interface{}, error)
	// ChatStream delivers the reply as an ordered sequence of text chunks.
	// Cancelling ctx stops consumption of the upstream stream. The error
	// channel receives at most one value and both channels close when done.
	ChatStream(ctx context.Context, messages []Message, opts GenerationOptions) (<-chan string, <-chan error)
}
