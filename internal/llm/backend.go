// Package llm provides text generation backends behind a common interface.
package llm

import (
	"context"
	"errors"

	"github.com/bledden/tinker-voice/internal/metrics"
)

// FormatJSON is the format string for requesting JSON mode from backends
// that support it.
const FormatJSON = "json"

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("empty response")

// Role constants for Message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest defines the input for a generation call. When Messages is
// empty, Prompt is sent as a single user turn.
type GenerateRequest struct {
	Prompt      string
	Messages    []Message
	SystemMsg   string
	Format      string // FormatJSON for JSON mode
	Temperature float64
	MaxTokens   int
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerateResponse holds the result of a generation call.
type GenerateResponse struct {
	Content string
	Model   string
	Usage   TokenUsage
}

// Backend generates text.
type Backend interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}

// conversation returns the turns to send for req.
func (req GenerateRequest) conversation() []Message {
	if len(req.Messages) > 0 {
		return req.Messages
	}
	return []Message{{Role: RoleUser, Content: req.Prompt}}
}

func recordUsage(backend string, u TokenUsage) {
	metrics.LLMTokensTotal.WithLabelValues(backend, "input").Add(float64(u.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(backend, "output").Add(float64(u.CompletionTokens))
}
