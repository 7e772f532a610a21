// Package agents runs the reasoning agents that interpret requests, review
// datasets, and recommend training configurations.
package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bledden/tinker-voice/internal/llm"
	"github.com/bledden/tinker-voice/internal/metrics"
	"github.com/bledden/tinker-voice/pkg/extract"
)

// Kind selects an agent and its system prompt.
type Kind string

// Agent kinds.
const (
	KindIntent     Kind = "intent"
	KindValidation Kind = "validation"
	KindConfig     Kind = "config"
	KindGeneral    Kind = "general"
)

// ParseKind maps a name to a Kind. Unknown or empty names select
// KindGeneral.
func ParseKind(name string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case KindIntent, KindValidation, KindConfig:
		return k
	default:
		return KindGeneral
	}
}

// SystemPrompt returns the embedded system prompt for k.
func (k Kind) SystemPrompt() string {
	switch k {
	case KindIntent:
		return intentSystemPrompt
	case KindValidation:
		return validationSystemPrompt
	case KindConfig:
		return configSystemPrompt
	default:
		return generalSystemPrompt
	}
}

// Intent values returned by the intent agent.
const (
	IntentGenerateData  = "generate_data"
	IntentStartTraining = "start_training"
	IntentCheckStatus   = "check_status"
	IntentConfigure     = "configure"
	IntentResearch      = "research"
	IntentHelp          = "help"
	IntentUnknown       = "unknown"
)

// ParsedIntent is the structured reading of a user request.
type ParsedIntent struct {
	Intent              string         `json:"intent"`
	Entities            map[string]any `json:"entities"`
	Confidence          float64        `json:"confidence"`
	ClarificationNeeded string         `json:"clarification_needed,omitempty"`
}

// ValidationIssue is one problem found in a dataset.
type ValidationIssue struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// ValidationResult is the validation agent's dataset review.
type ValidationResult struct {
	Valid           bool              `json:"valid"`
	Issues          []ValidationIssue `json:"issues"`
	Stats           map[string]any    `json:"stats"`
	Recommendations []string          `json:"recommendations"`
}

// ConfigRecommendation is the config agent's suggested training setup.
type ConfigRecommendation struct {
	RecommendedConfig map[string]any `json:"recommended_config"`
	Reasoning         string         `json:"reasoning"`
	Alternatives      []any          `json:"alternatives"`
	Warnings          []string       `json:"warnings"`
}

// ChatResponse is a free-text agent reply.
type ChatResponse struct {
	Message     string `json:"message"`
	ShouldSpeak bool   `json:"should_speak"`
}

// Decoding schemas for the structured agents.
var (
	IntentSchema = extract.Schema{
		Name: "intent",
		Fields: []extract.Field{
			{Name: "intent", Kind: extract.KindString, Required: true},
			{Name: "entities", Kind: extract.KindObject, Default: map[string]any{}},
			{Name: "confidence", Kind: extract.KindNumber, Required: true},
			{Name: "clarification_needed", Kind: extract.KindString},
		},
	}

	ValidationSchema = extract.Schema{
		Name: "validation report",
		Fields: []extract.Field{
			{Name: "valid", Kind: extract.KindBool, Required: true},
			{Name: "issues", Kind: extract.KindArray, Default: []any{}},
			{Name: "stats", Kind: extract.KindObject, Default: map[string]any{}},
			{Name: "recommendations", Kind: extract.KindArray, Default: []any{}},
		},
	}

	ConfigSchema = extract.Schema{
		Name: "config recommendation",
		Fields: []extract.Field{
			{Name: "recommended_config", Kind: extract.KindObject, Required: true},
			{Name: "reasoning", Kind: extract.KindString, Required: true},
			{Name: "alternatives", Kind: extract.KindArray, Default: []any{}},
			{Name: "warnings", Kind: extract.KindArray, Default: []any{}},
		},
	}
)

// Runner sends agent prompts to an LLM backend.
type Runner struct {
	backend     llm.Backend
	temperature float64
	maxTokens   int
	log         *slog.Logger
	nowFunc     func() time.Time
}

// Option configures the Runner.
type Option func(*Runner)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(r *Runner) {
		r.temperature = t
	}
}

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int) Option {
	return func(r *Runner) {
		r.maxTokens = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(r *Runner) {
		r.nowFunc = f
	}
}

// NewRunner creates a Runner. Defaults favor consistent structured output.
func NewRunner(backend llm.Backend, opts ...Option) *Runner {
	r := &Runner{
		backend:     backend,
		temperature: 0.3,
		maxTokens:   4096,
		log:         slog.Default(),
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend returns the backend prompts are sent to.
func (r *Runner) Backend() llm.Backend {
	return r.backend
}

// ParseIntent classifies a transcript or typed request.
func (r *Runner) ParseIntent(ctx context.Context, input string) (ParsedIntent, error) {
	return structured[ParsedIntent](ctx, r, KindIntent, input, IntentSchema)
}

// ValidateData reviews serialized dataset samples.
func (r *Runner) ValidateData(ctx context.Context, samples string) (ValidationResult, error) {
	prompt, err := RenderValidatePrompt(samples)
	if err != nil {
		return ValidationResult{}, err
	}
	return structured[ValidationResult](ctx, r, KindValidation, prompt, ValidationSchema)
}

// RecommendConfig suggests a training configuration. datasetInfo may be
// empty.
func (r *Runner) RecommendConfig(
	ctx context.Context,
	requirements, datasetInfo string,
) (ConfigRecommendation, error) {
	prompt, err := RenderConfigPrompt(requirements, datasetInfo)
	if err != nil {
		return ConfigRecommendation{}, err
	}
	return structured[ConfigRecommendation](ctx, r, KindConfig, prompt, ConfigSchema)
}

// Chat sends a conversation to the agent of kind k and returns its reply
// unparsed.
func (r *Runner) Chat(ctx context.Context, k Kind, messages []llm.Message) (ChatResponse, error) {
	if len(messages) == 0 {
		return ChatResponse{}, fmt.Errorf("chat with %s agent: no messages", k)
	}
	content, err := r.run(ctx, k, llm.GenerateRequest{Messages: messages})
	if err != nil {
		return ChatResponse{}, err
	}
	r.finish(k, "ok")
	return ChatResponse{Message: content, ShouldSpeak: true}, nil
}

func structured[T any](
	ctx context.Context,
	r *Runner,
	k Kind,
	prompt string,
	s extract.Schema,
) (T, error) {
	var zero T
	content, err := r.run(ctx, k, llm.GenerateRequest{Prompt: prompt})
	if err != nil {
		return zero, err
	}

	out, err := extract.ExtractAndDecode[T](content, s)
	if err != nil {
		r.finish(k, "invalid_output")
		r.log.Warn("agent returned unusable output", "agent", k, "error", err)
		return zero, fmt.Errorf("%s agent: %w", k, err)
	}
	r.finish(k, "ok")
	return out, nil
}

// run sends req with k's system prompt and records the call duration.
// Transport failures are counted here; the caller records other outcomes.
func (r *Runner) run(ctx context.Context, k Kind, req llm.GenerateRequest) (string, error) {
	req.SystemMsg = k.SystemPrompt()
	req.Temperature = r.temperature
	req.MaxTokens = r.maxTokens

	start := r.nowFunc()
	resp, err := r.backend.Generate(ctx, req)
	metrics.AgentDuration.WithLabelValues(string(k)).Observe(r.nowFunc().Sub(start).Seconds())
	if err != nil {
		r.finish(k, "error")
		return "", fmt.Errorf("%s agent: %w", k, err)
	}

	r.log.Debug("agent call",
		"agent", k,
		"backend", r.backend.Name(),
		"model", resp.Model,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Content, nil
}

func (*Runner) finish(k Kind, outcome string) {
	metrics.AgentCallsTotal.WithLabelValues(string(k), outcome).Inc()
}
