package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bledden/tinker-voice/internal/remote"
	"github.com/bledden/tinker-voice/pkg/extract"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

const (
	// DefaultAnthropicURL is the Anthropic API base URL.
	DefaultAnthropicURL     = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-sonnet-4-20250514"
	defaultAnthropicVersion = "2023-06-01"
	defaultMaxTokens        = 4096
)

// AnthropicBackend implements Backend using the Anthropic Messages API.
type AnthropicBackend struct {
	model         string
	baseURL       string
	apiVersion    string
	clientOptions []remote.Option
	client        *remote.Client
}

// AnthropicOption configures the AnthropicBackend.
type AnthropicOption func(*AnthropicBackend)

// WithAnthropicBaseURL overrides the API base URL.
func WithAnthropicBaseURL(u string) AnthropicOption {
	return func(b *AnthropicBackend) {
		if u != "" {
			b.baseURL = u
		}
	}
}

// WithAnthropicModel overrides the default model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(b *AnthropicBackend) {
		if model != "" {
			b.model = model
		}
	}
}

// WithAnthropicClientOptions passes options to the underlying remote client.
func WithAnthropicClientOptions(opts ...remote.Option) AnthropicOption {
	return func(b *AnthropicBackend) {
		b.clientOptions = append(b.clientOptions, opts...)
	}
}

// NewAnthropicBackend creates a Claude backend authenticated by cred.
func NewAnthropicBackend(cred *remote.Credential, opts ...AnthropicOption) *AnthropicBackend {
	b := &AnthropicBackend{
		model:      defaultAnthropicModel,
		baseURL:    DefaultAnthropicURL,
		apiVersion: defaultAnthropicVersion,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.client = remote.New(remote.Integration{
		Service: domain.ServiceAnthropic,
		BaseURL: b.baseURL,
		Auth:    remote.HeaderAuth{Name: "x-api-key"},
		Headers: map[string]string{"anthropic-version": b.apiVersion},
	}, cred, b.clientOptions...)
	return b
}

// Name returns the backend name.
func (*AnthropicBackend) Name() string {
	return "anthropic"
}

// Model returns the model requests are sent to.
func (b *AnthropicBackend) Model() string {
	return b.model
}

// Client returns the underlying remote client.
func (b *AnthropicBackend) Client() *remote.Client {
	return b.client
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Model   string             `json:"model"`
	Usage   anthropicUsage     `json:"usage"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

var anthropicResponseSchema = extract.Schema{
	Name: "anthropic message",
	Fields: []extract.Field{
		{Name: "content", Kind: extract.KindArray, Required: true},
		{Name: "model", Kind: extract.KindString, Default: ""},
		{Name: "usage", Kind: extract.KindObject, Default: map[string]any{}},
	},
}

// Generate calls the Messages API and joins the returned text blocks.
func (b *AnthropicBackend) Generate(
	ctx context.Context,
	req GenerateRequest,
) (GenerateResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := anthropicRequest{
		Model:     b.model,
		MaxTokens: maxTokens,
		System:    req.SystemMsg,
		Messages:  req.conversation(),
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	resp, err := remote.Call[anthropicResponse](ctx, b.client, remote.Request{
		Method: http.MethodPost,
		Path:   "/v1/messages",
		JSON:   body,
	}, anthropicResponseSchema)
	if err != nil {
		return GenerateResponse{}, err
	}

	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" || c.Type == "" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return GenerateResponse{}, &remote.Error{
			Service: domain.ServiceAnthropic,
			Kind:    remote.ErrInvalidResponse,
			Err:     ErrEmptyResponse,
		}
	}

	usage := TokenUsage{
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
		TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}
	recordUsage(b.Name(), usage)

	return GenerateResponse{
		Content: sb.String(),
		Model:   resp.Model,
		Usage:   usage,
	}, nil
}

// Ping verifies the credential with a minimal generation.
func (b *AnthropicBackend) Ping(ctx context.Context) error {
	if _, err := b.Generate(ctx, GenerateRequest{Prompt: "Hi", MaxTokens: 10}); err != nil {
		return fmt.Errorf("anthropic ping: %w", err)
	}
	return nil
}
