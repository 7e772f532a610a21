package llm

import (
	"context"
	"net/http"

	"github.com/bledden/tinker-voice/internal/remote"
	"github.com/bledden/tinker-voice/pkg/extract"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// OpenAICompatBackend implements Backend using the OpenAI chat completions
// API. Compatible with vLLM, text-generation-inference, LM Studio, etc.
type OpenAICompatBackend struct {
	model  string
	client *remote.Client
}

// NewOpenAICompatBackend creates an OpenAI-compatible backend. An unset
// credential sends no Authorization header.
func NewOpenAICompatBackend(
	endpoint, model string,
	cred *remote.Credential,
	opts ...remote.Option,
) *OpenAICompatBackend {
	return &OpenAICompatBackend{
		model: model,
		client: remote.New(remote.Integration{
			Service: domain.Service("openai_compat"),
			BaseURL: endpoint,
			Auth:    remote.BearerAuth{},
			Public:  true,
		}, cred, opts...),
	}
}

// Name returns the backend name.
func (*OpenAICompatBackend) Name() string {
	return "openai_compat"
}

type openAIChatRequest struct {
	Model       string         `json:"model"`
	Messages    []Message      `json:"messages"`
	Temperature *float64       `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	ResponseFmt *openAIRespFmt `json:"response_format,omitempty"`
}

type openAIRespFmt struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []openAIChoice `json:"choices"`
	Model   string         `json:"model"`
	Usage   openAIUsage    `json:"usage"`
}

type openAIChoice struct {
	Message Message `json:"message"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

var openAIResponseSchema = extract.Schema{
	Name: "chat completion",
	Fields: []extract.Field{
		{Name: "choices", Kind: extract.KindArray, Required: true},
		{Name: "model", Kind: extract.KindString, Default: ""},
		{Name: "usage", Kind: extract.KindObject, Default: map[string]any{}},
	},
}

// Generate calls the /v1/chat/completions endpoint.
func (b *OpenAICompatBackend) Generate(
	ctx context.Context,
	req GenerateRequest,
) (GenerateResponse, error) {
	messages := req.conversation()
	if req.SystemMsg != "" {
		messages = append([]Message{{Role: "system", Content: req.SystemMsg}}, messages...)
	}

	body := openAIChatRequest{
		Model:     b.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}
	if req.Format == FormatJSON {
		body.ResponseFmt = &openAIRespFmt{Type: "json_object"}
	}

	resp, err := remote.Call[openAIChatResponse](ctx, b.client, remote.Request{
		Method: http.MethodPost,
		Path:   "/v1/chat/completions",
		JSON:   body,
	}, openAIResponseSchema)
	if err != nil {
		return GenerateResponse{}, err
	}

	if len(resp.Choices) == 0 {
		return GenerateResponse{}, &remote.Error{
			Service: b.client.Service(),
			Kind:    remote.ErrInvalidResponse,
			Err:     ErrEmptyResponse,
		}
	}

	usage := TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	recordUsage(b.Name(), usage)

	return GenerateResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage:   usage,
	}, nil
}
