package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/bledden/tinker-voice/internal/remote"
	"github.com/bledden/tinker-voice/pkg/extract"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// OllamaBackend implements Backend using the Ollama /api/generate endpoint.
type OllamaBackend struct {
	model  string
	client *remote.Client
}

// NewOllamaBackend creates an Ollama backend.
func NewOllamaBackend(endpoint, model string, opts ...remote.Option) *OllamaBackend {
	return &OllamaBackend{
		model: model,
		client: remote.New(remote.Integration{
			Service: domain.Service("ollama"),
			BaseURL: endpoint,
			Public:  true,
		}, nil, opts...),
	}
}

// Name returns the backend name.
func (*OllamaBackend) Name() string {
	return "ollama"
}

type ollamaRequest struct {
	Model      string         `json:"model"`
	Prompt     string         `json:"prompt"`
	System     string         `json:"system,omitempty"`
	Format     string         `json:"format,omitempty"`
	Stream     bool           `json:"stream"`
	Options    *ollamaOptions `json:"options,omitempty"`
	NumPredict int            `json:"num_predict,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

var ollamaResponseSchema = extract.Schema{
	Name: "ollama generation",
	Fields: []extract.Field{
		{Name: "response", Kind: extract.KindString, Required: true},
		{Name: "model", Kind: extract.KindString, Default: ""},
		{Name: "prompt_eval_count", Kind: extract.KindInteger, Default: 0},
		{Name: "eval_count", Kind: extract.KindInteger, Default: 0},
	},
}

// Generate calls /api/generate. Ollama takes a single prompt, so a
// multi-turn conversation is flattened into role-prefixed lines.
func (b *OllamaBackend) Generate(
	ctx context.Context,
	req GenerateRequest,
) (GenerateResponse, error) {
	body := ollamaRequest{
		Model:      b.model,
		Prompt:     flatten(req),
		System:     req.SystemMsg,
		NumPredict: req.MaxTokens,
	}
	if req.Format == FormatJSON {
		body.Format = FormatJSON
	}
	if req.Temperature > 0 {
		body.Options = &ollamaOptions{Temperature: req.Temperature}
	}

	resp, err := remote.Call[ollamaResponse](ctx, b.client, remote.Request{
		Method: http.MethodPost,
		Path:   "/api/generate",
		JSON:   body,
	}, ollamaResponseSchema)
	if err != nil {
		return GenerateResponse{}, err
	}

	usage := TokenUsage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	recordUsage(b.Name(), usage)

	return GenerateResponse{
		Content: resp.Response,
		Model:   resp.Model,
		Usage:   usage,
	}, nil
}

func flatten(req GenerateRequest) string {
	if len(req.Messages) == 0 {
		return req.Prompt
	}
	lines := make([]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n\n")
}
