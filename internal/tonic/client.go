// Package tonic wraps the Tonic Fabricate synthetic data API.
package tonic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/bledden/tinker-voice/internal/remote"
	"github.com/bledden/tinker-voice/pkg/extract"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// DefaultBaseURL is the Tonic API base URL.
const DefaultBaseURL = "https://api.tonic.ai"

// ErrInvalidRequest is returned for requests rejected before any call.
var ErrInvalidRequest = errors.New("invalid generation request")

// OutputFormat is the serialization of generated records.
type OutputFormat string

// Output formats.
const (
	FormatJSONL OutputFormat = "jsonl"
	FormatCSV   OutputFormat = "csv"
	FormatJSON  OutputFormat = "json"
)

// FieldDefinition describes one generated field.
type FieldDefinition struct {
	Name        string `json:"name"`
	FieldType   string `json:"field_type"`
	Description string `json:"description,omitempty"`
}

// DataSchema constrains generated records.
type DataSchema struct {
	Fields []FieldDefinition `json:"fields"`
}

// GenerationRequest asks for NumRecords records described by Prompt.
type GenerationRequest struct {
	Prompt     string
	NumRecords int
	Schema     *DataSchema
	Format     OutputFormat
}

// GenerationMetadata describes a completed generation.
type GenerationMetadata struct {
	GenerationID string `json:"generation_id"`
	DurationMs   int64  `json:"duration_ms"`
	PromptUsed   string `json:"prompt_used"`
}

// GenerationResult is generated data in the requested format.
type GenerationResult struct {
	Data        string             `json:"data"`
	RecordCount int                `json:"record_count"`
	Metadata    GenerationMetadata `json:"metadata"`
}

// GenerationPreview estimates the cost of a generation.
type GenerationPreview struct {
	EstimatedTokens          int         `json:"estimated_tokens"`
	EstimatedCost            float64     `json:"estimated_cost"`
	EstimatedDurationSeconds int         `json:"estimated_duration_seconds"`
	SchemaInferred           *DataSchema `json:"schema_inferred,omitempty"`
}

// TrainingDataRequest describes a fine-tuning dataset to generate.
type TrainingDataRequest struct {
	Task        string
	Domain      string
	NumExamples int
	// Style is optional guidance on tone or research context.
	Style string
}

// Client calls the Tonic API.
type Client struct {
	baseURL       string
	clientOptions []remote.Option
	remote        *remote.Client
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithClientOptions passes options to the underlying remote client.
func WithClientOptions(opts ...remote.Option) Option {
	return func(c *Client) {
		c.clientOptions = append(c.clientOptions, opts...)
	}
}

// New creates a Tonic client authenticated by cred.
func New(cred *remote.Credential, opts ...Option) *Client {
	c := &Client{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	c.remote = remote.New(remote.Integration{
		Service: domain.ServiceTonic,
		BaseURL: c.baseURL,
		Auth:    remote.BearerAuth{},
	}, cred, c.clientOptions...)
	return c
}

type apiGenerationRequest struct {
	Prompt       string      `json:"prompt"`
	NumRecords   int         `json:"num_records"`
	Schema       *DataSchema `json:"schema,omitempty"`
	OutputFormat string      `json:"output_format"`
}

type apiGenerationResponse struct {
	Data         string `json:"data"`
	RecordCount  int    `json:"record_count"`
	GenerationID string `json:"generation_id"`
	DurationMs   int64  `json:"duration_ms"`
}

var generationSchema = extract.Schema{
	Name: "generation",
	Fields: []extract.Field{
		{Name: "data", Kind: extract.KindString, Required: true},
		{Name: "record_count", Kind: extract.KindInteger, Default: 0},
		{Name: "generation_id", Kind: extract.KindString, Default: ""},
		{Name: "duration_ms", Kind: extract.KindInteger, Default: 0},
	},
}

// Generate produces synthetic records.
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	if err := validate(req.Prompt, req.NumRecords); err != nil {
		return GenerationResult{}, err
	}
	format := req.Format
	if format == "" {
		format = FormatJSONL
	}

	resp, err := remote.Call[apiGenerationResponse](ctx, c.remote, remote.Request{
		Method: http.MethodPost,
		Path:   "/v1/fabricate/generate",
		JSON: apiGenerationRequest{
			Prompt:       req.Prompt,
			NumRecords:   req.NumRecords,
			Schema:       req.Schema,
			OutputFormat: string(format),
		},
	}, generationSchema)
	if err != nil {
		return GenerationResult{}, err
	}

	return GenerationResult{
		Data:        resp.Data,
		RecordCount: resp.RecordCount,
		Metadata: GenerationMetadata{
			GenerationID: resp.GenerationID,
			DurationMs:   resp.DurationMs,
			PromptUsed:   req.Prompt,
		},
	}, nil
}

const trainingDataTmpl = `Generate {{.NumExamples}} high-quality training examples for fine-tuning a language model.

Task: {{.Task}}
Domain: {{.Domain}}
{{if .Style}}Style: {{.Style}}
{{end}}
Each example should have:
- "input": The user query or prompt
- "output": The ideal assistant response
- "system": Optional system prompt (include if relevant)

Generate diverse, realistic examples that cover edge cases and common scenarios.
Format as JSONL (one JSON object per line).`

var trainingDataTemplate = template.Must(template.New("training_data").Parse(trainingDataTmpl))

// RenderTrainingDataPrompt renders the generation prompt for req.
func RenderTrainingDataPrompt(req TrainingDataRequest) (string, error) {
	var buf bytes.Buffer
	if err := trainingDataTemplate.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("executing training data template: %w", err)
	}
	return buf.String(), nil
}

// TrainingExampleSchema declares the fields of a generated training record.
var TrainingExampleSchema = extract.Schema{
	Name: "training example",
	Fields: []extract.Field{
		{Name: "input", Kind: extract.KindString, Required: true},
		{Name: "output", Kind: extract.KindString, Required: true},
		{Name: "system", Kind: extract.KindString},
	},
}

var trainingFields = &DataSchema{Fields: []FieldDefinition{
	{Name: "input", FieldType: "string", Description: "User input or query"},
	{Name: "output", FieldType: "string", Description: "Ideal assistant response"},
	{Name: "system", FieldType: "string", Description: "Optional system prompt"},
}}

// GenerateTrainingData generates input/output examples and parses the
// returned JSONL. Blank lines are skipped; any unparseable line fails the
// whole batch.
func (c *Client) GenerateTrainingData(
	ctx context.Context,
	req TrainingDataRequest,
) ([]domain.TrainingExample, GenerationMetadata, error) {
	if strings.TrimSpace(req.Task) == "" {
		return nil, GenerationMetadata{}, fmt.Errorf("%w: task is required", ErrInvalidRequest)
	}
	prompt, err := RenderTrainingDataPrompt(req)
	if err != nil {
		return nil, GenerationMetadata{}, err
	}

	res, err := c.Generate(ctx, GenerationRequest{
		Prompt:     prompt,
		NumRecords: req.NumExamples,
		Schema:     trainingFields,
		Format:     FormatJSONL,
	})
	if err != nil {
		return nil, GenerationMetadata{}, err
	}

	examples, err := ParseExamples(res.Data)
	if err != nil {
		return nil, res.Metadata, &remote.Error{
			Service: domain.ServiceTonic,
			Kind:    remote.ErrInvalidResponse,
			Err:     err,
		}
	}
	return examples, res.Metadata, nil
}

// ParseExamples decodes JSONL training records.
func ParseExamples(data string) ([]domain.TrainingExample, error) {
	var out []domain.TrainingExample
	for i, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ex, err := extract.Decode[domain.TrainingExample](line, TrainingExampleSchema)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

var previewSchema = extract.Schema{
	Name: "generation preview",
	Fields: []extract.Field{
		{Name: "estimated_tokens", Kind: extract.KindInteger, Required: true},
		{Name: "estimated_cost", Kind: extract.KindNumber, Required: true},
		{Name: "estimated_duration_seconds", Kind: extract.KindInteger, Default: 0},
		{Name: "schema_inferred", Kind: extract.KindObject},
	},
}

// Preview estimates a generation without running it.
func (c *Client) Preview(ctx context.Context, prompt string, numRecords int) (GenerationPreview, error) {
	if err := validate(prompt, numRecords); err != nil {
		return GenerationPreview{}, err
	}
	return remote.Call[GenerationPreview](ctx, c.remote, remote.Request{
		Method: http.MethodPost,
		Path:   "/v1/fabricate/preview",
		JSON: map[string]any{
			"prompt":       prompt,
			"num_records":  numRecords,
			"preview_only": true,
		},
	}, previewSchema)
}

// Ping verifies the credential against the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.remote.Send(ctx, remote.Request{Path: "/v1/health"})
}

func validate(prompt string, n int) error {
	var errs []error
	if strings.TrimSpace(prompt) == "" {
		errs = append(errs, errors.New("prompt is required"))
	}
	if n <= 0 {
		errs = append(errs, fmt.Errorf("num_records must be > 0 (got %d)", n))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(errs...))
	}
	return nil
}
