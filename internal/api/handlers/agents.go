package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bledden/tinker-voice/internal/agents"
	"github.com/bledden/tinker-voice/internal/llm"
)

// Agents runs the reasoning agents.
type Agents interface {
	ParseIntent(ctx context.Context, input string) (agents.ParsedIntent, error)
	ValidateData(ctx context.Context, samples string) (agents.ValidationResult, error)
	RecommendConfig(ctx context.Context, requirements, datasetInfo string) (agents.ConfigRecommendation, error)
	Chat(ctx context.Context, k agents.Kind, messages []llm.Message) (agents.ChatResponse, error)
}

// AgentsHandler handles reasoning agent requests.
type AgentsHandler struct {
	agents Agents
}

// NewAgentsHandler creates a new AgentsHandler.
func NewAgentsHandler(a Agents) *AgentsHandler {
	return &AgentsHandler{agents: a}
}

// ParseIntentInput is the request body for intent parsing.
type ParseIntentInput struct {
	Body struct {
		Text string `json:"text" minLength:"1" doc:"Transcribed user request" example:"Train a model to answer support tickets"`
	}
}

// ParseIntentOutput is the parsed intent.
type ParseIntentOutput struct {
	Body agents.ParsedIntent
}

// ParseIntent classifies a user request.
func (h *AgentsHandler) ParseIntent(ctx context.Context, input *ParseIntentInput) (*ParseIntentOutput, error) {
	out, err := h.agents.ParseIntent(ctx, input.Body.Text)
	if err != nil {
		return nil, apiError("parsing intent", err)
	}
	return &ParseIntentOutput{Body: out}, nil
}

// ValidateDataInput is the request body for dataset review.
type ValidateDataInput struct {
	Body struct {
		Samples string `json:"samples" minLength:"1" doc:"Dataset samples as text, typically JSONL"`
	}
}

// ValidateDataOutput is the dataset review.
type ValidateDataOutput struct {
	Body agents.ValidationResult
}

// ValidateData asks the validation agent to review samples.
func (h *AgentsHandler) ValidateData(ctx context.Context, input *ValidateDataInput) (*ValidateDataOutput, error) {
	out, err := h.agents.ValidateData(ctx, input.Body.Samples)
	if err != nil {
		return nil, apiError("validating data", err)
	}
	return &ValidateDataOutput{Body: out}, nil
}

// RecommendConfigInput is the request body for config recommendation.
type RecommendConfigInput struct {
	Body struct {
		Requirements string `json:"requirements"           minLength:"1" doc:"What the model should do"`
		DatasetInfo  string `json:"dataset_info,omitempty" doc:"Optional dataset description or stats"`
	}
}

// RecommendConfigOutput is the recommended training config.
type RecommendConfigOutput struct {
	Body agents.ConfigRecommendation
}

// RecommendConfig asks the config agent for a training setup.
func (h *AgentsHandler) RecommendConfig(
	ctx context.Context,
	input *RecommendConfigInput,
) (*RecommendConfigOutput, error) {
	out, err := h.agents.RecommendConfig(ctx, input.Body.Requirements, input.Body.DatasetInfo)
	if err != nil {
		return nil, apiError("recommending config", err)
	}
	return &RecommendConfigOutput{Body: out}, nil
}

// ChatInput is the request body for a free-form agent conversation.
type ChatInput struct {
	Body struct {
		Agent    string        `json:"agent,omitempty" enum:"intent,validation,config,general" doc:"Agent persona; defaults to general"`
		Messages []llm.Message `json:"messages"        minItems:"1"`
	}
}

// ChatOutput is the agent reply.
type ChatOutput struct {
	Body agents.ChatResponse
}

// Chat continues a conversation with an agent.
func (h *AgentsHandler) Chat(ctx context.Context, input *ChatInput) (*ChatOutput, error) {
	out, err := h.agents.Chat(ctx, agents.ParseKind(input.Body.Agent), input.Body.Messages)
	if err != nil {
		return nil, apiError("chatting", err)
	}
	return &ChatOutput{Body: out}, nil
}

// RegisterAgentsRoutes registers agent endpoints with the Huma API.
func RegisterAgentsRoutes(api huma.API, h *AgentsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "parse-intent",
		Method:      http.MethodPost,
		Path:        "/api/v1/agents/intent",
		Summary:     "Parse a user request into an intent",
		Tags:        []string{"agents"},
		Errors:      vendorErrors,
	}, h.ParseIntent)

	huma.Register(api, huma.Operation{
		OperationID: "validate-data",
		Method:      http.MethodPost,
		Path:        "/api/v1/agents/validate",
		Summary:     "Review dataset samples",
		Tags:        []string{"agents"},
		Errors:      vendorErrors,
	}, h.ValidateData)

	huma.Register(api, huma.Operation{
		OperationID: "recommend-config",
		Method:      http.MethodPost,
		Path:        "/api/v1/agents/config",
		Summary:     "Recommend a training configuration",
		Tags:        []string{"agents"},
		Errors:      vendorErrors,
	}, h.RecommendConfig)

	huma.Register(api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/api/v1/agents/chat",
		Summary:     "Chat with an agent",
		Tags:        []string{"agents"},
		Errors:      vendorErrors,
	}, h.Chat)
}
