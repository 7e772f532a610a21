package client

import (
	"context"

	"github.com/bledden/tinker-voice/internal/agents"
	"github.com/bledden/tinker-voice/internal/llm"
)

// ParseIntent classifies a user request.
func (c *Client) ParseIntent(ctx context.Context, text string) (agents.ParsedIntent, error) {
	var out agents.ParsedIntent
	err := c.post(ctx, "/api/v1/agents/intent", map[string]string{"text": text}, &out)
	return out, err
}

// ValidateData asks the validation agent to review samples.
func (c *Client) ValidateData(ctx context.Context, samples string) (agents.ValidationResult, error) {
	var out agents.ValidationResult
	err := c.post(ctx, "/api/v1/agents/validate", map[string]string{"samples": samples}, &out)
	return out, err
}

// RecommendConfig asks the config agent for a training setup.
func (c *Client) RecommendConfig(
	ctx context.Context,
	requirements, datasetInfo string,
) (agents.ConfigRecommendation, error) {
	body := map[string]string{"requirements": requirements}
	if datasetInfo != "" {
		body["dataset_info"] = datasetInfo
	}
	var out agents.ConfigRecommendation
	err := c.post(ctx, "/api/v1/agents/config", body, &out)
	return out, err
}

// Chat sends a conversation to an agent. An empty agent selects general.
func (c *Client) Chat(ctx context.Context, agent string, messages []llm.Message) (agents.ChatResponse, error) {
	body := map[string]any{"messages": messages}
	if agent != "" {
		body["agent"] = agent
	}
	var out agents.ChatResponse
	err := c.post(ctx, "/api/v1/agents/chat", body, &out)
	return out, err
}
