package client

import (
	"context"
	"net/url"

	"github.com/bledden/tinker-voice/internal/yutori"
)

// ResearchJob is the state of a research job.
type ResearchJob struct {
	ID     string                 `json:"id"`
	Status string                 `json:"status"`
	Reason string                 `json:"reason,omitempty"`
	Result *yutori.ResearchResult `json:"result,omitempty"`
}

// Research runs a research job and waits for the result.
func (c *Client) Research(ctx context.Context, req yutori.ResearchRequest) (yutori.ResearchResult, error) {
	var out yutori.ResearchResult
	err := c.post(ctx, "/api/v1/research", researchBody(req), &out)
	return out, err
}

// StartResearch starts a research job without waiting.
func (c *Client) StartResearch(ctx context.Context, req yutori.ResearchRequest) (ResearchJob, error) {
	var out ResearchJob
	err := c.post(ctx, "/api/v1/research/jobs", researchBody(req), &out)
	return out, err
}

// GetResearch returns the current state of a research job.
func (c *Client) GetResearch(ctx context.Context, id string) (ResearchJob, error) {
	var out ResearchJob
	err := c.get(ctx, "/api/v1/research/jobs/"+url.PathEscape(id), &out)
	return out, err
}

// ResearchMLTask researches fine-tuning guidance.
func (c *Client) ResearchMLTask(
	ctx context.Context,
	task, modelType, trainingType string,
) (yutori.MLResearchResult, error) {
	body := map[string]string{"task": task}
	if modelType != "" {
		body["model_type"] = modelType
	}
	if trainingType != "" {
		body["training_type"] = trainingType
	}
	var out yutori.MLResearchResult
	err := c.post(ctx, "/api/v1/research/ml", body, &out)
	return out, err
}

func researchBody(req yutori.ResearchRequest) map[string]any {
	body := map[string]any{"query": req.Query}
	if req.Depth > 0 {
		body["depth"] = req.Depth
	}
	if req.Domain != "" {
		body["domain"] = req.Domain
	}
	if req.MaxSources > 0 {
		body["max_sources"] = req.MaxSources
	}
	return body
}
