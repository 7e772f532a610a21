package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/bledden/tinker-voice/internal/tinker"
)

// Run is a training run with derived progress.
type Run struct {
	tinker.TrainingRun
	PercentComplete float64 `json:"percent_complete"`
}

// RunsPage is one page of runs.
type RunsPage struct {
	Runs    []Run `json:"runs"`
	Total   int   `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// CreateRun starts a training run.
func (c *Client) CreateRun(ctx context.Context, cfg tinker.TrainingConfig) (Run, error) {
	var out Run
	err := c.post(ctx, "/api/v1/training/runs", cfg, &out)
	return out, err
}

// ListRuns returns a page of runs. Zero values take the server defaults.
func (c *Client) ListRuns(ctx context.Context, page, perPage int) (RunsPage, error) {
	var out RunsPage
	err := c.get(ctx, "/api/v1/training/runs"+pageQuery(page, perPage), &out)
	return out, err
}

// GetRun returns a run.
func (c *Client) GetRun(ctx context.Context, id string) (Run, error) {
	var out Run
	err := c.get(ctx, runPath(id), &out)
	return out, err
}

// CancelRun cancels a run.
func (c *Client) CancelRun(ctx context.Context, id string) (Run, error) {
	var out Run
	err := c.post(ctx, runPath(id)+"/cancel", nil, &out)
	return out, err
}

// WaitForRun blocks until the run reaches a terminal status.
func (c *Client) WaitForRun(ctx context.Context, id string) (Run, error) {
	var out Run
	err := c.post(ctx, runPath(id)+"/wait", nil, &out)
	return out, err
}

// ListCheckpoints returns a page of a run's checkpoints.
func (c *Client) ListCheckpoints(
	ctx context.Context,
	runID string,
	page, perPage int,
) (tinker.ListCheckpointsResponse, error) {
	var out tinker.ListCheckpointsResponse
	err := c.get(ctx, runPath(runID)+"/checkpoints"+pageQuery(page, perPage), &out)
	return out, err
}

// GetCheckpoint returns one checkpoint.
func (c *Client) GetCheckpoint(ctx context.Context, runID, checkpointID string) (tinker.Checkpoint, error) {
	var out tinker.Checkpoint
	err := c.get(ctx, runPath(runID)+"/checkpoints/"+url.PathEscape(checkpointID), &out)
	return out, err
}

// ListModels returns the base models available for fine-tuning.
func (c *Client) ListModels(ctx context.Context) ([]tinker.ModelInfo, error) {
	var resp struct {
		Models []tinker.ModelInfo `json:"models"`
	}
	if err := c.get(ctx, "/api/v1/training/models", &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

func runPath(id string) string {
	return fmt.Sprintf("/api/v1/training/runs/%s", url.PathEscape(id))
}

func pageQuery(page, perPage int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
