package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bledden/tinker-voice/internal/tinker"
)

// Trainer manages fine-tuning runs.
type Trainer interface {
	CreateRun(ctx context.Context, cfg tinker.TrainingConfig) (tinker.TrainingRun, error)
	GetRun(ctx context.Context, id string) (tinker.TrainingRun, error)
	ListRuns(ctx context.Context, page, perPage int) (tinker.ListRunsResponse, error)
	CancelRun(ctx context.Context, id string) (tinker.TrainingRun, error)
	WaitForRun(ctx context.Context, id string) (tinker.TrainingRun, error)
	ListCheckpoints(ctx context.Context, runID string, page, perPage int) (tinker.ListCheckpointsResponse, error)
	GetCheckpoint(ctx context.Context, runID, checkpointID string) (tinker.Checkpoint, error)
	ListModels(ctx context.Context) ([]tinker.ModelInfo, error)
}

// TrainingHandler handles training run requests.
type TrainingHandler struct {
	trainer Trainer
	wait    waitConfig
}

// NewTrainingHandler creates a new TrainingHandler.
func NewTrainingHandler(t Trainer, opts ...WaitOption) *TrainingHandler {
	return &TrainingHandler{trainer: t, wait: newWaitConfig(opts)}
}

// RunView is a training run with derived progress.
type RunView struct {
	tinker.TrainingRun
	PercentComplete float64 `json:"percent_complete" doc:"Share of steps done, 0 to 100"`
}

func viewOf(run tinker.TrainingRun) RunView {
	v := RunView{TrainingRun: run}
	if run.Progress != nil {
		v.PercentComplete = run.Progress.PercentComplete()
	}
	return v
}

// RunOutput is a single training run.
type RunOutput struct {
	Body RunView
}

// CreateRunInput is the request body for starting a run.
type CreateRunInput struct {
	Body tinker.TrainingConfig
}

// CreateRun starts a training run.
func (h *TrainingHandler) CreateRun(ctx context.Context, input *CreateRunInput) (*RunOutput, error) {
	run, err := h.trainer.CreateRun(ctx, input.Body)
	if err != nil {
		return nil, apiError("creating run", err)
	}
	return &RunOutput{Body: viewOf(run)}, nil
}

// PageParams are the pagination query parameters.
type PageParams struct {
	Page    int `query:"page"     minimum:"0" doc:"Page number; defaults to 1"`
	PerPage int `query:"per_page" minimum:"0" maximum:"100" doc:"Page size; defaults to 10"`
}

// ListRunsInput is the request for listing runs.
type ListRunsInput struct {
	PageParams
}

// ListRunsOutput is one page of runs.
type ListRunsOutput struct {
	Body struct {
		Runs    []RunView `json:"runs"`
		Total   int       `json:"total"`
		Page    int       `json:"page"`
		PerPage int       `json:"per_page"`
	}
}

// ListRuns returns a page of training runs.
func (h *TrainingHandler) ListRuns(ctx context.Context, input *ListRunsInput) (*ListRunsOutput, error) {
	page, err := h.trainer.ListRuns(ctx, input.Page, input.PerPage)
	if err != nil {
		return nil, apiError("listing runs", err)
	}
	resp := &ListRunsOutput{}
	resp.Body.Runs = make([]RunView, 0, len(page.Runs))
	for _, r := range page.Runs {
		resp.Body.Runs = append(resp.Body.Runs, viewOf(r))
	}
	resp.Body.Total = page.Total
	resp.Body.Page = page.Page
	resp.Body.PerPage = page.PerPage
	return resp, nil
}

// RunPath identifies a run in the URL.
type RunPath struct {
	RunID string `path:"run_id" doc:"Training run ID"`
}

// GetRun returns a training run.
func (h *TrainingHandler) GetRun(ctx context.Context, input *RunPath) (*RunOutput, error) {
	run, err := h.trainer.GetRun(ctx, input.RunID)
	if err != nil {
		return nil, apiError("getting run", err)
	}
	return &RunOutput{Body: viewOf(run)}, nil
}

// CancelRun cancels a training run.
func (h *TrainingHandler) CancelRun(ctx context.Context, input *RunPath) (*RunOutput, error) {
	run, err := h.trainer.CancelRun(ctx, input.RunID)
	if err != nil {
		return nil, apiError("cancelling run", err)
	}
	return &RunOutput{Body: viewOf(run)}, nil
}

// WaitForRun blocks until the run completes, fails, or is cancelled.
func (h *TrainingHandler) WaitForRun(ctx context.Context, input *RunPath) (*RunOutput, error) {
	run, err := h.trainer.WaitForRun(ctx, input.RunID)
	if err != nil {
		return nil, apiError("waiting for run", err)
	}
	return &RunOutput{Body: viewOf(run)}, nil
}

// ListCheckpointsInput is the request for listing checkpoints.
type ListCheckpointsInput struct {
	RunPath
	PageParams
}

// ListCheckpointsOutput is one page of checkpoints.
type ListCheckpointsOutput struct {
	Body tinker.ListCheckpointsResponse
}

// ListCheckpoints returns a page of checkpoints for a run.
func (h *TrainingHandler) ListCheckpoints(
	ctx context.Context,
	input *ListCheckpointsInput,
) (*ListCheckpointsOutput, error) {
	page, err := h.trainer.ListCheckpoints(ctx, input.RunID, input.Page, input.PerPage)
	if err != nil {
		return nil, apiError("listing checkpoints", err)
	}
	return &ListCheckpointsOutput{Body: page}, nil
}

// GetCheckpointInput identifies a checkpoint.
type GetCheckpointInput struct {
	RunPath
	CheckpointID string `path:"checkpoint_id" doc:"Checkpoint ID"`
}

// CheckpointOutput is a single checkpoint.
type CheckpointOutput struct {
	Body tinker.Checkpoint
}

// GetCheckpoint returns one checkpoint of a run.
func (h *TrainingHandler) GetCheckpoint(ctx context.Context, input *GetCheckpointInput) (*CheckpointOutput, error) {
	ck, err := h.trainer.GetCheckpoint(ctx, input.RunID, input.CheckpointID)
	if err != nil {
		return nil, apiError("getting checkpoint", err)
	}
	return &CheckpointOutput{Body: ck}, nil
}

// ListModelsOutput lists base models.
type ListModelsOutput struct {
	Body struct {
		Models []tinker.ModelInfo `json:"models"`
	}
}

// ListModels returns the base models available for fine-tuning.
func (h *TrainingHandler) ListModels(ctx context.Context, _ *struct{}) (*ListModelsOutput, error) {
	models, err := h.trainer.ListModels(ctx)
	if err != nil {
		return nil, apiError("listing models", err)
	}
	resp := &ListModelsOutput{}
	resp.Body.Models = models
	return resp, nil
}

// RegisterTrainingRoutes registers training endpoints with the Huma API.
func RegisterTrainingRoutes(api huma.API, h *TrainingHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-run",
		Method:        http.MethodPost,
		Path:          "/api/v1/training/runs",
		Summary:       "Start a training run",
		Tags:          []string{"training"},
		DefaultStatus: http.StatusCreated,
		Errors:        vendorErrors,
	}, h.CreateRun)

	huma.Register(api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/api/v1/training/runs",
		Summary:     "List training runs",
		Tags:        []string{"training"},
		Errors:      vendorErrors,
	}, h.ListRuns)

	huma.Register(api, huma.Operation{
		OperationID: "get-run",
		Method:      http.MethodGet,
		Path:        "/api/v1/training/runs/{run_id}",
		Summary:     "Get a training run",
		Tags:        []string{"training"},
		Errors:      vendorErrors,
	}, h.GetRun)

	huma.Register(api, huma.Operation{
		OperationID: "cancel-run",
		Method:      http.MethodPost,
		Path:        "/api/v1/training/runs/{run_id}/cancel",
		Summary:     "Cancel a training run",
		Tags:        []string{"training"},
		Errors:      vendorErrors,
	}, h.CancelRun)

	huma.Register(api, huma.Operation{
		OperationID: "wait-run",
		Method:      http.MethodPost,
		Path:        "/api/v1/training/runs/{run_id}/wait",
		Summary:     "Wait for a training run to finish",
		Description: "Polls the run with the configured training policy until it reaches a terminal status.",
		Tags:        []string{"training"},
		Errors:      pollErrors,
		Middlewares: holdResponse(h.wait.hold),
	}, h.WaitForRun)

	huma.Register(api, huma.Operation{
		OperationID: "list-checkpoints",
		Method:      http.MethodGet,
		Path:        "/api/v1/training/runs/{run_id}/checkpoints",
		Summary:     "List checkpoints of a run",
		Tags:        []string{"training"},
		Errors:      vendorErrors,
	}, h.ListCheckpoints)

	huma.Register(api, huma.Operation{
		OperationID: "get-checkpoint",
		Method:      http.MethodGet,
		Path:        "/api/v1/training/runs/{run_id}/checkpoints/{checkpoint_id}",
		Summary:     "Get a checkpoint",
		Tags:        []string{"training"},
		Errors:      vendorErrors,
	}, h.GetCheckpoint)

	huma.Register(api, huma.Operation{
		OperationID: "list-models",
		Method:      http.MethodGet,
		Path:        "/api/v1/training/models",
		Summary:     "List base models",
		Tags:        []string{"training"},
		Errors:      vendorErrors,
	}, h.ListModels)
}
