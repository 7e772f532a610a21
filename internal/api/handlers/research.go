package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bledden/tinker-voice/internal/poll"
	"github.com/bledden/tinker-voice/internal/yutori"
)

// Researcher runs web research jobs.
type Researcher interface {
	Start(ctx context.Context, req yutori.ResearchRequest) (poll.Handle, error)
	Fetch(ctx context.Context, h poll.Handle) (poll.Snapshot[yutori.ResearchResult], error)
	Research(ctx context.Context, req yutori.ResearchRequest) (yutori.ResearchResult, error)
	ResearchMLTask(ctx context.Context, task, modelType, trainingType string) (yutori.MLResearchResult, error)
}

// ResearchHandler handles research requests.
type ResearchHandler struct {
	research Researcher
	wait     waitConfig
}

// NewResearchHandler creates a new ResearchHandler.
func NewResearchHandler(r Researcher, opts ...WaitOption) *ResearchHandler {
	return &ResearchHandler{research: r, wait: newWaitConfig(opts)}
}

// ResearchInput is the request body for a research job.
type ResearchInput struct {
	Body struct {
		Query      string `json:"query"                 minLength:"1" doc:"What to research"`
		Depth      int    `json:"depth,omitempty"       minimum:"0" maximum:"5" doc:"Search depth 1 to 5; defaults to 1"`
		Domain     string `json:"domain,omitempty"      doc:"Optional subject area"`
		MaxSources int    `json:"max_sources,omitempty" minimum:"0" doc:"Optional source cap"`
	}
}

func (in *ResearchInput) request() yutori.ResearchRequest {
	return yutori.ResearchRequest{
		Query:      in.Body.Query,
		Depth:      in.Body.Depth,
		Domain:     in.Body.Domain,
		MaxSources: in.Body.MaxSources,
	}
}

// ResearchOutput is a completed research job.
type ResearchOutput struct {
	Body yutori.ResearchResult
}

// Research runs a research job and waits for its result.
func (h *ResearchHandler) Research(ctx context.Context, input *ResearchInput) (*ResearchOutput, error) {
	res, err := h.research.Research(ctx, input.request())
	if err != nil {
		return nil, apiError("researching", err)
	}
	return &ResearchOutput{Body: res}, nil
}

// ResearchJobOutput is the state of a research job.
type ResearchJobOutput struct {
	Body struct {
		ID     string                 `json:"id"`
		Status poll.Status            `json:"status"`
		Reason string                 `json:"reason,omitempty"`
		Result *yutori.ResearchResult `json:"result,omitempty"`
	}
}

// StartResearch starts a research job without waiting for it.
func (h *ResearchHandler) StartResearch(ctx context.Context, input *ResearchInput) (*ResearchJobOutput, error) {
	id, err := h.research.Start(ctx, input.request())
	if err != nil {
		return nil, apiError("starting research", err)
	}
	resp := &ResearchJobOutput{}
	resp.Body.ID = string(id)
	resp.Body.Status = poll.StatusPending
	return resp, nil
}

// ResearchJobInput identifies a research job.
type ResearchJobInput struct {
	ID string `path:"id" doc:"Research job ID"`
}

// GetResearch returns the current state of a research job.
func (h *ResearchHandler) GetResearch(ctx context.Context, input *ResearchJobInput) (*ResearchJobOutput, error) {
	snap, err := h.research.Fetch(ctx, poll.Handle(input.ID))
	if err != nil {
		return nil, apiError("fetching research", err)
	}
	resp := &ResearchJobOutput{}
	resp.Body.ID = input.ID
	resp.Body.Status = snap.Status
	resp.Body.Reason = snap.Reason
	if snap.Status == poll.StatusCompleted {
		res := snap.Result
		resp.Body.Result = &res
	}
	return resp, nil
}

// MLResearchInput is the request body for fine-tuning research.
type MLResearchInput struct {
	Body struct {
		Task         string `json:"task"                    minLength:"1" doc:"What the fine-tuned model should do"`
		ModelType    string `json:"model_type,omitempty"    default:"llama" doc:"Base model family"`
		TrainingType string `json:"training_type,omitempty" default:"sft"   doc:"Fine-tuning method"`
	}
}

// MLResearchOutput is classified fine-tuning guidance.
type MLResearchOutput struct {
	Body yutori.MLResearchResult
}

// ResearchMLTask researches fine-tuning guidance for a task.
func (h *ResearchHandler) ResearchMLTask(ctx context.Context, input *MLResearchInput) (*MLResearchOutput, error) {
	res, err := h.research.ResearchMLTask(ctx, input.Body.Task, input.Body.ModelType, input.Body.TrainingType)
	if err != nil {
		return nil, apiError("researching ML task", err)
	}
	return &MLResearchOutput{Body: res}, nil
}

// RegisterResearchRoutes registers research endpoints with the Huma API.
func RegisterResearchRoutes(api huma.API, h *ResearchHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "research",
		Method:      http.MethodPost,
		Path:        "/api/v1/research",
		Summary:     "Run a research job",
		Description: "Starts a research job and polls until it completes, fails, or times out.",
		Tags:        []string{"research"},
		Errors:      pollErrors,
		Middlewares: holdResponse(h.wait.hold),
	}, h.Research)

	huma.Register(api, huma.Operation{
		OperationID:   "start-research",
		Method:        http.MethodPost,
		Path:          "/api/v1/research/jobs",
		Summary:       "Start a research job",
		Tags:          []string{"research"},
		DefaultStatus: http.StatusAccepted,
		Errors:        vendorErrors,
	}, h.StartResearch)

	huma.Register(api, huma.Operation{
		OperationID: "get-research",
		Method:      http.MethodGet,
		Path:        "/api/v1/research/jobs/{id}",
		Summary:     "Get a research job",
		Tags:        []string{"research"},
		Errors:      vendorErrors,
	}, h.GetResearch)

	huma.Register(api, huma.Operation{
		OperationID: "research-ml-task",
		Method:      http.MethodPost,
		Path:        "/api/v1/research/ml",
		Summary:     "Research fine-tuning guidance",
		Tags:        []string{"research"},
		Errors:      pollErrors,
		Middlewares: holdResponse(h.wait.hold),
	}, h.ResearchMLTask)
}
