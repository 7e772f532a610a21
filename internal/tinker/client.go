// Package tinker wraps the Tinker fine-tuning API: training runs,
// checkpoints, base models, and dataset uploads.
package tinker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bledden/tinker-voice/internal/poll"
	"github.com/bledden/tinker-voice/internal/remote"
	"github.com/bledden/tinker-voice/pkg/extract"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// DefaultBaseURL is the Tinker API base URL.
const DefaultBaseURL = "https://api.thinkingmachines.ai"

const (
	defaultPage    = 1
	defaultPerPage = 10
)

// ErrEmptyDataset is returned when an upload has no data.
var ErrEmptyDataset = errors.New("dataset is empty")

// Client calls the Tinker API.
type Client struct {
	baseURL       string
	clientOptions []remote.Option
	remote        *remote.Client
	poller        *poll.Poller
	policy        poll.Policy
	log           *slog.Logger
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

// WithPoller overrides the poller used by WaitForRun.
func WithPoller(p *poll.Poller) Option {
	return func(c *Client) {
		c.poller = p
	}
}

// WithPolicy overrides the poll policy used by WaitForRun.
func WithPolicy(p poll.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a Tinker client authenticated by cred.
func New(cred *remote.Credential, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		policy:  poll.DefaultPolicy(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.poller == nil {
		c.poller = poll.New(
			poll.WithName("training"),
			poll.WithRetryable(remote.IsRetryable),
			poll.WithLogger(c.log),
		)
	}
	c.remote = remote.New(remote.Integration{
		Service: domain.ServiceTinker,
		BaseURL: c.baseURL,
		Auth:    remote.BearerAuth{},
	}, cred, c.clientOptions...)
	return c
}

var (
	runSchema = extract.Schema{
		Name: "training run",
		Fields: []extract.Field{
			{Name: "id", Kind: extract.KindString, Required: true},
			{Name: "status", Kind: extract.KindString, Required: true},
			{Name: "model", Kind: extract.KindString, Default: ""},
			{Name: "training_type", Kind: extract.KindString, Default: ""},
			{Name: "progress", Kind: extract.KindObject},
			{Name: "error", Kind: extract.KindString},
		},
	}

	runListSchema = extract.Schema{
		Name: "training run list",
		Fields: []extract.Field{
			{Name: "runs", Kind: extract.KindArray, Default: []any{}},
			{Name: "total", Kind: extract.KindInteger, Default: 0},
			{Name: "page", Kind: extract.KindInteger},
			{Name: "per_page", Kind: extract.KindInteger},
		},
	}

	checkpointSchema = extract.Schema{
		Name: "checkpoint",
		Fields: []extract.Field{
			{Name: "id", Kind: extract.KindString, Required: true},
			{Name: "run_id", Kind: extract.KindString, Required: true},
			{Name: "step", Kind: extract.KindInteger, Default: 0},
			{Name: "path", Kind: extract.KindString, Default: ""},
			{Name: "metrics", Kind: extract.KindObject},
		},
	}

	checkpointListSchema = extract.Schema{
		Name: "checkpoint list",
		Fields: []extract.Field{
			{Name: "checkpoints", Kind: extract.KindArray, Default: []any{}},
			{Name: "total", Kind: extract.KindInteger, Default: 0},
			{Name: "page", Kind: extract.KindInteger},
			{Name: "per_page", Kind: extract.KindInteger},
		},
	}

	// The models endpoint returns a bare array.
	modelsSchema = extract.Schema{Name: "model list"}

	uploadSchema = extract.Schema{
		Name: "dataset upload",
		Fields: []extract.Field{
			{Name: "dataset_id", Kind: extract.KindString, Required: true},
			{Name: "path", Kind: extract.KindString, Required: true},
			{Name: "size_bytes", Kind: extract.KindInteger, Default: 0},
			{Name: "row_count", Kind: extract.KindInteger, Default: 0},
		},
	}
)

// CreateRun starts a training run.
func (c *Client) CreateRun(ctx context.Context, cfg TrainingConfig) (TrainingRun, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return TrainingRun{}, err
	}
	run, err := remote.Call[TrainingRun](ctx, c.remote, remote.Request{
		Method: http.MethodPost,
		Path:   "/v1/training/runs",
		JSON:   cfg,
	}, runSchema)
	if err != nil {
		return TrainingRun{}, err
	}
	c.log.Info("training run created", "handle", run.ID, "model", run.Model, "training_type", run.TrainingType)
	return run, nil
}

// GetRun returns a training run.
func (c *Client) GetRun(ctx context.Context, id string) (TrainingRun, error) {
	return remote.Call[TrainingRun](ctx, c.remote, remote.Request{
		Path:     "/v1/training/runs/" + url.PathEscape(id),
		Resource: id,
	}, runSchema)
}

// ListRuns returns a page of training runs. Non-positive page and perPage
// take the defaults 1 and 10.
func (c *Client) ListRuns(ctx context.Context, page, perPage int) (ListRunsResponse, error) {
	resp, err := remote.Call[ListRunsResponse](ctx, c.remote, remote.Request{
		Path:  "/v1/training/runs",
		Query: pageQuery(page, perPage),
	}, runListSchema)
	if err != nil {
		return ListRunsResponse{}, err
	}
	if resp.Page == 0 {
		resp.Page = max(page, defaultPage)
	}
	if resp.PerPage == 0 {
		resp.PerPage = perPageOrDefault(perPage)
	}
	return resp, nil
}

// CancelRun cancels a training run and returns its updated state.
func (c *Client) CancelRun(ctx context.Context, id string) (TrainingRun, error) {
	run, err := remote.Call[TrainingRun](ctx, c.remote, remote.Request{
		Method:   http.MethodPost,
		Path:     "/v1/training/runs/" + url.PathEscape(id) + "/cancel",
		Resource: id,
	}, runSchema)
	if err != nil {
		return TrainingRun{}, err
	}
	c.log.Info("training run cancelled", "handle", id, "status", run.Status)
	return run, nil
}

// ListCheckpoints returns a page of checkpoints for a run.
func (c *Client) ListCheckpoints(
	ctx context.Context,
	runID string,
	page, perPage int,
) (ListCheckpointsResponse, error) {
	resp, err := remote.Call[ListCheckpointsResponse](ctx, c.remote, remote.Request{
		Path:     "/v1/training/runs/" + url.PathEscape(runID) + "/checkpoints",
		Query:    pageQuery(page, perPage),
		Resource: runID,
	}, checkpointListSchema)
	if err != nil {
		return ListCheckpointsResponse{}, err
	}
	if resp.Page == 0 {
		resp.Page = max(page, defaultPage)
	}
	if resp.PerPage == 0 {
		resp.PerPage = perPageOrDefault(perPage)
	}
	return resp, nil
}

// GetCheckpoint returns one checkpoint of a run.
func (c *Client) GetCheckpoint(ctx context.Context, runID, checkpointID string) (Checkpoint, error) {
	return remote.Call[Checkpoint](ctx, c.remote, remote.Request{
		Path: "/v1/training/runs/" + url.PathEscape(runID) +
			"/checkpoints/" + url.PathEscape(checkpointID),
		Resource: checkpointID,
	}, checkpointSchema)
}

// ListModels returns the base models available for fine-tuning.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return remote.Call[[]ModelInfo](ctx, c.remote, remote.Request{Path: "/v1/models"}, modelsSchema)
}

// UploadDataset uploads a dataset file for use as a run's dataset_path.
func (c *Client) UploadDataset(ctx context.Context, data []byte, filename string) (DatasetUpload, error) {
	if len(data) == 0 {
		return DatasetUpload{}, ErrEmptyDataset
	}
	up, err := remote.Call[DatasetUpload](ctx, c.remote, remote.Request{
		Method: http.MethodPost,
		Path:   "/v1/datasets/upload",
		Form: &remote.Form{Files: []remote.FormFile{{
			Field:       "file",
			Filename:    filename,
			ContentType: "application/octet-stream",
			Data:        data,
		}}},
	}, uploadSchema)
	if err != nil {
		return DatasetUpload{}, fmt.Errorf("uploading %s: %w", filename, err)
	}
	return up, nil
}

// FetchRun returns the poll snapshot of a run.
func (c *Client) FetchRun(ctx context.Context, h poll.Handle) (poll.Snapshot[TrainingRun], error) {
	run, err := c.GetRun(ctx, string(h))
	if err != nil {
		return poll.Snapshot[TrainingRun]{}, err
	}
	snap := poll.Snapshot[TrainingRun]{Status: run.Status.PollStatus(), Result: run}
	if snap.Status == poll.StatusFailed {
		snap.Reason = run.Error
		if snap.Reason == "" {
			snap.Reason = "run " + string(run.Status)
		}
	}
	return snap, nil
}

// WaitForRun polls a run until it completes, fails, or is cancelled.
func (c *Client) WaitForRun(ctx context.Context, id string) (TrainingRun, error) {
	return poll.Poll(ctx, c.poller, poll.Handle(id), c.FetchRun, c.policy)
}

// Ping verifies the credential against the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.remote.Send(ctx, remote.Request{Path: "/v1/health"})
}

func pageQuery(page, perPage int) url.Values {
	return url.Values{
		"page":     {strconv.Itoa(max(page, defaultPage))},
		"per_page": {strconv.Itoa(perPageOrDefault(perPage))},
	}
}

func perPageOrDefault(n int) int {
	if n <= 0 {
		return defaultPerPage
	}
	return n
}
