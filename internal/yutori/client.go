// Package yutori wraps the Yutori asynchronous web research API.
package yutori

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bledden/tinker-voice/internal/poll"
	"github.com/bledden/tinker-voice/internal/remote"
	"github.com/bledden/tinker-voice/pkg/extract"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

// DefaultBaseURL is the Yutori API base URL.
const DefaultBaseURL = "https://api.yutori.com"

// ErrEmptyQuery is returned when a research request has no query.
var ErrEmptyQuery = errors.New("research query is empty")

// ResearchRequest starts a research job. Depth is clamped to 1..5; zero
// Domain and MaxSources are omitted.
type ResearchRequest struct {
	Query      string `json:"query"`
	Depth      int    `json:"depth"`
	Domain     string `json:"domain,omitempty"`
	MaxSources int    `json:"max_sources,omitempty"`
}

// Source is a consulted web page.
type Source struct {
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Finding is one extracted fact.
type Finding struct {
	Content    string  `json:"content"`
	SourceURL  string  `json:"source_url"`
	Confidence float64 `json:"confidence"`
}

// ResearchMetadata describes a research job.
type ResearchMetadata struct {
	ResearchID       string      `json:"research_id"`
	DurationMs       int64       `json:"duration_ms"`
	SourcesConsulted int         `json:"sources_consulted"`
	Status           poll.Status `json:"status"`
}

// ResearchResult is a completed research job.
type ResearchResult struct {
	Summary     string           `json:"summary"`
	Insights    []string         `json:"insights"`
	Sources     []Source         `json:"sources"`
	RawFindings []Finding        `json:"raw_findings"`
	Metadata    ResearchMetadata `json:"metadata"`
}

// Client calls the Yutori API.
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

// WithPoller overrides the poller used by Research.
func WithPoller(p *poll.Poller) Option {
	return func(c *Client) {
		c.poller = p
	}
}

// WithPolicy overrides the poll policy used by Research.
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

// New creates a Yutori client authenticated by cred.
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
			poll.WithName("research"),
			poll.WithRetryable(remote.IsRetryable),
			poll.WithLogger(c.log),
		)
	}
	c.remote = remote.New(remote.Integration{
		Service: domain.ServiceYutori,
		BaseURL: c.baseURL,
		Auth:    remote.BearerAuth{},
	}, cred, c.clientOptions...)
	return c
}

type apiResearchResponse struct {
	ResearchID       string    `json:"research_id"`
	Status           string    `json:"status"`
	Summary          string    `json:"summary"`
	Insights         []string  `json:"insights"`
	Sources          []Source  `json:"sources"`
	Findings         []Finding `json:"findings"`
	DurationMs       int64     `json:"duration_ms"`
	SourcesConsulted int       `json:"sources_consulted"`
}

var researchSchema = extract.Schema{
	Name: "research",
	Fields: []extract.Field{
		{Name: "research_id", Kind: extract.KindString, Required: true},
		{Name: "status", Kind: extract.KindString, Required: true},
		{Name: "summary", Kind: extract.KindString, Default: ""},
		{Name: "insights", Kind: extract.KindArray, Default: []any{}},
		{Name: "sources", Kind: extract.KindArray, Default: []any{}},
		{Name: "findings", Kind: extract.KindArray, Default: []any{}},
		{Name: "duration_ms", Kind: extract.KindInteger, Default: 0},
		{Name: "sources_consulted", Kind: extract.KindInteger, Default: 0},
	},
}

// ParseStatus maps a Yutori status to a poll status. Unrecognized values
// are returned unchanged and treated as non-terminal.
func ParseStatus(s string) poll.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "queued":
		return poll.StatusPending
	case "inprogress", "in_progress", "running":
		return poll.StatusInProgress
	case "completed", "complete", "done":
		return poll.StatusCompleted
	case "failed", "error":
		return poll.StatusFailed
	default:
		return poll.Status(s)
	}
}

// Start submits a research job and returns its handle.
func (c *Client) Start(ctx context.Context, req ResearchRequest) (poll.Handle, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", ErrEmptyQuery
	}
	req.Depth = min(max(req.Depth, 1), 5)

	resp, err := remote.Call[apiResearchResponse](ctx, c.remote, remote.Request{
		Method: http.MethodPost,
		Path:   "/v1/research",
		JSON:   req,
	}, researchSchema)
	if err != nil {
		return "", err
	}

	c.log.Info("research started", "handle", resp.ResearchID, "depth", req.Depth)
	return poll.Handle(resp.ResearchID), nil
}

// Fetch returns the current status of a research job.
func (c *Client) Fetch(ctx context.Context, h poll.Handle) (poll.Snapshot[ResearchResult], error) {
	resp, err := remote.Call[apiResearchResponse](ctx, c.remote, remote.Request{
		Path:     "/v1/research/" + url.PathEscape(string(h)),
		Resource: string(h),
	}, researchSchema)
	if err != nil {
		return poll.Snapshot[ResearchResult]{}, err
	}

	status := ParseStatus(resp.Status)
	snap := poll.Snapshot[ResearchResult]{Status: status}
	switch status {
	case poll.StatusCompleted:
		snap.Result = ResearchResult{
			Summary:     resp.Summary,
			Insights:    resp.Insights,
			Sources:     resp.Sources,
			RawFindings: resp.Findings,
			Metadata: ResearchMetadata{
				ResearchID:       resp.ResearchID,
				DurationMs:       resp.DurationMs,
				SourcesConsulted: resp.SourcesConsulted,
				Status:           poll.StatusCompleted,
			},
		}
	case poll.StatusFailed:
		snap.Reason = resp.Summary
		if snap.Reason == "" {
			snap.Reason = "research failed"
		}
	}
	return snap, nil
}

// Research starts a job and polls it to completion with the client's
// policy.
func (c *Client) Research(ctx context.Context, req ResearchRequest) (ResearchResult, error) {
	h, err := c.Start(ctx, req)
	if err != nil {
		return ResearchResult{}, err
	}
	return c.Wait(ctx, h)
}

// Wait polls an already started job to completion.
func (c *Client) Wait(ctx context.Context, h poll.Handle) (ResearchResult, error) {
	return poll.Poll(ctx, c.poller, h, c.Fetch, c.policy)
}

// Ping verifies the credential against the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.remote.Send(ctx, remote.Request{Path: "/v1/health"})
}
