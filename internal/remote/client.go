// Package remote implements the request pipeline shared by every vendor
// integration: credential check, authentication, send, status triage, and
// typed decoding of the response.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bledden/tinker-voice/internal/metrics"
	"github.com/bledden/tinker-voice/pkg/extract"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

const defaultTimeout = 30 * time.Second

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Integration is the per-vendor parameterization of the pipeline.
type Integration struct {
	Service domain.Service
	BaseURL string
	Auth    Authenticator
	// Headers are sent on every request, e.g. an API version header.
	Headers map[string]string
	// Public integrations need no credential, e.g. a local model server.
	Public bool
}

// Client sends requests to one vendor.
type Client struct {
	integration Integration
	credential  *Credential
	doer        Doer
	limiter     *RateLimiter
	timeout     time.Duration
	log         *slog.Logger
	nowFunc     func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithDoer overrides the HTTP client.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		c.doer = d
	}
}

// WithBaseURL overrides the integration's base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.integration.BaseURL = u
	}
}

// WithRateLimiter paces every call through r.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) {
		c.limiter = r
	}
}

// WithTimeout sets the per-call transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = f
	}
}

// New creates a client for integration in, authenticating with cred.
func New(in Integration, cred *Credential, opts ...Option) *Client {
	c := &Client{
		integration: in,
		credential:  cred,
		doer:        &http.Client{},
		timeout:     defaultTimeout,
		log:         slog.Default(),
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.integration.BaseURL = strings.TrimRight(c.integration.BaseURL, "/")
	if c.credential == nil {
		c.credential = NewCredential("")
	}
	return c
}

// Service returns the vendor this client talks to.
func (c *Client) Service() domain.Service {
	return c.integration.Service
}

// Credential returns the credential used by this client.
func (c *Client) Credential() *Credential {
	return c.credential
}

// Do runs the pipeline for req and returns the 2xx response. No network
// call is made when the credential is unset.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	svc := c.integration.Service
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	secret, ok := c.credential.Secret()
	if !ok && !c.integration.Public {
		metrics.VendorRequestsTotal.WithLabelValues(string(svc), "missing_credential").Inc()
		return nil, &Error{Service: svc, Kind: ErrMissingCredential}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.VendorRequestsTotal.WithLabelValues(string(svc), "throttled").Inc()
			if errors.Is(err, ErrDailyLimitReached) {
				return nil, &Error{Service: svc, Kind: ErrRateLimited, Err: err}
			}
			return nil, &Error{Service: svc, Kind: ErrTransport, Err: err}
		}
		metrics.VendorDailyUsage.WithLabelValues(string(svc)).Set(float64(c.limiter.DailyCount()))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.build(ctx, req, secret)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", svc, err)
	}

	start := c.nowFunc()
	resp, err := c.doer.Do(httpReq)
	if err != nil {
		c.observe(req, 0, start, "transport_error")
		return nil, &Error{Service: svc, Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(req, resp.StatusCode, start, "transport_error")
		return nil, &Error{Service: svc, Kind: ErrTransport, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := classify(svc, resp.StatusCode, body, req.Resource)
		c.observe(req, resp.StatusCode, start, outcomeLabel(e.Kind))
		return nil, e
	}

	c.observe(req, resp.StatusCode, start, "ok")
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// Send runs the pipeline and discards the response body.
func (c *Client) Send(ctx context.Context, req Request) error {
	_, err := c.Do(ctx, req)
	return err
}

// Call runs the pipeline and decodes the response body against s.
func Call[T any](ctx context.Context, c *Client, req Request, s extract.Schema) (T, error) {
	var zero T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	out, err := extract.Decode[T](string(resp.Body), s)
	if err != nil {
		metrics.VendorRequestsTotal.WithLabelValues(string(c.integration.Service), "invalid_response").Inc()
		return zero, &Error{
			Service: c.integration.Service,
			Kind:    ErrInvalidResponse,
			Status:  resp.Status,
			Err:     err,
		}
	}
	return out, nil
}

func (c *Client) build(ctx context.Context, req Request, secret string) (*http.Request, error) {
	u := c.integration.BaseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	body, contentType, err := req.body()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	for k, v := range c.integration.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)

	if c.integration.Auth != nil && secret != "" {
		c.integration.Auth.Apply(httpReq.Header, secret)
	}
	return httpReq, nil
}

func (c *Client) observe(req Request, status int, start time.Time, outcome string) {
	svc := string(c.integration.Service)
	elapsed := c.nowFunc().Sub(start)

	metrics.VendorRequestsTotal.WithLabelValues(svc, outcome).Inc()
	metrics.VendorRequestDuration.WithLabelValues(svc).Observe(elapsed.Seconds())

	c.log.Debug("vendor request",
		"service", svc,
		"method", req.Method,
		"path", req.Path,
		"status", status,
		"outcome", outcome,
		"duration_ms", elapsed.Milliseconds(),
	)
}

func outcomeLabel(kind error) string {
	switch kind {
	case ErrUnauthorized:
		return "unauthorized"
	case ErrNotFound:
		return "not_found"
	case ErrRateLimited:
		return "rate_limited"
	default:
		return "remote_error"
	}
}
