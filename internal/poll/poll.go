// Package poll drives asynchronous remote jobs to a terminal status by
// re-fetching their status with bounded exponential backoff.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bledden/tinker-voice/internal/metrics"
)

// Poll errors.
var (
	ErrTimedOut     = errors.New("poll timed out")
	ErrRemoteFailed = errors.New("remote job failed")
)

// Handle is the opaque identifier returned when a job is submitted.
type Handle string

// Status is the vendor-neutral status of a remote job.
type Status string

// Status constants. Completed and Failed are terminal.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s ends a poll loop.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// State is the state of a poll loop.
type State string

// State constants.
const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Snapshot is one observed job status. Result is meaningful when Status is
// StatusCompleted and Reason when it is StatusFailed.
type Snapshot[R any] struct {
	Status Status
	Result R
	Reason string
}

// FetchFunc retrieves the current status of the job identified by h.
type FetchFunc[R any] func(ctx context.Context, h Handle) (Snapshot[R], error)

// Transition records a poll loop moving between states.
type Transition struct {
	Handle  Handle
	From    State
	To      State
	Attempt int
}

// FailedError reports a job the remote service marked as failed.
type FailedError struct {
	Handle Handle
	Reason string
}

func (e *FailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("job %s: %v", e.Handle, ErrRemoteFailed)
	}
	return fmt.Sprintf("job %s: %v: %s", e.Handle, ErrRemoteFailed, e.Reason)
}

// Unwrap returns ErrRemoteFailed.
func (e *FailedError) Unwrap() error {
	return ErrRemoteFailed
}

// TimeoutError reports a job that did not reach a terminal status within
// the policy bounds. LastErr holds the last retryable fetch error, if any.
type TimeoutError struct {
	Handle   Handle
	Attempts int
	Elapsed  time.Duration
	LastErr  error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("job %s: %v after %d attempts (%s)",
		e.Handle, ErrTimedOut, e.Attempts, e.Elapsed.Round(time.Millisecond))
	if e.LastErr != nil {
		msg += ": last error: " + e.LastErr.Error()
	}
	return msg
}

// Unwrap exposes ErrTimedOut and the last fetch error.
func (e *TimeoutError) Unwrap() []error {
	if e.LastErr == nil {
		return []error{ErrTimedOut}
	}
	return []error{ErrTimedOut, e.LastErr}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Poller runs poll loops. It performs no transport I/O itself; status
// fetches are injected per call.
type Poller struct {
	name      string
	sleep     SleepFunc
	nowFunc   func() time.Time
	retryable func(error) bool
	observe   func(Transition)
	log       *slog.Logger
}

// Option configures the Poller.
type Option func(*Poller)

// WithName labels the poller's logs and metrics.
func WithName(name string) Option {
	return func(p *Poller) {
		p.name = name
	}
}

// WithSleep overrides how the poller waits between fetches.
func WithSleep(f SleepFunc) Option {
	return func(p *Poller) {
		p.sleep = f
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(p *Poller) {
		p.nowFunc = f
	}
}

// WithRetryable sets which fetch errors are retried while attempts remain.
// By default no fetch error is retried.
func WithRetryable(f func(error) bool) Option {
	return func(p *Poller) {
		p.retryable = f
	}
}

// WithObserver registers a callback for every state transition.
func WithObserver(f func(Transition)) Option {
	return func(p *Poller) {
		p.observe = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		p.log = l
	}
}

// New creates a Poller.
func New(opts ...Option) *Poller {
	p := &Poller{
		name:      "job",
		sleep:     sleepContext,
		nowFunc:   time.Now,
		retryable: func(error) bool { return false },
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll fetches the status of h until it is terminal or the policy is
// exhausted. The first fetch happens immediately. Fetches are sequential
// and the delay before each re-fetch follows policy.Next. Cancelling ctx
// stops the loop with ctx's error.
func Poll[R any](
	ctx context.Context,
	p *Poller,
	h Handle,
	fetch FetchFunc[R],
	policy Policy,
) (R, error) {
	var zero R
	if err := policy.Validate(); err != nil {
		return zero, err
	}

	start := p.nowFunc()
	delay := policy.InitialDelay
	state := StateSubmitted
	attempts := 0
	var lastErr error

	move := func(to State) {
		if p.observe != nil {
			p.observe(Transition{Handle: h, From: state, To: to, Attempt: attempts})
		}
		state = to
	}
	finish := func(to State) {
		move(to)
		metrics.PollOutcomesTotal.WithLabelValues(p.name, string(to)).Inc()
		metrics.PollDuration.WithLabelValues(p.name).Observe(p.nowFunc().Sub(start).Seconds())
	}

	move(StatePolling)

	for {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("polling %s %s: %w", p.name, h, err)
		}

		attempts++
		metrics.PollAttemptsTotal.WithLabelValues(p.name).Inc()

		snap, err := fetchOnce(ctx, h, fetch, policy.FetchTimeout)
		switch {
		case err != nil && ctx.Err() != nil:
			return zero, fmt.Errorf("polling %s %s: %w", p.name, h, ctx.Err())
		case err != nil && !p.retryable(err):
			return zero, fmt.Errorf("polling %s %s: %w", p.name, h, err)
		case err != nil:
			lastErr = err
			p.log.Warn("poll fetch failed, will retry",
				"kind", p.name, "handle", h, "attempt", attempts,
				"delay_ms", delay.Milliseconds(), "error", err)
		default:
			lastErr = nil
			p.log.Debug("poll status",
				"kind", p.name, "handle", h, "attempt", attempts,
				"status", snap.Status, "delay_ms", delay.Milliseconds())

			switch snap.Status {
			case StatusCompleted:
				finish(StateCompleted)
				return snap.Result, nil
			case StatusFailed:
				finish(StateFailed)
				return zero, &FailedError{Handle: h, Reason: snap.Reason}
			}
		}

		elapsed := p.nowFunc().Sub(start)
		if exhausted(policy, attempts, elapsed+delay) {
			finish(StateTimedOut)
			p.log.Warn("poll timed out",
				"kind", p.name, "handle", h, "attempt", attempts, "elapsed_ms", elapsed.Milliseconds())
			return zero, &TimeoutError{Handle: h, Attempts: attempts, Elapsed: elapsed, LastErr: lastErr}
		}

		if err := p.sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("polling %s %s: %w", p.name, h, err)
		}
		delay = policy.Next(delay)
	}
}

func fetchOnce[R any](
	ctx context.Context,
	h Handle,
	fetch FetchFunc[R],
	timeout time.Duration,
) (Snapshot[R], error) {
	if timeout <= 0 {
		return fetch(ctx, h)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fetch(ctx, h)
}

// exhausted reports whether another fetch would exceed the policy bounds.
// next is the elapsed time at which that fetch would happen.
func exhausted(p Policy, attempts int, next time.Duration) bool {
	if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
		return true
	}
	return p.MaxElapsed > 0 && next > p.MaxElapsed
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
