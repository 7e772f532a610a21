package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// HealthChecker periodically tests every configured vendor key.
type HealthChecker struct {
	cron    *cron.Cron
	keys    *Keys
	timeout time.Duration
	log     *slog.Logger
}

// NewHealthChecker registers a key test on the given interval. Each round
// is bounded by timeout.
func NewHealthChecker(
	keys *Keys,
	interval time.Duration,
	timeout time.Duration,
	log *slog.Logger,
) (*HealthChecker, error) {
	c := cron.New()

	h := &HealthChecker{
		cron:    c,
		keys:    keys,
		timeout: timeout,
		log:     log,
	}

	if _, err := c.AddFunc("@every "+interval.String(), h.RunOnce); err != nil {
		return nil, err
	}

	return h, nil
}

// Start begins running scheduled checks.
func (h *HealthChecker) Start() {
	h.log.Info("health checker started")
	h.cron.Start()
}

// Stop stops the checker, returning a context done when a running check
// finishes.
func (h *HealthChecker) Stop() context.Context {
	h.log.Info("health checker stopping")
	return h.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (h *HealthChecker) Entries() []cron.Entry {
	return h.cron.Entries()
}

// RunOnce tests every configured key now.
func (h *HealthChecker) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	results := h.keys.TestAll(ctx)
	healthy := 0
	for _, st := range results {
		if st.Valid != nil && *st.Valid {
			healthy++
		}
	}
	h.log.Info("vendor health check finished", "tested", len(results), "healthy", healthy)
}
