package main

import "errors"

// KnownMetrics is the set of metric names exported by tinker-voice plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"tv_http_request_duration_seconds": true,
	"tv_http_requests_total":           true,

	// Health metrics.
	"tv_healthz_up": true,
	"tv_readyz_up":  true,

	// Vendor metrics.
	"tv_vendor_requests_total":           true,
	"tv_vendor_request_duration_seconds": true,
	"tv_vendor_daily_usage":              true,
	"tv_vendor_up":                       true,

	// Poller metrics.
	"tv_poll_attempts_total":   true,
	"tv_poll_outcomes_total":   true,
	"tv_poll_duration_seconds": true,

	// Agent metrics.
	"tv_agent_calls_total":      true,
	"tv_agent_duration_seconds": true,
	"tv_llm_tokens_total":       true,

	// Dataset metrics.
	"tv_dataset_records_total": true,

	// Recording rules.
	"tv:http_requests:rate5m":   true,
	"tv:http_errors:rate5m":     true,
	"tv:vendor_requests:rate5m": true,
	"tv:vendor_errors:rate5m":   true,
	"tv:poll_outcomes:rate5m":   true,
	"tv:agent_failures:rate5m":  true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
