package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bledden/tinker-voice/tools/dashgen/dashboards"
	"github.com/bledden/tinker-voice/tools/dashgen/rules"
	"github.com/bledden/tinker-voice/tools/dashgen/validate"
)

func TestDefaultConfigValid(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "empty output dir", cfg: Config{OutputDir: "", DashboardEnabled: true}},
		{name: "nothing enabled", cfg: Config{OutputDir: "/tmp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestBuildOverviewDashboard(t *testing.T) {
	t.Parallel()

	dash, err := dashboards.BuildOverview().Build()
	require.NoError(t, err)

	require.NotNil(t, dash.Uid)
	assert.Equal(t, "tv-overview", *dash.Uid)
	require.NotNil(t, dash.Title)
	assert.Equal(t, "Tinker Voice Overview", *dash.Title)

	require.NotNil(t, dash.Templating)
	require.Len(t, dash.Templating.List, 1)
	assert.Equal(t, "datasource", dash.Templating.List[0].Name)

	assert.Len(t, dash.Panels, 6)

	totalPanels := 0
	for _, p := range dash.Panels {
		if p.RowPanel != nil {
			totalPanels += len(p.RowPanel.Panels)
		}
	}
	assert.Equal(t, 18, totalPanels)

	result := validate.Dashboard(dash, KnownMetrics)
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestRecordingRules(t *testing.T) {
	t.Parallel()

	cr := rules.RecordingRules()
	assert.Equal(t, "PrometheusRule", cr.Kind)
	assert.Equal(t, "tv-recording-rules", cr.Metadata.Name)

	require.Len(t, cr.Spec.Groups, 1)
	group := cr.Spec.Groups[0]
	assert.Equal(t, "tv-recording", group.Name)

	want := []string{
		"tv:http_requests:rate5m",
		"tv:http_errors:rate5m",
		"tv:vendor_requests:rate5m",
		"tv:vendor_errors:rate5m",
		"tv:poll_outcomes:rate5m",
		"tv:agent_failures:rate5m",
	}
	require.Len(t, group.Rules, len(want))
	for i, rule := range group.Rules {
		assert.Equal(t, want[i], rule.Record)
		assert.True(t, KnownMetrics[rule.Record], "%s missing from KnownMetrics", rule.Record)
	}

	result := validate.Rules(cr, KnownMetrics)
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)
}

func TestAlertRules(t *testing.T) {
	t.Parallel()

	cr := rules.AlertRules()
	assert.Equal(t, "tv-alerts", cr.Metadata.Name)

	require.Len(t, cr.Spec.Groups, 1)
	group := cr.Spec.Groups[0]

	want := []string{
		"TvDown",
		"TvReadinessDown",
		"TvHighErrorRate",
		"TvVendorErrors",
		"TvVendorDown",
		"TvJobTimeouts",
		"TvAgentFailures",
	}
	require.Len(t, group.Rules, len(want))
	for i, rule := range group.Rules {
		assert.Equal(t, want[i], rule.Alert)
		assert.Equal(t, rule.Alert, rule.Name())
		assert.NotEmpty(t, rule.Annotations["description"], "alert %s missing description", rule.Alert)
	}

	result := validate.Rules(cr, KnownMetrics)
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)
}

func TestValidateExpr(t *testing.T) {
	t.Parallel()

	known := map[string]bool{"tv_http_request_duration_seconds": true, "up": true}

	tests := []struct {
		name    string
		expr    string
		wantErr string
	}{
		{name: "plain metric", expr: `up{job="tinker-voice"}`},
		{
			name: "histogram bucket",
			expr: `histogram_quantile(0.9, sum(rate(tv_http_request_duration_seconds_bucket[5m])) by (le))`,
		},
		{name: "unknown metric", expr: `rate(tv_missing_total[5m])`, wantErr: "tv_missing_total"},
		{name: "syntax error", expr: `sum(rate(up[5m]`, wantErr: "parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validate.Expr(tt.expr, known)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRules_AlertNeedsSeverity(t *testing.T) {
	t.Parallel()

	cr := rules.PrometheusRule{Spec: rules.PrometheusRuleSpec{Groups: []rules.RuleGroup{{
		Name:  "g",
		Rules: []rules.Rule{{Alert: "Bare", Expr: `up == 0`}},
	}}}}

	result := validate.Rules(cr, map[string]bool{"up": true})
	require.False(t, result.Ok())
	assert.Contains(t, result.Errors[0].Error(), "Bare")
}

func TestRun_WritesArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := Config{OutputDir: dir, DashboardEnabled: true, RulesEnabled: true}
	require.NoError(t, run(cfg, false))

	for _, rel := range []string{
		filepath.Join("grafana", "data", "tv-overview.json"),
		filepath.Join("prometheus", "tv-recording-rules.yaml"),
		filepath.Join("prometheus", "tv-alerts.yaml"),
	} {
		data, err := os.ReadFile(filepath.Join(dir, rel))
		require.NoError(t, err, rel)
		assert.NotEmpty(t, data, rel)
	}

	alerts, err := os.ReadFile(filepath.Join(dir, "prometheus", "tv-alerts.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(alerts), generatedHeader)

	var cr rules.PrometheusRule
	require.NoError(t, yaml.Unmarshal(alerts, &cr))
	assert.Equal(t, "tv-alerts", cr.Metadata.Name)
}

func TestRun_ValidateOnlyWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, run(Config{OutputDir: dir, DashboardEnabled: true}, true))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
