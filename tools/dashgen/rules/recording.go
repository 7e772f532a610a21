package rules

// RecordingRules returns the pre-computed rates used by the dashboard and
// alert rules.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("tv-recording-rules", "tv-recording",
		record("tv:http_requests:rate5m", `sum(rate(tv_http_requests_total[5m]))`),
		record("tv:http_errors:rate5m", `sum(rate(tv_http_requests_total{status=~"5.."}[5m]))`),
		record("tv:vendor_requests:rate5m", `sum(rate(tv_vendor_requests_total[5m])) by (service)`),
		record("tv:vendor_errors:rate5m", `sum(rate(tv_vendor_requests_total{outcome!="ok"}[5m])) by (service)`),
		record("tv:poll_outcomes:rate5m", `sum(rate(tv_poll_outcomes_total[5m])) by (kind, state)`),
		record("tv:agent_failures:rate5m", `sum(rate(tv_agent_calls_total{outcome!="ok"}[5m])) by (agent)`),
	)
}
