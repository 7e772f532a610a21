package rules

// AlertRules returns the operational alerts for tinker-voice.
func AlertRules() PrometheusRule {
	return newPrometheusRule("tv-alerts", "tv-alerts",
		alert("TvDown", `absent(up{job="tinker-voice"})`, "2m", SeverityCritical,
			"tinker-voice is down",
			"The tinker-voice job has been absent for more than 2 minutes."),
		alert("TvReadinessDown", `tv_readyz_up == 0`, "5m", SeverityWarning,
			"tinker-voice has a failing vendor key",
			"The readiness probe reports that a configured vendor key failed its last test."),
		alert("TvHighErrorRate", `tv:http_errors:rate5m / tv:http_requests:rate5m > 0.05`, "5m", SeverityWarning,
			"High HTTP error rate on tinker-voice",
			"More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes."),
		alert("TvVendorErrors", `tv:vendor_errors:rate5m / tv:vendor_requests:rate5m > 0.2`, "10m", SeverityWarning,
			"Vendor {{ $labels.service }} is failing",
			"More than 20% of calls to {{ $labels.service }} have failed for 10 minutes."),
		alert("TvVendorDown", `tv_vendor_up == 0`, "10m", SeverityWarning,
			"Vendor {{ $labels.service }} health check failing",
			"The background key check for {{ $labels.service }} has failed for 10 minutes."),
		alert("TvJobTimeouts", `sum(increase(tv_poll_outcomes_total{state="timed_out"}[30m])) by (kind) > 0`, "",
			SeverityInfo,
			"{{ $labels.kind }} jobs are timing out",
			"At least one {{ $labels.kind }} job exceeded its poll deadline in the last 30 minutes."),
		alert("TvAgentFailures", `tv:agent_failures:rate5m > 0.05`, "10m", SeverityWarning,
			"Agent {{ $labels.agent }} is failing",
			"The {{ $labels.agent }} agent has been returning errors or invalid output for 10 minutes."),
	)
}
