package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

const httpDuration = "tv_http_request_duration_seconds"

// RequestRate shows API requests per second.
func RequestRate() *timeseries.PanelBuilder {
	return series("Request Rate", "HTTP requests per second", ThirdWidth).
		WithTarget(PromQuery(`tv:http_requests:rate5m`, "req/s", "A")).
		Unit("reqps").
		Legend(TableLegend("mean", "max"))
}

// LatencyPercentiles shows p50, p95, and p99 API latency.
func LatencyPercentiles() *timeseries.PanelBuilder {
	return series("Latency Percentiles", "HTTP request duration percentiles", ThirdWidth).
		WithTarget(PromQuery(Quantile(0.50, httpDuration), "p50", "A")).
		WithTarget(PromQuery(Quantile(0.95, httpDuration), "p95", "B")).
		WithTarget(PromQuery(Quantile(0.99, httpDuration), "p99", "C")).
		Unit("s").
		Legend(TableLegend("mean", "max"))
}

// ErrorRate shows 5xx responses as a percentage of all requests. Long
// research and training waits that time out surface here as 504s.
func ErrorRate() *timeseries.PanelBuilder {
	return series("Error Rate %", "HTTP 5xx responses as a percentage of all requests", ThirdWidth).
		WithTarget(PromQuery(`tv:http_errors:rate5m / tv:http_requests:rate5m * 100`, "error %", "A")).
		Unit("percent").
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}
