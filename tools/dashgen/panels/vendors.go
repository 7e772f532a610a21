package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// VendorCallRate shows outbound vendor calls per second by service.
func VendorCallRate() *timeseries.PanelBuilder {
	return series("Vendor Call Rate", "Vendor API calls per second by service", HalfWidth).
		WithTarget(PromQuery(`tv:vendor_requests:rate5m`, "{{service}}", "A")).
		Unit("reqps").
		Legend(TableLegend("mean", "max"))
}

// VendorErrorRatio shows the share of vendor calls that did not succeed.
func VendorErrorRatio() *timeseries.PanelBuilder {
	return series("Vendor Error %",
		"Failed vendor calls (auth, not found, throttled, remote, transport) as a percentage", HalfWidth).
		WithTarget(PromQuery(`tv:vendor_errors:rate5m / tv:vendor_requests:rate5m * 100`, "{{service}}", "A")).
		Unit("percent").
		Thresholds(ThresholdsGreenYellowRed(5, 20))
}

// VendorLatency shows p95 vendor call latency by service.
func VendorLatency() *timeseries.PanelBuilder {
	return series("Vendor Latency (p95)", "95th percentile vendor API call duration by service", HalfWidth).
		WithTarget(PromQuery(Quantile(0.95, "tv_vendor_request_duration_seconds", "service"), "{{service}}", "A")).
		Unit("s").
		Legend(TableLegend("mean", "max"))
}

// VendorDailyUsage shows each vendor's call count in the rolling 24h window
// enforced by the daily limiter.
func VendorDailyUsage() *timeseries.PanelBuilder {
	return series("Vendor Daily Usage", "Vendor calls within the rolling 24-hour window", HalfWidth).
		WithTarget(PromQuery(Selector("tv_vendor_daily_usage"), "{{service}}", "A"))
}
