package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

const pollDuration = "tv_poll_duration_seconds"

// PollOutcomes shows finished research and training polls by terminal state.
func PollOutcomes() *timeseries.PanelBuilder {
	return series("Job Outcomes", "Finished poll loops per second by kind and terminal state", ThirdWidth).
		WithTarget(PromQuery(`tv:poll_outcomes:rate5m`, "{{kind}} {{state}}", "A")).
		DrawStyle(common.GraphDrawStyleBars)
}

// PollDuration shows how long research and training jobs take to finish.
func PollDuration() *timeseries.PanelBuilder {
	return series("Job Duration", "Wall-clock time from submission to terminal state", ThirdWidth).
		WithTarget(PromQuery(Quantile(0.50, pollDuration, "kind"), "{{kind}} p50", "A")).
		WithTarget(PromQuery(Quantile(0.95, pollDuration, "kind"), "{{kind}} p95", "B")).
		Unit("s").
		Legend(TableLegend("mean", "max"))
}

// PollAttempts shows job status fetches per second.
func PollAttempts() *timeseries.PanelBuilder {
	return series("Status Fetches", "Job status requests per second by kind", ThirdWidth).
		WithTarget(PromQuery(SumRate("tv_poll_attempts_total", "kind"), "{{kind}}", "A")).
		Unit("reqps")
}
