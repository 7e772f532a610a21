package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// AgentCallRate shows reasoning agent calls by agent and outcome.
func AgentCallRate() *timeseries.PanelBuilder {
	return series("Agent Calls", "Agent calls per second by agent and outcome", ThirdWidth).
		WithTarget(PromQuery(SumRate("tv_agent_calls_total", "agent", "outcome"), "{{agent}} {{outcome}}", "A")).
		Unit("reqps")
}

// AgentLatency shows p95 agent latency.
func AgentLatency() *timeseries.PanelBuilder {
	return series("Agent Latency (p95)", "95th percentile LLM round trip per agent", ThirdWidth).
		WithTarget(PromQuery(Quantile(0.95, "tv_agent_duration_seconds", "agent"), "{{agent}}", "A")).
		Unit("s").
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenYellowRed(10, 30))
}

// TokenRate shows LLM token consumption.
func TokenRate() *timeseries.PanelBuilder {
	return series("LLM Tokens", "Tokens per second by backend and direction", ThirdWidth).
		WithTarget(PromQuery(SumRate("tv_llm_tokens_total", "backend", "direction"), "{{backend}} {{direction}}", "A")).
		FillOpacity(30).
		LineWidth(1)
}
