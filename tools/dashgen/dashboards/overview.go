// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/bledden/tinker-voice/tools/dashgen/panels"
)

// BuildOverview constructs the tinker-voice overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Tinker Voice Overview").
		Uid("tv-overview").
		Tags([]string{"tv", "tinker-voice"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.VendorsUpStat()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	b.WithRow(dashboard.NewRowBuilder("Vendors").
		WithPanel(panels.VendorCallRate()).
		WithPanel(panels.VendorErrorRatio()).
		WithPanel(panels.VendorLatency()).
		WithPanel(panels.VendorDailyUsage()))

	b.WithRow(dashboard.NewRowBuilder("Research & Training Jobs").
		WithPanel(panels.PollOutcomes()).
		WithPanel(panels.PollDuration()).
		WithPanel(panels.PollAttempts()))

	b.WithRow(dashboard.NewRowBuilder("Agents").
		WithPanel(panels.AgentCallRate()).
		WithPanel(panels.AgentLatency()).
		WithPanel(panels.TokenRate()))

	b.WithRow(dashboard.NewRowBuilder("Datasets").
		WithPanel(panels.DatasetRecords()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
