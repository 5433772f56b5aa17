// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/etsy-v3/tools/dashgen/panels"
)

// UID is the dashboard uid, also used as the output file name.
const UID = "etsy-keepalive"

// BuildOverview constructs the keep-alive dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Etsy Token Keep-Alive").
		Uid(UID).
		Tags([]string{"etsy", "oauth", "keepalive"}).
		Refresh("1m").
		Time("now-24h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.StoredTokensStat()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("Tokens").
		WithPanel(panels.TokenTimeLeft()).
		WithPanel(panels.RefreshOutcomes()).
		WithPanel(panels.NextSweepStat()))

	b.WithRow(dashboard.NewRowBuilder("Etsy API").
		WithPanel(panels.APIRequestRate()).
		WithPanel(panels.APILatency()).
		WithPanel(panels.TokenEndpointRate()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
