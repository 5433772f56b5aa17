package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// NotificationLatency graphs the p95 Discord webhook latency.
func NotificationLatency() *timeseries.PanelBuilder {
	return graph("Notification Latency (p95)", "95th percentile Discord webhook latency", "s",
		series{`histogram_quantile(0.95, sum(rate(etsy_notification_duration_seconds_bucket[5m])) by (le))`, "p95"}).
		Thresholds(ThresholdsGreenYellowRed(1, 5))
}

// NotificationFailures counts refresh failure alerts that were not delivered
// in the last 24 hours.
func NotificationFailures() *stat.PanelBuilder {
	return single("Notification Failures (24h)",
		"Refresh failure alerts that could not be delivered in the last 24 hours",
		`sum(increase(`+jobSelector("etsy_notifications_total", `outcome="failed"`)+`[24h]))`).
		Height(TSHeight).
		Span(TSWidth).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
