package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// TokenTimeLeft graphs seconds until each profile's access token expires.
// A healthy sawtooth never crosses zero.
func TokenTimeLeft() *timeseries.PanelBuilder {
	return graph("Access Token Time Left", "Seconds until the stored access token of each profile expires", "s",
		series{`etsy:token_expires_in:seconds`, "{{profile}}"}).
		FillOpacity(0).
		Legend(TableLegend("min", "last")).
		Thresholds(ThresholdsRedYellowGreen(0, 600))
}

// RefreshOutcomes graphs scheduled refreshes per hour by outcome.
func RefreshOutcomes() *timeseries.PanelBuilder {
	return graph("Refresh Outcomes", "Scheduled token refreshes per hour by outcome", "",
		series{`sum by (outcome) (increase(` + jobSelector("etsy_token_refreshes_total") + `[1h]))`, "{{outcome}}"}).
		FillOpacity(20).
		LineWidth(1).
		Legend(TableLegend("sum")).
		DrawStyle(common.GraphDrawStyleBars)
}

// NextSweepStat counts down to the next scheduled refresh sweep.
func NextSweepStat() *stat.PanelBuilder {
	return single("Next Sweep", "Time until the next scheduled refresh sweep",
		`etsy_refresh_next_run_timestamp_seconds - time()`).
		Unit("s").
		Thresholds(ThresholdsRedGreen(0))
}
