package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

// HealthzStat shows whether the liveness probe passes.
func HealthzStat() *stat.PanelBuilder {
	return upDown("Healthz", "Liveness probe (1 = ok, 0 = failing)", `etsy_healthz_up`)
}

// ReadyzStat shows whether the token store answers.
func ReadyzStat() *stat.PanelBuilder {
	return upDown("Readyz", "Token store reachable (1 = ready, 0 = not ready)", `etsy_readyz_up`)
}

// StoredTokensStat shows the number of stored profiles.
func StoredTokensStat() *stat.PanelBuilder {
	return single("Stored Profiles", "Token profiles seen by the last refresh sweep", `etsy_stored_tokens`).
		Thresholds(ThresholdsRedGreen(1)).
		GraphMode(common.BigValueGraphModeArea)
}

// UptimeStat shows time since the keep-alive process started.
func UptimeStat() *stat.PanelBuilder {
	return single("Uptime", "Time since process start",
		`time() - `+jobSelector("process_start_time_seconds")).
		Unit("s").
		Thresholds(ThresholdsGreenOnly())
}
