package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RequestRate graphs keep-alive HTTP requests per second.
func RequestRate() *timeseries.PanelBuilder {
	return graph("Request Rate", "Keep-alive server requests per second", "reqps",
		series{`etsy:http_requests:rate5m`, "req/s"})
}

// LatencyPercentiles graphs p50, p95 and p99 keep-alive request latency.
func LatencyPercentiles() *timeseries.PanelBuilder {
	quantile := func(q string) string {
		return `histogram_quantile(` + q + `, sum(rate(` +
			jobSelector("etsy_http_request_duration_seconds_bucket") + `[5m])) by (le))`
	}
	return graph("Latency Percentiles", "Keep-alive request duration percentiles", "s",
		series{quantile("0.50"), "p50"},
		series{quantile("0.95"), "p95"},
		series{quantile("0.99"), "p99"})
}

// ErrorRate graphs keep-alive 5xx responses as a percentage of requests.
func ErrorRate() *timeseries.PanelBuilder {
	return graph("Error Rate %", "Keep-alive 5xx responses as percentage of total requests", "percent",
		series{`etsy:http_errors:rate5m / etsy:http_requests:rate5m * 100`, "error %"}).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}
