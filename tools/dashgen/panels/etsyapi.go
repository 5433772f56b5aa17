package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// APIRequestRate graphs Etsy API calls per second by response status.
func APIRequestRate() *timeseries.PanelBuilder {
	return graph("Etsy API Requests", "Etsy resource API calls per second by response status", "reqps",
		series{`etsy:api_requests:rate5m`, "{{status}}"})
}

// APILatency graphs p95 Etsy API latency per operation.
func APILatency() *timeseries.PanelBuilder {
	return graph("Etsy API Latency (p95)", "95th percentile Etsy API call duration by operation", "s",
		series{`histogram_quantile(0.95, sum by (le, operation) (rate(etsy_api_request_duration_seconds_bucket[5m])))`,
			"{{operation}}"}).
		Thresholds(ThresholdsGreenYellowRed(1, 5))
}

// TokenEndpointRate graphs OAuth token endpoint calls by grant type and
// outcome, across the full row.
func TokenEndpointRate() *timeseries.PanelBuilder {
	return graph("Token Endpoint", "OAuth token requests per second by grant type and outcome", "reqps",
		series{`sum by (grant_type, outcome) (rate(etsy_token_requests_total[5m]))`, "{{grant_type}} {{outcome}}"}).
		Span(FullWidth)
}
