package main

import "errors"

// KnownMetrics is the set of metric names exported by etsyctl plus the
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// Keep-alive HTTP metrics.
	"etsy_http_request_duration_seconds_bucket": true,
	"etsy_http_requests_total":                  true,

	// Health metrics.
	"etsy_healthz_up": true,
	"etsy_readyz_up":  true,

	// Etsy API metrics.
	"etsy_api_requests_total":                  true,
	"etsy_api_request_duration_seconds_bucket": true,
	"etsy_token_requests_total":                true,

	// Refresher metrics.
	"etsy_token_refreshes_total":              true,
	"etsy_stored_tokens":                      true,
	"etsy_token_expiry_timestamp_seconds":     true,
	"etsy_refresh_next_run_timestamp_seconds": true,

	// Notification metrics.
	"etsy_notifications_total":                  true,
	"etsy_notification_duration_seconds_bucket": true,

	// Recording rules.
	"etsy:http_requests:rate5m":          true,
	"etsy:http_errors:rate5m":            true,
	"etsy:api_requests:rate5m":           true,
	"etsy:api_errors:rate5m":             true,
	"etsy:token_refresh_failures:rate5m": true,
	"etsy:token_expires_in:seconds":      true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
	// PlainRules writes Prometheus rule files instead of PrometheusRule CRs.
	PlainRules bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
