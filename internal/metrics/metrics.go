// Package metrics defines Prometheus metrics for the Etsy client and its
// tooling.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "etsy"

// Etsy resource API metrics.
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total Etsy API requests by operation and response status.",
	}, []string{"operation", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of Etsy API requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

// OAuth token endpoint metrics.
var (
	TokenRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_requests_total",
		Help:      "Total token endpoint requests by grant type and outcome.",
	}, []string{"grant_type", "outcome"})

	TokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Scheduled refreshes of stored tokens by outcome.",
	}, []string{"outcome"})

	StoredTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stored_tokens",
		Help:      "Number of token profiles seen by the last refresh sweep.",
	})

	TokenExpirySeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "token_expiry_timestamp_seconds",
		Help:      "Unix time at which the stored access token of a profile expires.",
	}, []string{"profile"})

	RefreshNextRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "refresh_next_run_timestamp_seconds",
		Help:      "Unix time of the next scheduled refresh sweep.",
	})
)

// Keep-alive server metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests served.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of served HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Whether the last /healthz probe succeeded (1) or failed (0).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Whether the last /readyz probe succeeded (1) or failed (0).",
	})
)

// Notification metrics.
var (
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of refresh failure notifications by outcome.",
	}, []string{"outcome"})

	NotificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of webhook notification deliveries in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)
