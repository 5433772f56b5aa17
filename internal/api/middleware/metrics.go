// Package middleware provides Echo middleware for the keep-alive server.
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/etsy-v3/internal/metrics"
)

// probeGauges maps the probe routes to their up/down gauge. Probes and
// scrapes are kept out of the request histogram.
var probeGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

func unmetered(route string) bool {
	return route == "/metrics" || route == "/openapi.json" || strings.HasPrefix(route, "/swagger")
}

// Metrics returns Echo middleware that records request count and latency
// by method, route template and status.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := statusOf(c, err)
			route := routeOf(c, status)

			if gauge, ok := probeGauges[route]; ok {
				gauge.Set(boolGauge(status >= 200 && status < 300))
				return err
			}
			if unmetered(route) {
				return err
			}

			labels := []string{c.Request().Method, route, strconv.Itoa(status)}
			metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()

			return err
		}
	}
}

func boolGauge(up bool) float64 {
	if up {
		return 1
	}
	return 0
}
