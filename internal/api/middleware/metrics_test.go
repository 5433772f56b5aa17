package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	mw "github.com/donaldgifford/etsy-v3/internal/api/middleware"
	"github.com/donaldgifford/etsy-v3/internal/metrics"
)

func newMeteredEcho() *echo.Echo {
	e := echo.New()
	e.Use(mw.Metrics())
	e.GET("/api/v1/tokens/:profile", func(c echo.Context) error {
		switch c.Param("profile") {
		case "missing":
			return echo.NewHTTPError(http.StatusNotFound, "no such profile")
		case "broken":
			return errors.New("disk on fire")
		}
		return c.JSON(http.StatusOK, map[string]string{"profile": c.Param("profile")})
	})
	e.POST("/api/v1/tokens/:profile/refresh", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

// Serial: the collectors are process-global.
func TestMetricsMiddleware(t *testing.T) {
	e := newMeteredEcho()

	tests := []struct {
		name      string
		method    string
		target    string
		wantRoute string
		wantCode  string
	}{
		{
			name:      "labels by route template",
			method:    http.MethodGet,
			target:    "/api/v1/tokens/shop-a",
			wantRoute: "/api/v1/tokens/:profile",
			wantCode:  "200",
		},
		{
			name:      "http error status",
			method:    http.MethodGet,
			target:    "/api/v1/tokens/missing",
			wantRoute: "/api/v1/tokens/:profile",
			wantCode:  "404",
		},
		{
			name:      "plain error is a 500",
			method:    http.MethodGet,
			target:    "/api/v1/tokens/broken",
			wantRoute: "/api/v1/tokens/:profile",
			wantCode:  "500",
		},
		{
			name:      "post",
			method:    http.MethodPost,
			target:    "/api/v1/tokens/shop-a/refresh",
			wantRoute: "/api/v1/tokens/:profile/refresh",
			wantCode:  "200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := metrics.HTTPRequestsTotal.WithLabelValues(tt.method, tt.wantRoute, tt.wantCode)
			before := ptestutil.ToFloat64(counter)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, http.NoBody))

			assert.Equal(t, tt.wantCode, strconv.Itoa(rec.Code))
			assert.InDelta(t, before+1, ptestutil.ToFloat64(counter), 0)
		})
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	e := newMeteredEcho()
	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before := ptestutil.ToFloat64(counter)

	for _, target := range []string{"/wp-login.php", "/.env"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.InDelta(t, before+2, ptestutil.ToFloat64(counter), 0)
}

func TestMetricsMiddleware_ScrapeNotMetered(t *testing.T) {
	e := newMeteredEcho()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, ptestutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200")))
}

func TestMetricsMiddleware_ProbeGauges(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		gauge     prometheus.Gauge
		wantValue float64
	}{
		{name: "healthz up", path: "/healthz", status: http.StatusOK, gauge: metrics.HealthzUp, wantValue: 1},
		{name: "readyz down", path: "/readyz", status: http.StatusServiceUnavailable, gauge: metrics.ReadyzUp, wantValue: 0},
		{name: "readyz up", path: "/readyz", status: http.StatusOK, gauge: metrics.ReadyzUp, wantValue: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(mw.Metrics())
			e.GET(tt.path, func(c echo.Context) error {
				return c.NoContent(tt.status)
			})

			e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			assert.InDelta(t, tt.wantValue, ptestutil.ToFloat64(tt.gauge), 0)
		})
	}
}
