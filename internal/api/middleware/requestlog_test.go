package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logStep struct {
	path    string
	status  int
	err     error
	logged  bool
	contain []string
}

func TestRequestLog_Sequences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		steps []logStep
	}{
		{
			name: "api requests always logged",
			steps: []logStep{
				{path: "/api/v1/tokens", status: http.StatusOK, logged: true,
					contain: []string{"method=GET", "path=/api/v1/tokens", "status=200", "duration_ms=", "request_id="}},
				{path: "/api/v1/tokens", status: http.StatusOK, logged: true},
			},
		},
		{
			name: "healthy probe logged once",
			steps: []logStep{
				{path: "/healthz", status: http.StatusOK, logged: true, contain: []string{"level=INFO"}},
				{path: "/healthz", status: http.StatusOK},
				{path: "/healthz", status: http.StatusOK},
			},
		},
		{
			name: "probe failures always logged",
			steps: []logStep{
				{path: "/readyz", status: http.StatusOK, logged: true},
				{path: "/readyz", status: http.StatusOK},
				{path: "/readyz", status: http.StatusServiceUnavailable, logged: true, contain: []string{"level=ERROR", "status=503"}},
				{path: "/readyz", status: http.StatusServiceUnavailable, logged: true},
			},
		},
		{
			name: "not ready probe warns",
			steps: []logStep{
				{path: "/readyz", status: http.StatusTemporaryRedirect, logged: true, contain: []string{"level=WARN"}},
			},
		},
		{
			name: "handler error logged with status",
			steps: []logStep{
				{path: "/api/v1/tokens/x", err: echo.NewHTTPError(http.StatusNotFound), logged: true,
					contain: []string{"status=404", "error="}},
				{path: "/api/v1/tokens/y", err: errors.New("boom"), logged: true,
					contain: []string{"status=500", "level=ERROR", "error=boom"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			e := echo.New()

			var step logStep
			handler := RequestLog(slog.New(slog.NewTextHandler(&buf, nil)))(func(c echo.Context) error {
				if step.err != nil {
					return step.err
				}
				return c.NoContent(step.status)
			})

			for i, s := range tt.steps {
				step = s
				before := buf.Len()

				req := httptest.NewRequest(http.MethodGet, s.path, http.NoBody)
				err := handler(e.NewContext(req, httptest.NewRecorder()))
				require.ErrorIs(t, err, s.err)

				line := buf.String()[before:]
				assert.Equal(t, s.logged, line != "", "step %d logged", i)
				for _, want := range s.contain {
					assert.Contains(t, line, want, "step %d", i)
				}
			}
		})
	}
}

func TestRequestLog_RequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provided string
	}{
		{name: "generated"},
		{name: "propagated", provided: "custom-req-id-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			req := httptest.NewRequest(http.MethodPost, "/api/v1/tokens/a/refresh", http.NoBody)
			if tt.provided != "" {
				req.Header.Set(requestIDHeader, tt.provided)
			}
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)

			err := RequestLog(slog.New(slog.NewTextHandler(&buf, nil)))(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)
			require.NoError(t, err)

			id := rec.Header().Get(requestIDHeader)
			require.NotEmpty(t, id)
			assert.Equal(t, id, c.Get("request_id"))
			assert.True(t, strings.Contains(buf.String(), "request_id="+id))
			if tt.provided != "" {
				assert.Equal(t, tt.provided, id)
			}
		})
	}
}
