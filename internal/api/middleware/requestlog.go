package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// probePaths are logged once on their first success. Failures are always
// logged at WARN.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs one line per request. The
// X-Request-ID header is honored or minted, echoed back, and stored in the
// echo context as request_id. Server errors log at ERROR.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu       sync.Mutex
		probesOK = map[string]bool{}
	)

	// shouldLog records a probe result and reports whether it is worth a line.
	shouldLog := func(path string, status int) bool {
		if _, ok := probePaths[path]; !ok {
			return true
		}
		if status < 200 || status >= 300 {
			return true
		}

		mu.Lock()
		defer mu.Unlock()
		if probesOK[path] {
			return false
		}
		probesOK[path] = true
		return true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := statusOf(c, err)
			if !shouldLog(path, status) {
				return err
			}

			attrs := []any{
				"method", c.Request().Method,
				"path", path,
				"route", routeOf(c, status),
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}

			level := slog.LevelInfo
			switch _, probe := probePaths[path]; {
			case status >= 500:
				level = slog.LevelError
			case probe && status >= 300:
				level = slog.LevelWarn
			}
			if err != nil {
				attrs = append(attrs, "error", err)
			}

			log.Log(c.Request().Context(), level, "request", attrs...)

			return err
		}
	}
}
