// Package handlers implements HTTP handlers for the keep-alive server.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/etsy-v3/internal/store"
)

const readyTimeout = 2 * time.Second

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadyResponse is the body of /readyz. Checks maps each dependency to "ok"
// or the reason it failed.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store   store.TokenStore
	log     *slog.Logger
	version string
	started time.Time
}

// NewHealthHandler creates a HealthHandler. A nil logger discards.
func NewHealthHandler(s store.TokenStore, version string, log *slog.Logger) *HealthHandler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &HealthHandler{store: s, log: log, version: version, started: time.Now()}
}

// Healthz returns 200 while the process is running.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	})
}

// Readyz returns 200 when the token store answers a ping within
// readyTimeout, 503 otherwise.
func (h *HealthHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("token store not ready", "error", err)
		return c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status: "unavailable",
			Checks: map[string]string{"token_store": err.Error()},
		})
	}
	return c.JSON(http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: map[string]string{"token_store": "ok"},
	})
}
