// Package api assembles the keep-alive HTTP server: probes, metrics, the
// token status API and its OpenAPI document.
package api

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/etsy-v3/api/openapi"
	"github.com/donaldgifford/etsy-v3/internal/api/handlers"
	"github.com/donaldgifford/etsy-v3/internal/api/middleware"
	"github.com/donaldgifford/etsy-v3/internal/store"
)

// ServerDeps are the collaborators the keep-alive server routes to.
type ServerDeps struct {
	Store     store.TokenStore
	Refresher handlers.ProfileRefresher
	Logger    *slog.Logger
	Version   string
}

// NewServer returns an Echo instance with every keep-alive route registered.
// It does not listen.
func NewServer(d ServerDeps) *echo.Echo {
	log := d.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	version := d.Version
	if version == "" {
		version = "dev"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(d.Store, version, log)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	cfg := huma.DefaultConfig("etsyctl keepalive", version)
	cfg.Info.Description = "Status and manual refresh of stored Etsy OAuth tokens."
	cfg.DocsPath = ""
	humaAPI := humaecho.New(e, cfg)
	handlers.RegisterTokenRoutes(humaAPI, handlers.NewTokensHandler(d.Store, d.Refresher))

	openapi.RegisterRoutes(e)

	return e
}
