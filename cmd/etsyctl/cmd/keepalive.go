package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/etsy-v3/internal/api"
	"github.com/donaldgifford/etsy-v3/internal/notify"
	"github.com/donaldgifford/etsy-v3/internal/refresher"
)

const shutdownTimeout = 10 * time.Second

func keepaliveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keepalive",
		Short: "Refresh stored tokens on a schedule and serve their status over HTTP",
		Long: `Runs until interrupted. Every refresh.interval, tokens expiring within
refresh.buffer are refreshed and written back to the store. The HTTP server
exposes /healthz, /readyz, /metrics and the token API under /api/v1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, func(a *app) error { return runKeepalive(ctx, a) })
		},
	}
}

func runKeepalive(ctx context.Context, a *app) error {
	r, err := refresher.New(a.store, a.authorizer(),
		refresher.WithBuffer(a.cfg.Refresh.Buffer),
		refresher.WithLogger(a.log),
		refresher.WithNotifier(a.notifier()),
	)
	if err != nil {
		return fmt.Errorf("creating refresher: %w", err)
	}

	sched, err := refresher.NewScheduler(r, a.cfg.Refresh.Interval, a.log)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	e := api.NewServer(api.ServerDeps{
		Store:     a.store,
		Refresher: r,
		Logger:    a.log,
		Version:   rootCmd.Version,
	})
	e.Server.ReadTimeout = a.cfg.Server.ReadTimeout
	e.Server.WriteTimeout = a.cfg.Server.WriteTimeout

	addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
	a.log.Info("starting keepalive server", "addr", addr,
		"interval", a.cfg.Refresh.Interval, "buffer", a.cfg.Refresh.Buffer)

	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	if _, err := r.RunOnce(ctx); err != nil {
		a.log.Warn("initial refresh had failures", "error", err)
	}
	sched.Start()

	select {
	case <-ctx.Done():
		a.log.Info("shutting down keepalive server")
	case err := <-serverErr:
		<-sched.Stop().Done()
		return fmt.Errorf("serving %s: %w", addr, err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	<-sched.Stop().Done()

	a.log.Info("keepalive stopped")
	return nil
}

func (a *app) notifier() notify.Notifier {
	if hook := a.cfg.Notify.DiscordWebhookURL; hook != "" {
		a.log.Info("refresh failures will be posted to discord")
		return notify.NewDiscordNotifier(hook)
	}
	return notify.NewNoOpNotifier(a.log)
}
