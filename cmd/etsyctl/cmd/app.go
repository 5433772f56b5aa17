package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/viper"

	"github.com/donaldgifford/etsy-v3/internal/config"
	"github.com/donaldgifford/etsy-v3/internal/store"
	"github.com/donaldgifford/etsy-v3/internal/telemetry"
	"github.com/donaldgifford/etsy-v3/pkg/etsy"
	"github.com/donaldgifford/etsy-v3/pkg/logger"
)

// app bundles what every command needs: config, logger and the token store.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	store    store.TokenStore
	shutdown telemetry.ShutdownFunc
}

// loadConfig reads --config when given, otherwise starts from defaults, then
// applies flag and environment overrides.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if v := viper.GetString("client-id"); v != "" {
		cfg.Etsy.ClientID = v
	}
	if v := viper.GetString("client-secret"); v != "" {
		cfg.Etsy.ClientSecret = v
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := viper.GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	shutdown, err := telemetry.Setup(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}

	s, err := store.Open(ctx, cfg.Store.Backend, cfg.Store.File.Path,
		cfg.Store.Postgres.DSN, cfg.Store.Postgres.PoolSize)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("opening token store: %w", err)
	}

	log.Debug("token store opened", "backend", cfg.Store.Backend)

	return &app{cfg: cfg, log: log, store: s, shutdown: shutdown}, nil
}

func (a *app) Close(ctx context.Context) {
	a.store.Close()
	if err := a.shutdown(ctx); err != nil {
		a.log.Warn("flushing telemetry", "error", err)
	}
}

func (a *app) authorizer(opts ...etsy.AuthOption) *etsy.Authorizer {
	creds := etsy.Credentials{
		ClientID:     a.cfg.Etsy.ClientID,
		ClientSecret: a.cfg.Etsy.ClientSecret,
		RedirectURI:  a.cfg.Etsy.RedirectURI,
		Scopes:       a.cfg.Etsy.Scopes,
	}
	opts = append([]etsy.AuthOption{
		etsy.WithAuthURL(a.cfg.Etsy.AuthURL),
		etsy.WithTokenURL(a.cfg.Etsy.TokenURL),
		etsy.WithAuthLogger(a.log),
	}, opts...)
	return etsy.NewAuthorizer(creds, opts...)
}

// saveToken stores tok under the given profile.
func (a *app) saveToken(ctx context.Context, profile string, tok *etsy.Token) error {
	if err := a.store.Save(ctx, &store.Record{Profile: profile, Token: *tok}); err != nil {
		return fmt.Errorf("saving token for profile %q: %w", profile, err)
	}
	return nil
}

// client builds a resource client on the stored token of profile. Refreshed
// tokens are written back to the store.
func (a *app) client(ctx context.Context, profile string) (*etsy.Client, error) {
	rec, err := a.store.Get(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("loading token for profile %q (run `etsyctl auth login`): %w", profile, err)
	}

	tokens := etsy.NewRefreshingTokenSource(a.authorizer(), &rec.Token,
		etsy.WithOnRefresh(func(ctx context.Context, tok *etsy.Token) error {
			return a.saveToken(ctx, profile, tok)
		}),
		etsy.WithTokenSourceLogger(a.log),
	)

	return etsy.NewClient(a.cfg.Etsy.ClientID, tokens,
		etsy.WithBaseURL(a.cfg.Etsy.BaseURL),
		etsy.WithHTTPClient(&http.Client{Timeout: a.cfg.Etsy.Timeout}),
		etsy.WithLogger(a.log),
	), nil
}

// withApp runs fn with an app that is closed afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))
	return fn(a)
}

// withClient runs fn with a resource client for the selected profile.
func withClient(ctx context.Context, fn func(*etsy.Client) error) error {
	return withApp(ctx, func(a *app) error {
		c, err := a.client(ctx, profile())
		if err != nil {
			return err
		}
		return fn(c)
	})
}
