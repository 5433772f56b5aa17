package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/etsy-v3/internal/callback"
	"github.com/donaldgifford/etsy-v3/internal/refresher"
	"github.com/donaldgifford/etsy-v3/internal/store"
	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

func authCmd() *cobra.Command {
	authRoot := &cobra.Command{
		Use:   "auth",
		Short: "Obtain, refresh and inspect OAuth tokens",
		Long: "Run the Etsy OAuth2 authorization code flow with PKCE and manage the\n" +
			"tokens stored for each profile.",
	}

	authRoot.AddCommand(
		authURLCmd(),
		authLoginCmd(),
		authExchangeCmd(),
		authRefreshCmd(),
		authStatusCmd(),
		authLogoutCmd(),
	)

	return authRoot
}

func authURLCmd() *cobra.Command {
	var scopes []string

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print an authorization URL with a fresh state and PKCE verifier",
		Long: "Print an authorization URL. Keep the verifier: `auth exchange` needs it\n" +
			"to trade the code Etsy returns for a token.",
		Example: `  etsyctl auth url
  etsyctl auth url --scope listings_r --scope transactions_w`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				req, err := a.authorizer().AuthorizationURL(scopes...)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(cmd.OutOrStdout(), map[string]string{
						"url":      req.URL,
						"state":    req.State,
						"verifier": req.PKCE.Verifier,
					})
				}
				return printAuthRequest(cmd.OutOrStdout(), req)
			})
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "scope to request (repeatable; default from config)")

	return cmd
}

func authLoginCmd() *cobra.Command {
	var (
		scopes    []string
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the browser and store the token",
		Long: "Start a local listener on the configured callback address, open the\n" +
			"authorization URL, wait for Etsy to redirect back, exchange the code and\n" +
			"save the token under --profile.",
		Example: `  etsyctl auth login
  etsyctl auth login --profile my-shop --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return withApp(ctx, func(a *app) error {
				return runLogin(ctx, cmd, a, scopes, noBrowser)
			})
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "scope to request (repeatable; default from config)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the URL instead of opening a browser")

	return cmd
}

func runLogin(ctx context.Context, cmd *cobra.Command, a *app, scopes []string, noBrowser bool) error {
	if want := a.cfg.Callback.CallbackURL(); a.cfg.Etsy.RedirectURI != want {
		a.log.Warn("redirect uri does not point at the local listener",
			"redirect_uri", a.cfg.Etsy.RedirectURI, "listener", want)
	}

	authz := a.authorizer()
	req, err := authz.AuthorizationURL(scopes...)
	if err != nil {
		return err
	}

	srv := callback.New(a.cfg.Callback, authz.VerifyState,
		callback.WithLogger(a.log),
		callback.WithTimeout(a.cfg.Callback.Timeout),
	)
	if err := srv.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("stopping callback listener", "error", err)
		}
	}()

	stderr := cmd.ErrOrStderr()
	if noBrowser {
		fmt.Fprintf(stderr, "Open this URL to authorize:\n\n  %s\n\n", req.URL)
	} else if err := open.Run(req.URL); err != nil {
		a.log.Debug("opening browser failed", "error", err)
		fmt.Fprintf(stderr, "Could not open a browser. Open this URL to authorize:\n\n  %s\n\n", req.URL)
	}
	fmt.Fprintf(stderr, "Waiting for the redirect on %s ...\n", a.cfg.Callback.CallbackURL())

	code, err := srv.Wait(ctx)
	if err != nil {
		return err
	}

	tok, err := authz.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}
	if err := a.saveToken(ctx, profile(), tok); err != nil {
		return err
	}

	a.log.Info("login complete", "profile", profile(), "token", tok)
	return printStoredToken(ctx, cmd, a, profile())
}

func authExchangeCmd() *cobra.Command {
	var code, verifier string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code for a token",
		Long: "Exchange a code obtained with `auth url` by hand. The verifier printed\n" +
			"with that URL must be supplied.",
		Example: `  etsyctl auth exchange --code abc123 --verifier <verifier>`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				tok, err := a.authorizer(etsy.WithCodeVerifier(verifier)).ExchangeCode(ctx, code)
				if err != nil {
					return err
				}
				if err := a.saveToken(ctx, profile(), tok); err != nil {
					return err
				}
				return printStoredToken(ctx, cmd, a, profile())
			})
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "authorization code from the redirect")
	cmd.Flags().StringVar(&verifier, "verifier", "", "PKCE verifier printed by `auth url`")
	cobra.CheckErr(cmd.MarkFlagRequired("code"))
	cobra.CheckErr(cmd.MarkFlagRequired("verifier"))

	return cmd
}

func authRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "refresh",
		Short:   "Refresh the stored token now",
		Example: `  etsyctl auth refresh --profile my-shop`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				r, err := refresher.New(a.store, a.authorizer(), refresher.WithLogger(a.log))
				if err != nil {
					return err
				}
				if _, err := r.RefreshProfile(cmd.Context(), profile()); err != nil {
					return err
				}
				return printStoredToken(cmd.Context(), cmd, a, profile())
			})
		},
	}
}

func authStatusCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored token (secrets are never printed)",
		Example: `  etsyctl auth status
  etsyctl auth status --all --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				if !all {
					return printStoredToken(cmd.Context(), cmd, a, profile())
				}

				records, err := a.store.List(cmd.Context(), nil)
				if err != nil {
					return err
				}
				if jsonOutput() {
					out := make([]tokenSummary, len(records))
					for i := range records {
						out[i] = summarizeToken(&records[i])
					}
					return outputJSON(cmd.OutOrStdout(), out)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No stored tokens.")
					return nil
				}
				return printTokensTable(cmd.OutOrStdout(), records, time.Now())
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every stored profile")

	return cmd
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Short:   "Delete the stored token",
		Example: `  etsyctl auth logout --profile my-shop`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				if err := a.store.Delete(cmd.Context(), profile()); err != nil {
					return fmt.Errorf("deleting profile %q: %w", profile(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted token for profile %q.\n", profile())
				return nil
			})
		},
	}
}

func printStoredToken(ctx context.Context, cmd *cobra.Command, a *app, name string) error {
	rec, err := a.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no token stored for profile %q", name)
		}
		return err
	}
	if jsonOutput() {
		return outputJSON(cmd.OutOrStdout(), summarizeToken(rec))
	}
	return printTokenDetail(cmd.OutOrStdout(), rec, time.Now())
}
