package cmd

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/etsy-v3/internal/api/client"
	"github.com/donaldgifford/etsy-v3/internal/api/handlers"
)

func tokensCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tokens",
		Short: "Query a running keepalive server",
		Long: "Reads token status from, and requests refreshes through, the HTTP API\n" +
			"of a running `etsyctl keepalive`. Use `auth status` to read the local store.",
	}

	root.PersistentFlags().String("server", "http://localhost:8080", "keepalive server base URL")
	cobra.CheckErr(viper.BindPFlag("server", root.PersistentFlags().Lookup("server")))

	root.AddCommand(tokensListCmd(), tokensGetCmd(), tokensRefreshCmd())
	return root
}

func newAPIClient() *client.Client {
	return client.New(viper.GetString("server"),
		client.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}))
}

func tokensListCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tokens held by the server",
		Example: `  etsyctl tokens list
  etsyctl tokens list --expiring-within 1h --order-by expiry`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := newAPIClient().ListTokens(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), tokens)
			}
			if len(tokens) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tokens found.")
				return nil
			}
			return printTokenStatusTable(cmd.OutOrStdout(), tokens)
		},
	}

	cmd.Flags().DurationVar(&opts.ExpiringWithin, "expiring-within", 0, "only tokens expiring within this duration")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of tokens")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "sort field (profile, expiry, updated_at)")
	return cmd
}

func tokensGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <profile>",
		Short: "Show one token held by the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := newAPIClient().GetToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTokenStatus(cmd.OutOrStdout(), ts)
		},
	}
}

func tokensRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <profile>",
		Short: "Ask the server to refresh a token now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := newAPIClient().RefreshToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTokenStatus(cmd.OutOrStdout(), ts)
		},
	}
}

func printTokenStatus(w io.Writer, ts *handlers.TokenStatus) error {
	if jsonOutput() {
		return outputJSON(w, ts)
	}
	tw := newTabWriter(w)
	tw.writef("Profile:\t%s\n", ts.Profile)
	tw.writef("User ID:\t%s\n", orDash(ts.UserID))
	tw.writef("Scope:\t%s\n", orDash(ts.Scope))
	tw.writef("Expires:\t%s\n", statusExpiry(ts))
	tw.writef("Refresh Token:\t%v\n", ts.HasRefreshToken)
	tw.writef("Updated:\t%s\n", ts.UpdatedAt.Local().Format(timeLayout))
	return tw.finish()
}

func printTokenStatusTable(w io.Writer, tokens []handlers.TokenStatus) error {
	tw := newTabWriter(w)
	tw.writef("PROFILE\tUSER\tEXPIRES\tREFRESH\n")
	for i := range tokens {
		tw.writef("%s\t%s\t%s\t%v\n",
			tokens[i].Profile,
			orDash(tokens[i].UserID),
			statusExpiry(&tokens[i]),
			tokens[i].HasRefreshToken,
		)
	}
	return tw.finish()
}

// statusExpiry renders the server's view of expiry, which is relative to the
// server clock rather than ours.
func statusExpiry(ts *handlers.TokenStatus) string {
	if ts.Expiry == nil {
		return "never"
	}
	d := (time.Duration(ts.ExpiresIn) * time.Second).String()
	if ts.Expired {
		return fmt.Sprintf("%s (expired)", ts.Expiry.Local().Format(timeLayout))
	}
	return fmt.Sprintf("%s (in %s)", ts.Expiry.Local().Format(timeLayout), d)
}
