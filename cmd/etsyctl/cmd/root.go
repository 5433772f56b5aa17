// Package cmd implements the etsyctl CLI commands.
package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/etsy-v3/internal/store"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "etsyctl",
		Short: "Command-line client for the Etsy Open API v3",
		Long: "etsyctl drives the Etsy OAuth2 (PKCE) login from a terminal, stores the\n" +
			"resulting tokens, and calls shop, listing and receipt endpoints with them.\n" +
			"The keepalive command refreshes stored tokens before they expire.",
		Version:      version,
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML, ${VAR} expanded)")
	flags.String("profile", store.DefaultProfile, "token profile name")
	flags.String("output", "table", "output format (table, json)")
	flags.String("client-id", "", "Etsy app keystring (overrides etsy.client_id)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")

	for _, name := range []string{"profile", "output", "client-id", "log-level", "log-format"} {
		cobra.CheckErr(viper.BindPFlag(name, flags.Lookup(name)))
	}

	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(meCmd())
	rootCmd.AddCommand(pingCmd())
	rootCmd.AddCommand(shopsCmd())
	rootCmd.AddCommand(listingsCmd())
	rootCmd.AddCommand(receiptsCmd())
	rootCmd.AddCommand(keepaliveCmd())
	rootCmd.AddCommand(tokensCmd())
}

func initConfig() {
	viper.SetEnvPrefix("ETSY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Secrets are accepted from the environment only.
	cobra.CheckErr(viper.BindEnv("client-secret", "ETSY_CLIENT_SECRET"))
}

func profile() string {
	return viper.GetString("profile")
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
