package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/tobi/config"
)

var version = "dev"

var configFiles []string

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "tobi",
	Short:   "Minimal GET-only HTTP/1.x static file server",
	Long: `Tobi serves files from a directory over plain HTTP/1.x.

Every connection carries exactly one GET request and is closed after the
response. Other methods get 405, malformed requests 400, missing files 404.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", nil, "config file path(s), merged in order (default: ./tobi.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: TOBI_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: pretty, json (env: TOBI_LOG_FORMAT)")
	rootCmd.PersistentFlags().String("db-type", "", "access log database: sqlite, postgres (env: TOBI_ACCESS_LOG_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "access log connection string (env: TOBI_ACCESS_LOG_DATABASE_DSN)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
