package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/tobi/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the access log tables",
	Long: `Create the access log table and indexes in the configured database,
then verify the resulting schema. Running it again is harmless.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	dbCfg := cfg.AccessLog.Database
	if err := dbCfg.Tables.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	db, err := openAccessLog(ctx, dbCfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	slog.Info("access log schema ready", "type", dbCfg.Type, "table", dbCfg.Tables.AccessLog)
	return nil
}
