package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/tobi"
	"github.com/sagarc03/tobi/config"
)

var (
	accessPrefix    string
	accessLimit     int
	accessCursor    string
	accessAll       bool
	accessJSON      bool
	accessOlderThan time.Duration
)

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Inspect and maintain the access log",
}

var accessListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List recorded requests",
	Long: `List recorded requests, oldest first.

Examples:
  tobi access list
  tobi access list /docs/
  tobi access list --limit 20 --cursor "MjAyNC0wMS0..."
  tobi access list --all --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAccessList,
}

var accessPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old access log entries",
	Long: `Delete access log entries older than --older-than, which defaults to
the configured access_log.retention.`,
	Args: cobra.NoArgs,
	RunE: runAccessPrune,
}

func init() {
	accessListCmd.Flags().StringVar(&accessPrefix, "prefix", "", "filter by request target prefix")
	accessListCmd.Flags().IntVarP(&accessLimit, "limit", "l", tobi.DefaultListLimit, fmt.Sprintf("max results per page (max: %d)", tobi.MaxListLimit))
	accessListCmd.Flags().StringVar(&accessCursor, "cursor", "", "pagination cursor")
	accessListCmd.Flags().BoolVar(&accessAll, "all", false, "fetch all pages")
	accessListCmd.Flags().BoolVar(&accessJSON, "json", false, "print JSON")

	accessPruneCmd.Flags().DurationVar(&accessOlderThan, "older-than", 0, "remove entries older than this (default: access_log.retention)")
	accessPruneCmd.Flags().BoolVar(&accessJSON, "json", false, "print JSON")

	accessCmd.AddCommand(accessListCmd, accessPruneCmd)
	rootCmd.AddCommand(accessCmd)
}

func runAccessList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	prefix := accessPrefix
	if len(args) > 0 {
		prefix = args[0]
	}

	db, err := openAccessLog(ctx, cfg.AccessLog.Database, false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	repo := db.GetRepo()
	formatter := newFormatter(accessJSON)

	query := tobi.ListQuery{TargetPrefix: prefix, Limit: accessLimit, Cursor: accessCursor}
	var page tobi.ListResult
	for {
		result, err := repo.List(ctx, query)
		if err != nil {
			_ = formatter.FormatError(os.Stderr, err)
			return fmt.Errorf("list access log: %w", err)
		}

		page.Items = append(page.Items, result.Items...)
		page.NextCursor = result.NextCursor

		if !accessAll || result.NextCursor == "" {
			break
		}
		query.Cursor = result.NextCursor
	}

	return formatter.FormatAccessList(cmd.OutOrStdout(), page)
}

func runAccessPrune(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	olderThan := accessOlderThan
	if olderThan == 0 {
		olderThan = cfg.AccessLog.Retention
	}
	if olderThan <= 0 {
		return fmt.Errorf("prune: %w: retention must be positive", tobi.ErrInvalidInput)
	}

	db, err := openAccessLog(ctx, cfg.AccessLog.Database, false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	before := time.Now().Add(-olderThan)
	slog.Debug("pruning access log", "before", before)

	removed, err := db.GetRepo().Prune(ctx, before)
	if err != nil {
		return fmt.Errorf("prune access log: %w", err)
	}

	return newFormatter(accessJSON).FormatPrune(cmd.OutOrStdout(), removed, before)
}
