package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sagarc03/tobi"
	"github.com/sagarc03/tobi/config"
	"github.com/sagarc03/tobi/filesystem"
	tobihttp "github.com/sagarc03/tobi/http"
	"github.com/sagarc03/tobi/server"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneInterval   = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the file server",
	Long: `Start serving files from the configured root directory.

The admin API and the access log are started as well when enabled.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "address to bind (default: 127.0.0.1, env: TOBI_SERVER_HOST)")
	serveCmd.Flags().Int("port", 0, "port to listen on (default: 8000, env: TOBI_SERVER_PORT)")
	serveCmd.Flags().String("root", "", "directory to serve (default: ./html/, env: TOBI_SERVER_PATH)")
	serveCmd.Flags().Int64("max-connections", 0, "connections served at once, 0 for no limit (default: 256)")
	serveCmd.Flags().Int("max-request-bytes", 0, "largest accepted request head in bytes (default: 65536)")
	serveCmd.Flags().Duration("read-timeout", 0, "time allowed to receive a request (default: 30s)")
	serveCmd.Flags().Bool("admin", false, "enable the admin API")
	serveCmd.Flags().Int("admin-port", 0, "admin API port (default: 8001)")
	serveCmd.Flags().Bool("access-log", false, "record every response in the access log database")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	hostname, err := os.Hostname()
	if err != nil {
		slog.Warn("could not resolve hostname, using bind address", "err", err)
		hostname = cfg.Server.Host
	}

	settings := config.NewStore(tobi.Settings{
		Host: hostname,
		Port: cfg.Server.Port,
		Path: cfg.Server.Path,
	})

	if info, statErr := os.Stat(cfg.Server.Path); statErr != nil || !info.IsDir() {
		slog.Warn("server root is not a directory, every request will be answered 404", "path", cfg.Server.Path)
	}

	engine, err := tobi.NewEngine(settings, filesystem.NewStore())
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	var repo tobi.AccessLogRepo
	if cfg.AccessLog.Enabled {
		db, dbErr := openAccessLog(ctx, cfg.AccessLog.Database, true)
		if dbErr != nil {
			return dbErr
		}
		defer func() { _ = db.Close() }()

		repo = db.GetRepo()
		slog.Info("access log enabled", "type", cfg.AccessLog.Database.Type, "table", cfg.AccessLog.Database.Tables.AccessLog)
	}

	srv, err := server.New(engine, server.Config{
		MaxConnections:  cfg.Server.MaxConnections,
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
	}, server.WithAccessLog(repo))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	var admin *http.Server
	if cfg.Admin.Enabled {
		admin, err = newAdminServer(cfg, settings, srv, repo)
		if err != nil {
			return err
		}
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	snap := settings.Snapshot()
	slog.Info("starting server",
		"host", snap.Host,
		"port", snap.Port,
		"path", snap.Path,
		"addr", ln.Addr().String(),
	)

	if err := serveAll(ctx, srv, ln, admin, repo, cfg.AccessLog.Retention); err != nil {
		return err
	}

	slog.Info("server stopped", "stats", srv.Stats())
	return nil
}

// serveAll runs the file server on ln, the admin API when admin is not nil,
// and the prune loop when repo is set and retention is positive. The first
// failure stops the others; ctx cancellation stops all of them.
func serveAll(ctx context.Context, srv *server.Server, ln net.Listener, admin *http.Server, repo tobi.AccessLogRepo, retention time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(ctx, ln)
	})

	if admin != nil {
		g.Go(func() error {
			slog.Info("starting admin api", "addr", admin.Addr)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return admin.Shutdown(shutdownCtx)
		})
	}

	if repo != nil && retention > 0 {
		g.Go(func() error {
			pruneLoop(ctx, repo, retention)
			return nil
		})
	}

	return g.Wait()
}

func newAdminServer(cfg *config.Config, settings *config.Store, srv *server.Server, repo tobi.AccessLogRepo) (*http.Server, error) {
	handler, err := tobihttp.NewHandler(&tobihttp.HandlerConfig{
		CORS:      cfg.Admin.CORS,
		Settings:  settings,
		Stats:     srv,
		AccessLog: repo,
		Logger:    slog.Default(),
	})
	if err != nil {
		return nil, fmt.Errorf("create admin handler: %w", err)
	}

	return &http.Server{
		Addr:         net.JoinHostPort(cfg.Admin.Host, strconv.Itoa(cfg.Admin.Port)),
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}, nil
}

// pruneLoop removes access entries older than retention once per
// pruneInterval until ctx is done.
func pruneLoop(ctx context.Context, repo tobi.AccessLogRepo, retention time.Duration) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		removed, err := repo.Prune(ctx, time.Now().Add(-retention))
		switch {
		case err != nil && ctx.Err() == nil:
			slog.Warn("prune access log", "err", err)
		case removed > 0:
			slog.Info("pruned access log", "removed", removed)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
