package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sagarc03/tobi/database"
)

// openAccessLog connects to the access log database and checks its schema.
// With migrate set, missing tables are created first.
func openAccessLog(ctx context.Context, cfg database.Config, migrate bool) (database.Database, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		slog.Debug("database migration complete", "type", cfg.Type)
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate database schema: %w", err)
	}

	return db, nil
}
