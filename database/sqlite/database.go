package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/tobi"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables tobi.Tables
}

// Connect opens the SQLite database at dsn, which may be a file path or
// ":memory:". Tables must already be validated.
func Connect(ctx context.Context, dsn string, tables tobi.Tables) (*database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across callers
	// and serialises writers.
	db.SetMaxOpenConns(1)

	// Another process (tobi access prune) may hold the write lock briefly.
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

func (d *database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

func (d *database) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.db, d.tables)
}

// Validate compares the table layout reported by PRAGMA table_info.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the AccessLogRepo for database operations.
func (d *database) GetRepo() tobi.AccessLogRepo {
	return &repo{db: d.db, tableName: d.tables.AccessLog}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
