package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/tobi"
	"github.com/sagarc03/tobi/database/postgres"
	"github.com/sagarc03/tobi/database/sqlite"
)

// Config holds the configuration for connecting to an access log backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" yaml:"dsn" validate:"required"`
	// Tables holds the table names
	Tables tobi.Tables `mapstructure:"tables" yaml:"tables"`
}

// Database is a connected access log backend.
type Database interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates the required tables and indexes if they do not exist.
	Migrate(ctx context.Context) error
	// Validate checks the existing schema against the expected one.
	Validate(ctx context.Context) error
	// GetRepo returns the repository backed by this connection.
	GetRepo() tobi.AccessLogRepo
	// Close releases the connection.
	Close() error
}

// Connect opens the configured backend. Tables are validated first;
// migrations are left to the caller.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
