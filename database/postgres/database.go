package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/tobi"
)

type database struct {
	pool   *pgxpool.Pool
	tables tobi.Tables
}

// applicationName tags the pool's sessions in pg_stat_activity.
const applicationName = "tobi"

// Connect opens a connection pool to PostgreSQL. Tables must already be
// validated; they are interpolated into SQL as identifiers.
func Connect(ctx context.Context, dsn string, tables tobi.Tables) (*database, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: parse dsn: %w", err)
	}
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &database{
		pool:   pool,
		tables: tables,
	}, nil
}

func (d *database) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (d *database) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.pool, d.tables)
}

func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

// GetRepo returns an access log repository sharing the pool.
func (d *database) GetRepo() tobi.AccessLogRepo {
	return &repo{pool: d.pool, tableName: d.tables.AccessLog}
}

// Close waits for acquired connections to be released, then closes the pool.
func (d *database) Close() error {
	d.pool.Close()
	return nil
}
