package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/tobi"
)

// Migrate creates the access log table and its indexes if they are missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables tobi.Tables) error {
	if err := createAccessLogTable(ctx, pool, tables.AccessLog); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// DropTables removes the access log table.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables tobi.Tables) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tables.AccessLog}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

func createAccessLogTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexCreatedAt := pgx.Identifier{fmt.Sprintf("idx_%s_created_at", tableName)}.Sanitize()
	indexTarget := pgx.Identifier{fmt.Sprintf("idx_%s_target", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			remote_addr TEXT NOT NULL,
			method TEXT NOT NULL,
			target TEXT NOT NULL,
			status INTEGER NOT NULL,
			bytes_sent BIGINT NOT NULL,
			duration_us BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at, id);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (target text_pattern_ops);
	`,
		quotedTable,
		indexCreatedAt, quotedTable,
		indexTarget, quotedTable,
	)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create access log table: %w", err)
	}
	return nil
}
