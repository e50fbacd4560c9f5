package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/tobi"
)

// quoteIdentifier quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type tableMigration struct {
	tableName string
	up        func(ctx context.Context, db *sql.DB) error
	down      func(ctx context.Context, db *sql.DB) error
}

func getTableMigrations(tables tobi.Tables) []tableMigration {
	return []tableMigration{
		{
			tableName: tables.AccessLog,
			up:        createAccessLogTable(tables.AccessLog),
			down:      dropTable(tables.AccessLog),
		},
	}
}

// Migrate creates every table and index the access log needs.
func Migrate(ctx context.Context, db *sql.DB, tables tobi.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.tableName, err)
		}
	}

	return nil
}

// DropTables removes the access log tables in reverse migration order.
func DropTables(ctx context.Context, db *sql.DB, tables tobi.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		if err := migrations[i].down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migrations[i].tableName, err)
		}
	}

	return nil
}

func createAccessLogTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexCreatedAt := quoteIdentifier(fmt.Sprintf("idx_%s_created_at", tableName))
		indexTarget := quoteIdentifier(fmt.Sprintf("idx_%s_target", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				remote_addr TEXT NOT NULL,
				method TEXT NOT NULL,
				target TEXT NOT NULL,
				status INTEGER NOT NULL,
				bytes_sent INTEGER NOT NULL,
				duration_us INTEGER NOT NULL,
				created_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (created_at, id)
		`, indexCreatedAt, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index created_at: %w", err)
		}

		indexSQL = fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (target)
		`, indexTarget, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index target: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
