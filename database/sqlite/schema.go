package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sagarc03/tobi"
)

type columnInfo struct {
	name       string
	dataType   string
	isNullable bool
}

var accessLogTableSchema = map[string]columnInfo{
	"id":          {"id", "text", false},
	"remote_addr": {"remote_addr", "text", false},
	"method":      {"method", "text", false},
	"target":      {"target", "text", false},
	"status":      {"status", "integer", false},
	"bytes_sent":  {"bytes_sent", "integer", false},
	"duration_us": {"duration_us", "integer", false},
	"created_at":  {"created_at", "text", false},
}

// ValidateSchema checks every access log table against its expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables tobi.Tables) error {
	if err := validateTableSchema(ctx, db, tables.AccessLog, accessLogTableSchema); err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.AccessLog, err)
	}
	return nil
}

func validateTableSchema(ctx context.Context, db *sql.DB, tableName string, expectedSchema map[string]columnInfo) error {
	if !tobi.IsValidTableName(tableName) {
		return fmt.Errorf("validate table schema: invalid table name: %s", tableName)
	}

	exists, err := tableExists(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("validate table schema: %w", err)
	}

	if !exists {
		return fmt.Errorf("validate table schema: table %s does not exist", tableName)
	}

	query := fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(tableName))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("validate table schema: query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	actualColumns := make(map[string]columnInfo)
	for rows.Next() {
		var (
			cid       int
			name      string
			dataType  string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("validate table schema: scan column: %w", err)
		}
		actualColumns[name] = columnInfo{
			name:       name,
			dataType:   strings.ToLower(dataType),
			isNullable: notNull == 0,
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate table schema: rows error: %w", err)
	}

	return compareColumns(tableName, expectedSchema, actualColumns)
}

func compareColumns(tableName string, expected, actual map[string]columnInfo) error {
	var missing, mismatched []string

	for colName, want := range expected {
		got, ok := actual[colName]
		if !ok {
			missing = append(missing, colName)
			continue
		}

		if got.dataType != want.dataType {
			mismatched = append(mismatched,
				fmt.Sprintf("%s: expected %s, got %s", colName, want.dataType, got.dataType))
		}

		if got.isNullable != want.isNullable {
			mismatched = append(mismatched,
				fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", colName, want.isNullable, got.isNullable))
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}

	var errMsg strings.Builder
	fmt.Fprintf(&errMsg, "table %s schema validation failed:\n", tableName)

	if len(missing) > 0 {
		fmt.Fprintf(&errMsg, "  missing columns: %s\n", strings.Join(missing, ", "))
	}

	if len(mismatched) > 0 {
		fmt.Fprintf(&errMsg, "  mismatched columns:\n")
		for _, msg := range mismatched {
			fmt.Fprintf(&errMsg, "    - %s\n", msg)
		}
	}

	return errors.New(errMsg.String())
}

func tableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name=?`
	err := db.QueryRowContext(ctx, query, tableName).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return true, nil
}
