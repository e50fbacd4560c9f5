// Package sqlite implements the access log repository using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/tobi"
)

// timeLayout is fixed width so that text comparison orders timestamps.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Record(ctx context.Context, entry tobi.AccessEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, remote_addr, method, target, status, bytes_sent, duration_us, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName))

	_, err := r.db.ExecContext(ctx, query,
		entry.ID.String(), entry.RemoteAddr, entry.Method, entry.Target,
		entry.Status, entry.BytesSent, entry.DurationMicros, formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (r *repo) List(ctx context.Context, q tobi.ListQuery) (tobi.ListResult, error) {
	cursor, err := tobi.DecodeCursor(q.Cursor)
	if err != nil {
		return tobi.ListResult{}, fmt.Errorf("list: %w", err)
	}

	limit := q.NormalizedLimit()
	escapedPrefix := tobi.EscapeLikePattern(q.TargetPrefix)
	table := quoteIdentifier(r.tableName)

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT id, remote_addr, method, target, status, bytes_sent, duration_us, created_at
			FROM %s
			WHERE target LIKE ? || '%%' ESCAPE '\'
			ORDER BY created_at, id
			LIMIT ?
		`, table)
		args = []any{escapedPrefix, limit + 1}
	} else {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT id, remote_addr, method, target, status, bytes_sent, duration_us, created_at
			FROM %s
			WHERE target LIKE ? || '%%' ESCAPE '\' AND (created_at, id) > (?, ?)
			ORDER BY created_at, id
			LIMIT ?
		`, table)
		args = []any{escapedPrefix, formatTime(cursor.CreatedAt), cursor.ID, limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return tobi.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]tobi.AccessEntry, 0, limit)
	for rows.Next() {
		var e tobi.AccessEntry
		var idStr, createdAt string

		if scanErr := rows.Scan(&idStr, &e.RemoteAddr, &e.Method, &e.Target, &e.Status,
			&e.BytesSent, &e.DurationMicros, &createdAt); scanErr != nil {
			return tobi.ListResult{}, fmt.Errorf("list: scan: %w", scanErr)
		}

		var parseErr error
		e.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return tobi.ListResult{}, fmt.Errorf("list: parse uuid: %w", parseErr)
		}

		e.CreatedAt, parseErr = time.Parse(timeLayout, createdAt)
		if parseErr != nil {
			return tobi.ListResult{}, fmt.Errorf("list: parse created_at: %w", parseErr)
		}

		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		return tobi.ListResult{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		last := items[limit-1]
		nextCursor = tobi.EncodeCursor(last.CreatedAt, last.ID.String())
		items = items[:limit]
	}

	return tobi.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *repo) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE created_at < ?`, quoteIdentifier(r.tableName))

	result, err := r.db.ExecContext(ctx, query, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: rows affected: %w", err)
	}

	return n, nil
}
