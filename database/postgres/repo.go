// Package postgres implements the access log repository using PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/tobi"
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *repo) Record(ctx context.Context, entry tobi.AccessEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, remote_addr, method, target, status, bytes_sent, duration_us, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.table())

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.RemoteAddr, entry.Method, entry.Target,
		entry.Status, entry.BytesSent, entry.DurationMicros, entry.CreatedAt.UTC(),
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

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT id, remote_addr, method, target, status, bytes_sent, duration_us, created_at
			FROM %s
			WHERE target LIKE $1 || '%%'
			ORDER BY created_at, id
			LIMIT $2
		`, r.table())
		args = []any{escapedPrefix, limit + 1}
	} else {
		cursorID, parseErr := uuid.Parse(cursor.ID)
		if parseErr != nil {
			return tobi.ListResult{}, fmt.Errorf("list: cursor id: %w", parseErr)
		}
		query = fmt.Sprintf(`
			SELECT id, remote_addr, method, target, status, bytes_sent, duration_us, created_at
			FROM %s
			WHERE target LIKE $1 || '%%' AND (created_at, id) > ($2, $3)
			ORDER BY created_at, id
			LIMIT $4
		`, r.table())
		args = []any{escapedPrefix, cursor.CreatedAt, cursorID, limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return tobi.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]tobi.AccessEntry, 0, limit)
	for rows.Next() {
		var e tobi.AccessEntry
		if err := rows.Scan(&e.ID, &e.RemoteAddr, &e.Method, &e.Target, &e.Status,
			&e.BytesSent, &e.DurationMicros, &e.CreatedAt); err != nil {
			return tobi.ListResult{}, fmt.Errorf("list: scan: %w", err)
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
	query := fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, r.table())

	tag, err := r.pool.Exec(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	return tag.RowsAffected(), nil
}
