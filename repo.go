package tobi

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// AccessLogRepo persists one entry per responded connection.
// Implementations must be safe for concurrent use by many workers.
type AccessLogRepo interface {
	// Record stores a single access entry. Entries with a zero CreatedAt
	// are stamped with the current time.
	Record(ctx context.Context, entry AccessEntry) error

	// List returns entries ordered by (created_at, id), optionally filtered
	// by target prefix, one page at a time.
	List(ctx context.Context, q ListQuery) (ListResult, error)

	// Prune deletes entries created before the given time and returns how
	// many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Cursor represents pagination cursor data for list operations.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// EncodeCursor encodes cursor data to a base64 string for pagination.
func EncodeCursor(createdAt time.Time, id string) string {
	data := createdAt.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor decodes a pagination cursor string back to cursor data.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return Cursor{}, fmt.Errorf("decode cursor: invalid format")
	}

	if parts[1] == "" {
		return Cursor{}, fmt.Errorf("decode cursor: empty id")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", err)
	}

	return Cursor{CreatedAt: createdAt, ID: parts[1]}, nil
}

// EscapeLikePattern escapes special LIKE characters (%, _, \) to prevent SQL injection.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}
