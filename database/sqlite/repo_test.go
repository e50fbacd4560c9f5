package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/tobi"
)

func entryAt(target string, status int, at time.Time) tobi.AccessEntry {
	return tobi.AccessEntry{
		RemoteAddr:     "127.0.0.1:50000",
		Method:         "GET",
		Target:         target,
		Status:         status,
		BytesSent:      128,
		DurationMicros: 42,
		CreatedAt:      at,
	}
}

func TestRepo_Record(t *testing.T) {
	t.Run("stores all fields", func(t *testing.T) {
		repo := setupTestRepo(t)
		ctx := context.Background()

		at := time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)
		entry := entryAt("/index.html", 200, at)
		entry.ID = uuid.New()

		require.NoError(t, repo.Record(ctx, entry))

		result, err := repo.List(ctx, tobi.ListQuery{Limit: 10})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)

		got := result.Items[0]
		assert.Equal(t, entry.ID, got.ID)
		assert.Equal(t, "127.0.0.1:50000", got.RemoteAddr)
		assert.Equal(t, "GET", got.Method)
		assert.Equal(t, "/index.html", got.Target)
		assert.Equal(t, 200, got.Status)
		assert.Equal(t, int64(128), got.BytesSent)
		assert.Equal(t, int64(42), got.DurationMicros)
		assert.True(t, at.Equal(got.CreatedAt), "created_at round trip")
	})

	t.Run("assigns id and timestamp when missing", func(t *testing.T) {
		repo := setupTestRepo(t)
		ctx := context.Background()

		before := time.Now().Add(-time.Second)
		require.NoError(t, repo.Record(ctx, tobi.AccessEntry{Method: "GET", Target: "/", Status: 404}))

		result, err := repo.List(ctx, tobi.ListQuery{})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.NotEqual(t, uuid.Nil, result.Items[0].ID)
		assert.True(t, result.Items[0].CreatedAt.After(before))
	})
}

func TestRepo_List(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := func(t *testing.T) tobi.AccessLogRepo {
		t.Helper()
		repo := setupTestRepo(t)
		targets := []string{"/a.html", "/docs/one.html", "/docs/two.html", "/b.css", "/docs_x/three.html"}
		for i, target := range targets {
			require.NoError(t, repo.Record(context.Background(), entryAt(target, 200, base.Add(time.Duration(i)*time.Second))))
		}
		return repo
	}

	t.Run("orders by creation time", func(t *testing.T) {
		repo := seed(t)

		result, err := repo.List(context.Background(), tobi.ListQuery{Limit: 10})
		require.NoError(t, err)
		require.Len(t, result.Items, 5)
		assert.Empty(t, result.NextCursor)
		assert.Equal(t, "/a.html", result.Items[0].Target)
		assert.Equal(t, "/docs_x/three.html", result.Items[4].Target)
	})

	t.Run("filters by prefix with escaped wildcards", func(t *testing.T) {
		repo := seed(t)

		result, err := repo.List(context.Background(), tobi.ListQuery{TargetPrefix: "/docs/", Limit: 10})
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		assert.Equal(t, "/docs/one.html", result.Items[0].Target)
		assert.Equal(t, "/docs/two.html", result.Items[1].Target)

		result, err = repo.List(context.Background(), tobi.ListQuery{TargetPrefix: "/docs_", Limit: 10})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "/docs_x/three.html", result.Items[0].Target)
	})

	t.Run("paginates with cursor", func(t *testing.T) {
		repo := seed(t)
		ctx := context.Background()

		var targets []string
		cursor := ""
		pages := 0
		for {
			result, err := repo.List(ctx, tobi.ListQuery{Limit: 2, Cursor: cursor})
			require.NoError(t, err)
			pages++
			for _, item := range result.Items {
				targets = append(targets, item.Target)
			}
			if result.NextCursor == "" {
				break
			}
			cursor = result.NextCursor
		}

		assert.Equal(t, 3, pages)
		assert.Equal(t, []string{"/a.html", "/docs/one.html", "/docs/two.html", "/b.css", "/docs_x/three.html"}, targets)
	})

	t.Run("rejects malformed cursor", func(t *testing.T) {
		repo := setupTestRepo(t)

		_, err := repo.List(context.Background(), tobi.ListQuery{Cursor: "!!not-base64!!"})
		assert.Error(t, err)
	})
}

func TestRepo_Prune(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 4 {
		require.NoError(t, repo.Record(ctx, entryAt("/", 200, base.Add(time.Duration(i)*time.Hour))))
	}

	removed, err := repo.Prune(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	result, err := repo.List(ctx, tobi.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)

	removed, err = repo.Prune(ctx, base)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
