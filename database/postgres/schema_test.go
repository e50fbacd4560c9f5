package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/tobi"
	"github.com/sagarc03/tobi/database/postgres"
)

func TestValidateSchema(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	t.Run("success - migrated table is valid", func(t *testing.T) {
		tables := tobi.Tables{AccessLog: "access_" + getRandomString(t)}
		t.Cleanup(func() { _ = dropTable(ctx, pool, tables.AccessLog) })

		require.NoError(t, postgres.Migrate(ctx, pool, tables))
		require.NoError(t, postgres.Migrate(ctx, pool, tables), "migrate twice")
		assert.NoError(t, postgres.ValidateSchema(ctx, pool, tables))
	})

	t.Run("error - table does not exist", func(t *testing.T) {
		err := postgres.ValidateSchema(ctx, pool, tobi.Tables{AccessLog: "missing_" + getRandomString(t)})
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("error - invalid table name", func(t *testing.T) {
		err := postgres.ValidateSchema(ctx, pool, tobi.Tables{AccessLog: "Bad-Name"})
		assert.ErrorContains(t, err, "invalid table name")
	})

	t.Run("error - incomplete schema", func(t *testing.T) {
		name := "partial_" + getRandomString(t)
		t.Cleanup(func() { _ = dropTable(ctx, pool, name) })

		_, err := pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE %s (id UUID PRIMARY KEY, status TEXT NOT NULL)`, name))
		require.NoError(t, err)

		err = postgres.ValidateSchema(ctx, pool, tobi.Tables{AccessLog: name})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing columns")
		assert.Contains(t, err.Error(), "status: expected integer, got text")
	})

	t.Run("drop tables", func(t *testing.T) {
		tables := tobi.Tables{AccessLog: "access_" + getRandomString(t)}

		require.NoError(t, postgres.Migrate(ctx, pool, tables))
		require.NoError(t, postgres.DropTables(ctx, pool, tables))
		assert.Error(t, postgres.ValidateSchema(ctx, pool, tables))
	})
}
