package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/vacancy-loader/internal/db"
	"jobmate/vacancy-loader/internal/store"
	"jobmate/vacancy-loader/internal/testdb"
)

// Recreating the database must always yield an empty schema, never leftover
// rows from the previous run.
func TestSchemaManager_RecreateYieldsEmptySchema(t *testing.T) {
	ctx := context.Background()
	target := testdb.NewTarget(t)
	schema := store.NewSchemaManager(target.AdminURL, target.Name)

	for run := 0; run < 2; run++ {
		require.NoError(t, schema.CreateDatabase(ctx), "run %d", run)

		pool, err := db.NewPostgresPool(ctx, target.URL)
		require.NoError(t, err)

		require.NoError(t, schema.CreateTables(ctx, pool), "tables must not exist after recreate")
		assert.Zero(t, count(t, pool, "employers"))
		assert.Zero(t, count(t, pool, "vacancies"))

		_, err = pool.Exec(ctx, `INSERT INTO employers (company_name, company_url) VALUES ('Leftover', 'u')`)
		require.NoError(t, err)

		pool.Close()
	}
}

// A session left open on the previous database does not block the rebuild.
func TestSchemaManager_RecreateWithOpenSession(t *testing.T) {
	ctx := context.Background()
	target := testdb.NewTarget(t)
	schema := store.NewSchemaManager(target.AdminURL, target.Name)
	require.NoError(t, schema.CreateDatabase(ctx))

	stale, err := db.NewPostgresPool(ctx, target.URL)
	require.NoError(t, err)
	defer stale.Close()

	require.NoError(t, stale.Ping(ctx))

	require.NoError(t, schema.CreateDatabase(ctx))
}

func TestSchemaManager_CreateTablesTwiceFails(t *testing.T) {
	ctx := context.Background()
	pool := testdb.New(t)

	err := store.NewSchemaManager("", "").CreateTables(ctx, pool)

	var se *store.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create table employers", se.Op)
}

func TestSchemaManager_UnreachableAdminDatabase(t *testing.T) {
	schema := store.NewSchemaManager("postgres://nobody@127.0.0.1:1/postgres?connect_timeout=1", "hh_info")

	err := schema.CreateDatabase(context.Background())

	var se *store.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "connect admin database", se.Op)
}
