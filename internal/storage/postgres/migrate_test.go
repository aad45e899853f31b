package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/gamzia/internal/storage/postgres"
	"github.com/cory-johannsen/gamzia/internal/testutil"
)

func TestMigrate_InvalidArguments(t *testing.T) {
	_, err := postgres.Migrate("postgres://u:p@localhost:1/db", "sideways", 0)
	assert.Error(t, err)
	_, err = postgres.Migrate("postgres://u:p@localhost:1/db", "up", -1)
	assert.Error(t, err)
}

func TestMigrate_UpDownUp(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	res, err := postgres.Migrate(pc.DSN(), "up", 0)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint(1), res.Version)
	assert.False(t, res.Dirty)

	res, err = postgres.Migrate(pc.DSN(), "up", 0)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	var exists bool
	require.NoError(t, pc.RawPool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'sample_runs')`,
	).Scan(&exists))
	assert.True(t, exists)

	res, err = postgres.Migrate(pc.DSN(), "down", 1)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	require.NoError(t, pc.RawPool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'sample_runs')`,
	).Scan(&exists))
	assert.False(t, exists)

	_, err = postgres.Migrate(pc.DSN(), "up", 1)
	require.NoError(t, err)
}

func TestPool_HealthRequiresSchema(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	check := pc.Pool.HealthCheck(0)
	assert.ErrorIs(t, check(ctx), postgres.ErrSchemaMissing)
	assert.ErrorIs(t, pc.Pool.Health(ctx, 5*time.Second), postgres.ErrSchemaMissing)

	pc.ApplyMigrations(t)
	assert.NoError(t, check(ctx))
	assert.NoError(t, pc.Pool.CheckSchema(ctx))
}

func TestPool_SessionsCarryApplicationName(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)

	var name string
	require.NoError(t, pc.RawPool.QueryRow(context.Background(),
		`SELECT current_setting('application_name')`,
	).Scan(&name))
	assert.Equal(t, postgres.ApplicationName, name)
}

func TestPool_HealthFailsAfterClose(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pool, err := postgres.NewPool(context.Background(), pc.Config)
	require.NoError(t, err)
	pool.Close()

	err = pool.HealthCheck(time.Second)(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, postgres.ErrSchemaMissing)
}
