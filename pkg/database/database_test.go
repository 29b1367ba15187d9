package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "root@/burgers")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrate_SQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "burgers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	first, err := Migrate(ctx, db, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, MigrationResult{Version: 1}, first)

	second, err := Migrate(ctx, db, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM burgers").Scan(&n))
	assert.Zero(t, n)
}

func TestMigrate_UnsupportedDriver(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "burgers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = Migrate(ctx, db, "mysql")
	assert.Error(t, err)
}
