package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	database, err := Open(path)
	require.NoError(t, err)
	defer database.Close()

	var name string
	err = database.QueryRowContext(context.Background(),
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'study_sessions'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "study_sessions", name)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	database, err := Open(path)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, Migrate(ctx, database.DB))

	var applied int
	require.NoError(t, database.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestOpen_ExistingQueryString(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "test.db") + "?cache=shared"

	database, err := Open(path)
	require.NoError(t, err)
	defer database.Close()
	assert.NoError(t, database.PingContext(context.Background()))
}
