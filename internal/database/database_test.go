// Package database provides unit tests for database connection management.
// Tests validate pool lifecycle helpers and the embedded schema without
// requiring an actual PostgreSQL server.
package database

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIsConnected verifies health checks ping the pool.
func TestIsConnected(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)

	oldDB := DB
	DB = mock
	defer func() { DB = oldDB }()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("connection reset"))

	assert.True(t, IsConnected(context.Background()), "healthy pool should report connected")
	assert.False(t, IsConnected(context.Background()), "failing ping should report disconnected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestIsConnected_NoPool verifies the helper tolerates an uninitialized pool.
func TestIsConnected_NoPool(t *testing.T) {
	oldDB := DB
	DB = nil
	defer func() { DB = oldDB }()

	assert.False(t, IsConnected(context.Background()))
}

// TestClose_ResetsPool verifies Close releases the pool and is idempotent.
func TestClose_ResetsPool(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	oldDB := DB
	DB = mock
	defer func() { DB = oldDB }()

	Close()
	assert.Nil(t, DB)

	Close()
	assert.Nil(t, DB)
}

// TestConnect_RequiresURL verifies misconfiguration is reported before dialing.
func TestConnect_RequiresURL(t *testing.T) {
	assert.Error(t, Connect(context.Background(), nil))
	assert.Error(t, Connect(context.Background(), &Config{}))
}

// TestMigrations_Embedded verifies every up migration has a matching down migration
// and that the archive table carries its full-text index.
func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name()] = true
	}

	for name := range names {
		if strings.HasSuffix(name, ".up.sql") {
			down := strings.TrimSuffix(name, ".up.sql") + ".down.sql"
			assert.True(t, names[down], "missing down migration for %s", name)
		}
	}

	archive, err := fs.ReadFile(Migrations, "migrations/000002_create_archive.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(archive), "to_tsvector('simple'")
	assert.Contains(t, string(archive), "USING GIN (txt_tsv)")
}
