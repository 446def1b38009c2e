package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf2slides/internal/config"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{
		"sqlite3": {DSN: filepath.Join(t.TempDir(), "jobs.db")},
	}}
	db, err := Open("sqlite", cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, "sqlite"))
	// idempotent
	require.NoError(t, Migrate(db, "sqlite3"))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM jobs`).Scan(&count))
	assert.Zero(t, count)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("postgres", &config.Config{Databases: map[string]config.DatabaseConfig{"postgres": {}}})
	assert.Error(t, err)
	_, err = Open("sqlite3", &config.Config{})
	assert.Error(t, err)
	assert.Error(t, Migrate(nil, "oracle"))
}
