package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteAppliesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "paddock.db")

	db, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('simulation_records', 'allocation_plans')`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// reopening an existing store is a no-op for the schema
	again, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	assert.NoError(t, again.Close())
}
