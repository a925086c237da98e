package migrations_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/slok/magnetctl/internal/storage/sqlite/migrations"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	require.NoError(t, err)
	return count > 0
}

func newMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigratorUp(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	db := newMemoryDB(t)

	m, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db})
	require.NoError(err)

	v, err := m.Version()
	require.NoError(err)
	assert.Equal(uint(0), v)

	v, err = m.Up()
	require.NoError(err)
	assert.Equal(uint(1), v)
	assert.True(tableExists(t, db, "task_events"))

	// Already migrated.
	v, err = m.Up()
	require.NoError(err)
	assert.Equal(uint(1), v)
}

func TestMigratorDirtySchema(t *testing.T) {
	require := require.New(t)
	db := newMemoryDB(t)

	m, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db})
	require.NoError(err)
	_, err = m.Up()
	require.NoError(err)

	_, err = db.Exec(`UPDATE schema_migrations SET dirty = 1`)
	require.NoError(err)

	_, err = m.Version()
	require.ErrorIs(err, migrations.ErrDirtySchema)
}

func TestNewMigratorRequiresDB(t *testing.T) {
	_, err := migrations.NewMigrator(migrations.MigratorConfig{})
	require.Error(t, err)
}
