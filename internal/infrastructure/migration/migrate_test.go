package migration

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&count))
	return count == 1
}

func TestMigrator_EmbeddedSQLite(t *testing.T) {
	db := openSQLite(t)

	m, err := New(db, "sqlite", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer m.Close()

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	for _, table := range []string{"addresses", "support_tickets", "activity_entries"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	version, dirty, err = m.Version()
	require.NoError(t, err)
	assert.NotZero(t, version)
	assert.False(t, dirty)

	// Up again is a no-op.
	require.NoError(t, m.Up())

	require.NoError(t, m.Steps(-1))
	assert.False(t, tableExists(t, db, "activity_entries"))
	assert.True(t, tableExists(t, db, "support_tickets"))

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, db, "addresses"))

	// Close leaves the caller's connection usable.
	require.NoError(t, m.Close())
	assert.NoError(t, db.Ping())
}

func TestMigrator_GoToAndForce(t *testing.T) {
	db := openSQLite(t)
	source := fstest.MapFS{
		"1_first.up.sql":    {Data: []byte("CREATE TABLE first (id INTEGER);")},
		"1_first.down.sql":  {Data: []byte("DROP TABLE first;")},
		"2_second.up.sql":   {Data: []byte("CREATE TABLE second (id INTEGER);")},
		"2_second.down.sql": {Data: []byte("DROP TABLE second;")},
	}

	m, err := NewWithSource(db, "sqlite", source, nil)
	require.NoError(t, err)

	require.NoError(t, m.GoTo(1))
	assert.True(t, tableExists(t, db, "first"))
	assert.False(t, tableExists(t, db, "second"))
	require.NoError(t, m.GoTo(1))

	require.NoError(t, m.Force(2))
	version, _, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(openSQLite(t), "mysql", nil)
	assert.ErrorContains(t, err, "mysql")

	_, err = NewWithSource(openSQLite(t), "mysql", fstest.MapFS{}, nil)
	assert.ErrorContains(t, err, "unsupported migration driver")
}
