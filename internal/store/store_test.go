package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore opens a fresh database in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// queryStrings runs a single-column query and collects the results.
func queryStrings(t *testing.T, db *sql.DB, query string, args ...any) []string {
	t.Helper()
	rows, err := db.Query(query, args...)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		out = append(out, s)
	}
	require.NoError(t, rows.Err())
	return out
}

func columnsOf(t *testing.T, db *sql.DB, table string) []string {
	return queryStrings(t, db, "SELECT name FROM pragma_table_info(?)", table)
}

func indexesOf(t *testing.T, db *sql.DB, table string) []string {
	return queryStrings(t, db, "SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
}

func TestOpen_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.db")
	for range 3 {
		s, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	tables := queryStrings(t, s.db, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	assert.Subset(t, tables, []string{"frames", "patterns"})
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestClose_ZeroStore(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestDB_Usable(t *testing.T) {
	s := createTestStore(t)
	require.NotNil(t, s.DB())
	assert.NoError(t, s.DB().Ping())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
		"user_version": "1",
	} {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(name, want))
		})
	}
}

func TestSchema(t *testing.T) {
	s := createTestStore(t)

	assert.Subset(t, columnsOf(t, s.db, "patterns"),
		[]string{"id", "name", "width", "height", "frame_count", "revision", "digest"})
	assert.Subset(t, columnsOf(t, s.db, "frames"),
		[]string{"pattern_id", "idx", "duration_ms", "pixels", "digest"})
	assert.Contains(t, indexesOf(t, s.db, "frames"), "idx_frames_digest")
}

func TestSchema_Constraints(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO patterns (id, name, width, height, frame_count, digest) VALUES ('p', 'x', 0, 1, 0, '')`)
	assert.Error(t, err, "zero width violates CHECK")

	_, err = s.db.Exec(`INSERT INTO frames (pattern_id, idx, duration_ms, pixels, digest) VALUES ('missing', 0, 10, x'000000', '')`)
	assert.Error(t, err, "frame for an unknown pattern violates the foreign key")
}

func TestOpen_MigratesOlderDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	s, err := Open(path)
	require.NoError(t, err)
	for _, stmt := range []string{"DROP INDEX idx_frames_digest", "PRAGMA user_version = 0"} {
		_, err := s.db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.verifyPragma("user_version", "1"))
	assert.Contains(t, indexesOf(t, s.db, "frames"), "idx_frames_digest")
}

func TestOpen_ChecksRequiredPragmas(t *testing.T) {
	s := createTestStore(t)
	for _, p := range requiredPragmas {
		assert.NoError(t, s.verifyPragma(p.name, p.want), p.name)
	}

	err := s.verifyPragma("journal_mode", "delete")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `journal_mode = "wal"`)
}
