package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades the schema from version-1 to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in order against databases whose user_version is older.
// Append only; never edit a released entry.
var migrations = []migration{
	{1, "frame digest index", `CREATE INDEX IF NOT EXISTS idx_frames_digest ON frames(digest)`},
}

// schemaVersion is the user_version of a fully migrated database.
func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

// connPragmas are applied by the driver to every connection it opens.
// busy_timeout is in milliseconds.
var connPragmas = map[string]string{
	"_journal_mode": "WAL",
	"_synchronous":  "NORMAL",
	"_busy_timeout": "5000",
	"_foreign_keys": "1",
}

// Store persists patterns in SQLite.
// WAL mode lets a preview read while the editor saves.
type Store struct {
	db *sql.DB
}

// Open creates or opens the pattern database at path, applying the schema
// and any pending migrations. Deleting a pattern cascades to its frames.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to pattern store %s: %w", path, err)
	}

	// One writer at a time; a single connection also keeps pragmas uniform.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	// The driver ignores pragma parameters it cannot apply, so read the
	// ones frame storage depends on back.
	for _, p := range requiredPragmas {
		if err := s.verifyPragma(p.name, p.want); err != nil {
			db.Close()
			return nil, fmt.Errorf("pattern store %s: %w", path, err)
		}
	}
	return s, nil
}

// requiredPragmas are checked on Open. WAL keeps previews readable during
// saves; foreign keys make deleting a pattern remove its frames.
var requiredPragmas = []struct{ name, want string }{
	{"journal_mode", "wal"},
	{"foreign_keys", "1"},
}

func dsn(path string) string {
	q := url.Values{}
	for k, v := range connPragmas {
		q.Set(k, v)
	}
	return "file:" + path + "?" + q.Encode()
}

// Close closes the database. Safe on a zero Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for tests and ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate brings user_version up to schemaVersion inside one transaction.
func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current >= schemaVersion() {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion())); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// verifyPragma reports an error unless PRAGMA name reads back as want.
func (s *Store) verifyPragma(name, want string) error {
	var got string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if got != want {
		return fmt.Errorf("%s = %q, want %q", name, got, want)
	}
	return nil
}
