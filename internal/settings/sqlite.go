package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// OpenSQLite opens (creating if needed) the settings database at path.
func OpenSQLite(path string, log logrus.FieldLogger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: single owner, and pragmas apply per connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, log: log}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	// synchronous=FULL fsyncs every commit so a write is on disk when Put returns.
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA synchronous = FULL`,
		`CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create settings table: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) get(key string) (string, bool) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("settings read failed, using default")
		return "", false
	}
	return v, true
}

const upsertStmt = `
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value;
`

func (s *SQLiteStore) put(key, value string) error {
	if _, err := s.db.Exec(upsertStmt, key, value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// GetString returns the stored string for key, or def.
func (s *SQLiteStore) GetString(key, def string) string {
	v, ok := s.get(key)
	if !ok {
		return def
	}
	return v
}

// GetFloat returns the stored float for key, or def if the key is missing
// or does not hold a number.
func (s *SQLiteStore) GetFloat(key string, def float64) float64 {
	v, ok := s.get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		s.log.WithField("key", key).Warnf("stored value %q is not a number, using default", v)
		return def
	}
	return f
}

// PutString stores value under key.
func (s *SQLiteStore) PutString(key, value string) error {
	return s.put(key, value)
}

// PutFloat stores value under key.
func (s *SQLiteStore) PutFloat(key string, value float64) error {
	return s.put(key, formatFloat(value))
}

// Apply writes b in a single transaction.
func (s *SQLiteStore) Apply(b Batch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin settings batch: %w", err)
	}

	for _, key := range slices.Sorted(maps.Keys(b.Strings)) {
		if _, err := tx.Exec(upsertStmt, key, b.Strings[key]); err != nil {
			tx.Rollback()
			return fmt.Errorf("put %s: %w", key, err)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(b.Floats)) {
		if _, err := tx.Exec(upsertStmt, key, formatFloat(b.Floats[key])); err != nil {
			tx.Rollback()
			return fmt.Errorf("put %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings batch: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
