package identity

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStorage keeps the profile in a single-table SQLite database under
// the user's config directory.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed initializes) the local profile database.
func OpenSQLite(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS profile (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create profile table: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM profile WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read profile key %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStorage) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO profile (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write profile key %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
