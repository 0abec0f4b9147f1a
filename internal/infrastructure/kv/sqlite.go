package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements ports.KVStore over a local SQLite file or an
// in-memory database, adapted from the teacher's SQLiteDatabase adapter:
// the same sql.Open("sqlite", path)/WAL-mode setup, narrowed to the single
// (key, value) table shape the rest of the kv package already uses for
// Postgres. Intended for local development and tests against db_provider
// values that don't warrant a running Redis/Postgres instance.
type SQLiteStore struct {
	db        *sql.DB
	tableName string
}

// NewSQLiteStore opens (creating if needed) a SQLite database at path, or an
// in-memory one when path is empty, and ensures the backing table exists.
func NewSQLiteStore(path, tableName string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value BLOB)`, tableName)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table %s: %w", tableName, err)
	}

	return &SQLiteStore{db: db, tableName: tableName}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = ?", s.tableName)
	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Create(ctx context.Context, key string, item []byte) (bool, error) {
	query := fmt.Sprintf("INSERT OR IGNORE INTO %s (key, value) VALUES (?, ?)", s.tableName)
	result, err := s.db.ExecContext(ctx, query, key, item)
	if err != nil {
		return false, fmt.Errorf("creating key %s: %w", key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected for key %s: %w", key, err)
	}
	return affected == 1, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, item []byte) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		s.tableName,
	)
	if _, err := s.db.ExecContext(ctx, query, key, item); err != nil {
		return fmt.Errorf("putting key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = ?", s.tableName)
	result, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return false, fmt.Errorf("deleting key %s: %w", key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected for key %s: %w", key, err)
	}
	return affected == 1, nil
}
