// Package kv provides ports.KVStore implementations over the config/GC
// persistence backends selected by db_provider: Redis, Postgres, and
// DynamoDB, plus an in-memory mock for tests.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/asgdns/reconciler/internal/database/postgres"
)

// PostgresStore implements ports.KVStore over a single table with
// (key TEXT PRIMARY KEY, value BYTEA) columns, adapted from the teacher's
// internal/database/postgres connection-pool pattern: PostgresPool's
// Exec/Query/QueryRow are reused directly rather than re-implemented.
type PostgresStore struct {
	pool      *postgres.PostgresPool
	tableName string
}

// NewPostgresStore wraps an already-connected PostgresPool.
func NewPostgresStore(pool *postgres.PostgresPool, tableName string) *PostgresStore {
	return &PostgresStore{pool: pool, tableName: tableName}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", s.tableName)
	var value []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Create(ctx context.Context, key string, item []byte) (bool, error) {
	query := fmt.Sprintf("INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING", s.tableName)
	tag, err := s.pool.Exec(ctx, query, key, item)
	if err != nil {
		return false, fmt.Errorf("creating key %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, item []byte) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
		s.tableName,
	)
	if _, err := s.pool.Exec(ctx, query, key, item); err != nil {
		return fmt.Errorf("putting key %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.tableName)
	tag, err := s.pool.Exec(ctx, query, key)
	if err != nil {
		return false, fmt.Errorf("deleting key %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}
