package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prn-tf/product-manager/internal/repository"
)

// kvStore implements repository.KVStore on the kv_entries table, giving the
// CLI a durable key-value store in the same file as the indexed data.
type kvStore struct {
	db  *DB
	now func() time.Time
}

// NewKVStore creates a KV store backed by the kv_entries table.
func NewKVStore(db *DB) repository.KVStore {
	return &kvStore{db: db, now: time.Now}
}

// Get retrieves a value by key. Expired entries are treated as missing.
func (s *kvStore) Get(ctx context.Context, key string) ([]byte, error) {
	row, err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM kv_entries WHERE key = ?`, key)
	if err != nil {
		return nil, err
	}

	var value []byte
	var expiresAt sql.NullString
	if err := row.Scan(&value, &expiresAt); err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key %q: %w", key, err)
	}

	exp, err := parseNullTime(expiresAt)
	if err != nil {
		return nil, fmt.Errorf("key %q expires_at: %w", key, err)
	}
	if exp != nil && s.now().After(*exp) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key)
		return nil, repository.ErrNotFound
	}
	return value, nil
}

// Set stores a value with an optional TTL.
func (s *kvStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := s.now().Add(ttl)
		expiresAt = &t
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, formatNullTime(expiresAt))
	if err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// Delete removes a value by key.
func (s *kvStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Exists checks if a key exists.
func (s *kvStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Clear removes every entry.
func (s *kvStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries`); err != nil {
		return fmt.Errorf("failed to clear kv entries: %w", err)
	}
	return nil
}

// Close is a no-op; the owning DB is closed separately.
func (s *kvStore) Close() error {
	return nil
}

// Ensure kvStore implements repository.KVStore.
var _ repository.KVStore = (*kvStore)(nil)
