package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/home-scanner/internal/models"
	"github.com/jackc/pgx/v5"
)

// CacheStore is the durable cache tier backed by Postgres. Rows persist
// beyond process lifetime; expired rows are filtered at read time rather
// than eagerly deleted.
type CacheStore struct {
	db *PostgresDB
}

// NewCacheStore creates a cache store over an existing Postgres connection
func NewCacheStore(db *PostgresDB) *CacheStore {
	return &CacheStore{db: db}
}

// Get returns the unexpired entry for key, if any. A physically present but
// expired row counts as absent.
func (s *CacheStore) Get(ctx context.Context, key string, now time.Time) (*models.CacheEntry, bool, error) {
	var entry models.CacheEntry
	var payload []byte

	row := s.db.Pool().QueryRow(ctx,
		`SELECT key, kind, payload, cached_at, expires_at
		 FROM market_cache
		 WHERE key = $1 AND expires_at > $2`,
		key, now)

	err := row.Scan(&entry.Key, &entry.Kind, &payload, &entry.CachedAt, &entry.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	entry.Payload = json.RawMessage(payload)
	return &entry, true, nil
}

// Put upserts an entry, last-writer-wins. Refreshing an existing key
// overwrites its payload and expiry wholesale; entries are never partially
// patched.
func (s *CacheStore) Put(ctx context.Context, entry *models.CacheEntry) error {
	_, err := s.db.Pool().Exec(ctx,
		`INSERT INTO market_cache (key, kind, payload, cached_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (key) DO UPDATE SET
		   kind = EXCLUDED.kind,
		   payload = EXCLUDED.payload,
		   cached_at = EXCLUDED.cached_at,
		   expires_at = EXCLUDED.expires_at`,
		entry.Key, entry.Kind, []byte(entry.Payload), entry.CachedAt, entry.ExpiresAt)
	return err
}

// Delete removes entries by key
func (s *CacheStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.Pool().Exec(ctx, `DELETE FROM market_cache WHERE key = ANY($1)`, keys)
	return err
}

// PurgeExpired removes rows past their expiry. Expired rows are already
// invisible to Get; this reclaims space and is safe to run periodically.
func (s *CacheStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Pool().Exec(ctx, `DELETE FROM market_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
