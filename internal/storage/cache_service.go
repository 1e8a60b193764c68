package storage

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/home-scanner/internal/logging"
	"github.com/home-scanner/internal/models"
)

// CacheService layers the Redis hot tier over the Postgres durable tier.
// Reads check Redis first, then Postgres; a Postgres hit re-primes Redis with
// the remaining TTL. Either tier failing degrades that tier to a miss/no-op
// and is logged, never returned to the aggregation path as a hard failure.
type CacheService struct {
	redis  *RedisCache
	store  *CacheStore
	logger *logging.Logger
	now    func() time.Time
}

// NewCacheService creates a layered cache service. Both tiers are optional;
// a nil tier is skipped.
func NewCacheService(redis *RedisCache, store *CacheStore, logger *logging.Logger) *CacheService {
	return &CacheService{
		redis:  redis,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the time source. Used by tests to control expiry.
func (c *CacheService) SetClock(now func() time.Time) {
	c.now = now
}

// MarketKey returns the cache key for a ZIP-level market snapshot
func MarketKey(zipCode string) string {
	return "market_" + strings.ToLower(strings.TrimSpace(zipCode))
}

// ListingKey returns the cache key for a per-address listing lookup
func ListingKey(address, zipCode string) string {
	normalized := strings.ToLower(strings.TrimSpace(address))
	normalized = strings.Join(strings.Fields(normalized), "-")
	return "listing_" + normalized + "_" + strings.ToLower(strings.TrimSpace(zipCode))
}

// Get returns the unexpired entry for key from the fastest tier that has it
func (c *CacheService) Get(ctx context.Context, key string) (*models.CacheEntry, bool) {
	now := c.now()

	if c.redis != nil {
		data, found, err := c.redis.Get(ctx, key)
		if err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Redis read failed, falling through to durable tier")
		} else if found {
			var entry models.CacheEntry
			if err := json.Unmarshal(data, &entry); err != nil {
				c.logger.WithError(err).WithField("key", key).Warn("Corrupt cache entry in Redis, ignoring")
			} else if !entry.Expired(now) {
				return &entry, true
			}
		}
	}

	if c.store != nil {
		entry, found, err := c.store.Get(ctx, key, now)
		if err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Durable cache read failed, treating as miss")
			return nil, false
		}
		if found {
			c.primeHotTier(ctx, entry)
			return entry, true
		}
	}

	return nil, false
}

// Put writes the payload to both tiers with the given TTL. Failures are
// logged per tier; a write failing must never fail the caller's request.
func (c *CacheService) Put(ctx context.Context, key string, kind models.CacheKind, payload interface{}, ttl time.Duration) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to marshal cache payload")
		return
	}

	now := c.now()
	entry := &models.CacheEntry{
		Key:       key,
		Kind:      kind,
		Payload:   json.RawMessage(data),
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	if c.store != nil {
		if err := c.store.Put(ctx, entry); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Durable cache write failed")
		}
	}

	if c.redis != nil {
		entryData, err := json.Marshal(entry)
		if err != nil {
			c.logger.WithError(err).WithField("key", key).Error("Failed to marshal cache entry")
			return
		}
		if err := c.redis.Set(ctx, key, entryData, ttl); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Redis write failed")
		}
	}
}

// Invalidate removes the keys from both tiers
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if c.redis != nil {
		if err := c.redis.Del(ctx, keys...); err != nil {
			c.logger.WithError(err).Warn("Redis invalidation failed")
		}
	}
	if c.store != nil {
		if err := c.store.Delete(ctx, keys...); err != nil {
			c.logger.WithError(err).Warn("Durable cache invalidation failed")
		}
	}
}

// primeHotTier writes a durable-tier hit back into Redis with whatever TTL
// the entry has left
func (c *CacheService) primeHotTier(ctx context.Context, entry *models.CacheEntry) {
	if c.redis == nil {
		return
	}
	remaining := entry.RemainingTTL(c.now())
	if remaining <= 0 {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, entry.Key, data, remaining); err != nil {
		c.logger.WithError(err).WithField("key", entry.Key).Debug("Failed to re-prime hot tier")
	}
}
