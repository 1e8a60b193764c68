package models

import (
	"encoding/json"
	"time"
)

// CacheKind tags what a cache entry's payload contains
type CacheKind string

const (
	// CacheKindListing is a cached ListingRecord
	CacheKindListing CacheKind = "listing"
	// CacheKindMarket is a cached MarketSnapshot
	CacheKindMarket CacheKind = "market"
	// CacheKindNotFound is an explicit "address not listed" marker, cached so
	// repeated lookups for an unlisted address do not re-hit upstream
	CacheKindNotFound CacheKind = "not_found"
)

// CacheEntry is one row of the key-value cache. An entry whose ExpiresAt has
// passed is logically absent regardless of whether it has been physically
// deleted; readers must filter on expiry.
type CacheEntry struct {
	Key       string          `json:"key"`
	Kind      CacheKind       `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CachedAt  time.Time       `json:"cachedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Expired reports whether the entry is past its TTL at the given instant
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// RemainingTTL returns how long the entry is still valid for, or zero if
// already expired
func (e *CacheEntry) RemainingTTL(now time.Time) time.Duration {
	if e.Expired(now) {
		return 0
	}
	return e.ExpiresAt.Sub(now)
}
