package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/home-scanner/internal/config"
	"github.com/home-scanner/internal/errors"
	"github.com/home-scanner/internal/logging"
	"github.com/home-scanner/internal/models"
	"github.com/home-scanner/internal/storage"
	"github.com/home-scanner/internal/synth"
	"github.com/home-scanner/internal/upstream"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*models.CacheEntry
	puts    []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*models.CacheEntry{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) (*models.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, found := c.entries[key]
	return entry, found
}

func (c *memoryCache) Put(ctx context.Context, key string, kind models.CacheKind, payload interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	now := time.Now().UTC()
	c.entries[key] = &models.CacheEntry{
		Key:       key,
		Kind:      kind,
		Payload:   raw,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	c.puts = append(c.puts, key)
}

func (c *memoryCache) seed(t *testing.T, key string, kind models.CacheKind, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}
	now := time.Now().UTC()
	c.entries[key] = &models.CacheEntry{
		Key:       key,
		Kind:      kind,
		Payload:   raw,
		CachedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

type stubStrategy struct {
	name  string
	body  string
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Query(ctx context.Context, params upstream.QueryParams) (*upstream.RawResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &upstream.RawResponse{Source: s.name, Body: []byte(s.body)}, nil
}

func testTTL() config.CacheConfig {
	return config.CacheConfig{
		MarketTTL:    24 * time.Hour,
		ListingTTL:   24 * time.Hour,
		SyntheticTTL: 6 * time.Hour,
		NotFoundTTL:  6 * time.Hour,
	}
}

func newTestAggregator(cache Cache, strategies []upstream.QueryStrategy, hasCredentials bool) *Aggregator {
	logger := logging.NewLogger(logging.LevelError, logging.FormatText)
	return NewAggregator(cache, strategies, synth.NewSynthesizer(), testTTL(), hasCredentials, 50, logger)
}

func marketPayload(prices ...float64) string {
	results := make([]map[string]interface{}, 0, len(prices))
	for _, price := range prices {
		results = append(results, map[string]interface{}{
			"address": "1 Main Street",
			"price":   price,
		})
	}
	raw, _ := json.Marshal(map[string]interface{}{"results": results})
	return string(raw)
}

func TestGetMarketDataCacheBeforeUpstream(t *testing.T) {
	cache := newMemoryCache()
	cache.seed(t, "market_90210", models.CacheKindMarket, &models.MarketSnapshot{
		ZipCode:     "90210",
		MedianPrice: 777000,
	})
	strategy := &stubStrategy{name: "primary", body: marketPayload(100000)}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{strategy}, true)

	snapshot, err := agg.GetMarketData(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if snapshot.MedianPrice != 777000 {
		t.Errorf("Expected cached median 777000, got %d", snapshot.MedianPrice)
	}
	if strategy.calls != 0 {
		t.Errorf("Expected zero upstream calls on cache hit, got %d", strategy.calls)
	}
}

func TestGetMarketDataFallbackOrdering(t *testing.T) {
	cache := newMemoryCache()
	primary := &stubStrategy{name: "primary", err: errors.NewUpstreamUnavailableError("primary", nil)}
	secondary := &stubStrategy{name: "secondary", body: marketPayload(100000, 200000, 300000)}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{primary, secondary}, true)

	snapshot, err := agg.GetMarketData(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if primary.calls != 1 {
		t.Errorf("Expected primary to be attempted exactly once, got %d", primary.calls)
	}
	if secondary.calls != 1 {
		t.Errorf("Expected fallback to secondary, got %d calls", secondary.calls)
	}
	if snapshot.Synthetic {
		t.Error("Expected an aggregated snapshot, not a synthetic one")
	}
	if snapshot.MedianPrice != 200000 {
		t.Errorf("Expected median from secondary data, got %d", snapshot.MedianPrice)
	}
}

func TestGetMarketDataEmptyExtractionFallsThrough(t *testing.T) {
	cache := newMemoryCache()
	primary := &stubStrategy{name: "primary", body: `{"results":[]}`}
	secondary := &stubStrategy{name: "secondary", body: marketPayload(500000)}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{primary, secondary}, true)

	snapshot, _ := agg.GetMarketData(context.Background(), "90210")
	if secondary.calls != 1 {
		t.Errorf("Expected empty extraction to fall through, secondary calls = %d", secondary.calls)
	}
	if snapshot.Synthetic {
		t.Error("Expected aggregated snapshot after fallthrough")
	}
}

func TestGetMarketDataQuotaStopsChain(t *testing.T) {
	cache := newMemoryCache()
	primary := &stubStrategy{name: "primary", err: errors.NewQuotaExceededError("primary")}
	secondary := &stubStrategy{name: "secondary", body: marketPayload(100000)}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{primary, secondary}, true)

	snapshot, err := agg.GetMarketData(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if secondary.calls != 0 {
		t.Errorf("Expected quota error to stop the chain, secondary calls = %d", secondary.calls)
	}
	if !snapshot.Synthetic {
		t.Error("Expected synthetic snapshot after quota exhaustion")
	}

	entry, found := cache.Get(context.Background(), "market_90210")
	if !found {
		t.Fatal("Expected synthetic snapshot to be cached")
	}
	syntheticTTL := entry.ExpiresAt.Sub(entry.CachedAt)
	if syntheticTTL != testTTL().SyntheticTTL {
		t.Errorf("Expected synthetic TTL %v, got %v", testTTL().SyntheticTTL, syntheticTTL)
	}
}

func TestGetMarketDataExhaustionSynthesizes(t *testing.T) {
	cache := newMemoryCache()
	primary := &stubStrategy{name: "primary", err: errors.NewUpstreamUnavailableError("primary", nil)}
	secondary := &stubStrategy{name: "secondary", err: errors.NewUpstreamUnavailableError("secondary", nil)}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{primary, secondary}, true)

	snapshot, _ := agg.GetMarketData(context.Background(), "90210")
	if !snapshot.Synthetic {
		t.Error("Expected synthetic snapshot after chain exhaustion")
	}
	if snapshot.ZipCode != "90210" {
		t.Errorf("Expected synthetic snapshot for requested ZIP, got %s", snapshot.ZipCode)
	}

	// Determinism: a second fully-failed aggregation for the same ZIP yields
	// the same values (served from the synthetic cache entry here)
	again, _ := agg.GetMarketData(context.Background(), "90210")
	if again.MedianPrice != snapshot.MedianPrice {
		t.Errorf("Expected stable synthetic median, got %d then %d", snapshot.MedianPrice, again.MedianPrice)
	}
}

func TestGetMarketDataNoCredentialsSynthesizes(t *testing.T) {
	cache := newMemoryCache()
	strategy := &stubStrategy{name: "primary", body: marketPayload(100000)}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{strategy}, false)

	snapshot, _ := agg.GetMarketData(context.Background(), "90210")
	if !snapshot.Synthetic {
		t.Error("Expected synthetic snapshot without credentials")
	}
	if strategy.calls != 0 {
		t.Errorf("Expected no upstream calls without credentials, got %d", strategy.calls)
	}
}

func TestGetMarketDataIdempotent(t *testing.T) {
	cache := newMemoryCache()
	strategy := &stubStrategy{name: "primary", body: marketPayload(100000, 300000)}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{strategy}, true)

	first, _ := agg.GetMarketData(context.Background(), "90210")
	second, _ := agg.GetMarketData(context.Background(), "90210")

	if strategy.calls != 1 {
		t.Errorf("Expected a single upstream call across two lookups, got %d", strategy.calls)
	}
	if first.MedianPrice != second.MedianPrice || first.InventoryCount != second.InventoryCount {
		t.Error("Expected identical results for repeated lookups")
	}
}

func TestGetMarketDataValidation(t *testing.T) {
	agg := newTestAggregator(newMemoryCache(), nil, true)
	if _, err := agg.GetMarketData(context.Background(), ""); err == nil {
		t.Error("Expected validation error for empty ZIP")
	}
}

func listingPayload(addresses ...string) string {
	results := make([]map[string]interface{}, 0, len(addresses))
	for _, address := range addresses {
		results = append(results, map[string]interface{}{
			"address":    address,
			"homeStatus": "FOR_SALE",
			"price":      425000.0,
		})
	}
	raw, _ := json.Marshal(map[string]interface{}{"results": results})
	return string(raw)
}

func TestCheckListingStatusMatch(t *testing.T) {
	cache := newMemoryCache()
	strategy := &stubStrategy{name: "primary", body: listingPayload("456 Oak Avenue", "123 Main Street")}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{strategy}, true)

	record, err := agg.CheckListingStatus(context.Background(), "123 Main St", "90210")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if record.Status != models.StatusForSale {
		t.Errorf("Expected for_sale, got %s", record.Status)
	}
	if record.Synthetic {
		t.Error("Expected a genuine upstream record")
	}
	if record.Price == nil || *record.Price != 425000 {
		t.Error("Expected price carried over from the matched candidate")
	}

	entry, found := cache.Get(context.Background(), storage.ListingKey("123 Main St", "90210"))
	if !found || entry.Kind != models.CacheKindListing {
		t.Error("Expected the matched record to be cached as a listing")
	}
}

func TestCheckListingStatusNotListedIsTerminal(t *testing.T) {
	cache := newMemoryCache()
	// Upstream succeeds but none of the candidates match the target
	strategy := &stubStrategy{name: "primary", body: listingPayload("456 Oak Avenue", "789 Pine Road")}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{strategy}, true)

	record, err := agg.CheckListingStatus(context.Background(), "123 Main St", "90210")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if record.Status != models.StatusNotListed {
		t.Errorf("Expected not_listed, got %s", record.Status)
	}
	if record.Synthetic {
		t.Error("Not-listed is a real answer, it must not be marked synthetic")
	}

	entry, found := cache.Get(context.Background(), storage.ListingKey("123 Main St", "90210"))
	if !found {
		t.Fatal("Expected a cached not-found marker")
	}
	if entry.Kind != models.CacheKindNotFound {
		t.Errorf("Expected not_found marker kind, got %s", entry.Kind)
	}

	// The marker short-circuits the next lookup
	strategy.calls = 0
	again, _ := agg.CheckListingStatus(context.Background(), "123 Main St", "90210")
	if again.Status != models.StatusNotListed {
		t.Errorf("Expected cached not_listed, got %s", again.Status)
	}
	if strategy.calls != 0 {
		t.Errorf("Expected marker to suppress upstream calls, got %d", strategy.calls)
	}
}

func TestCheckListingStatusSynthesizesOnFailure(t *testing.T) {
	cache := newMemoryCache()
	strategy := &stubStrategy{name: "primary", err: errors.NewUpstreamUnavailableError("primary", nil)}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{strategy}, true)

	record, _ := agg.CheckListingStatus(context.Background(), "123 Main St", "90210")
	if !record.Synthetic {
		t.Error("Expected synthetic record on total upstream failure")
	}
	if record.Address != "123 Main St" {
		t.Errorf("Expected synthetic record for the requested address, got %s", record.Address)
	}
}

func TestCheckListingStatusHardMissSynthesizes(t *testing.T) {
	cache := newMemoryCache()
	primary := &stubStrategy{name: "primary", err: errors.NewHardMissError("primary", 404)}
	secondary := &stubStrategy{name: "secondary", body: listingPayload("123 Main Street")}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{primary, secondary}, true)

	record, _ := agg.CheckListingStatus(context.Background(), "123 Main St", "90210")
	if secondary.calls != 0 {
		t.Errorf("Expected hard miss to stop the chain, secondary calls = %d", secondary.calls)
	}
	if !record.Synthetic {
		t.Error("Expected synthetic record after a hard miss")
	}
}

func TestCheckListingStatusValidation(t *testing.T) {
	agg := newTestAggregator(newMemoryCache(), nil, true)
	if _, err := agg.CheckListingStatus(context.Background(), "", "90210"); err == nil {
		t.Error("Expected validation error for empty address")
	}
}

func TestGetPropertyInsights(t *testing.T) {
	cache := newMemoryCache()
	strategy := &stubStrategy{name: "primary", body: listingPayload("123 Main Street")}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{strategy}, true)

	insights, err := agg.GetPropertyInsights(context.Background(), "123 Main St", "90210")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if insights.Listing == nil || insights.Market == nil {
		t.Fatal("Expected both listing and market results")
	}
	if insights.Listing.Status != models.StatusForSale {
		t.Errorf("Expected for_sale listing, got %s", insights.Listing.Status)
	}
	if insights.Market.ZipCode != "90210" {
		t.Errorf("Expected market snapshot for 90210, got %s", insights.Market.ZipCode)
	}
}

func TestGetPropertyInsightsValidation(t *testing.T) {
	agg := newTestAggregator(newMemoryCache(), nil, true)
	if _, err := agg.GetPropertyInsights(context.Background(), "", "90210"); err == nil {
		t.Error("Expected validation error for empty address")
	}
	if _, err := agg.GetPropertyInsights(context.Background(), "123 Main St", ""); err == nil {
		t.Error("Expected validation error for empty ZIP")
	}
}

func TestBulkScannerPacing(t *testing.T) {
	cache := newMemoryCache()
	strategy := &stubStrategy{name: "primary", body: listingPayload("123 Main Street", "456 Oak Avenue")}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{strategy}, true)

	scanner := NewBulkScanner(agg, 250*time.Millisecond)
	var pauses []time.Duration
	scanner.sleep = func(ctx context.Context, d time.Duration) {
		pauses = append(pauses, d)
	}

	queries := []AddressQuery{
		{Address: "123 Main St", ZipCode: "90210"},
		{Address: "", ZipCode: "90210"},
		{Address: "456 Oak Ave", ZipCode: "90210"},
	}
	results := scanner.ScanAddresses(context.Background(), queries)

	if len(results) != 2 {
		t.Fatalf("Expected 2 results with the empty entry skipped, got %d", len(results))
	}
	// Only the first lookup pauses: the second is the last processed entry
	if len(pauses) != 1 {
		t.Fatalf("Expected 1 pacing pause, got %d", len(pauses))
	}
	if pauses[0] != 250*time.Millisecond {
		t.Errorf("Expected the configured delay, got %v", pauses[0])
	}
}

func TestBulkScannerCacheHitsDoNotPause(t *testing.T) {
	cache := newMemoryCache()
	cache.seed(t, storage.ListingKey("123 Main St", "90210"), models.CacheKindNotFound, models.NotListedRecord("123 Main St"))
	strategy := &stubStrategy{name: "primary", body: listingPayload("456 Oak Avenue")}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{strategy}, true)

	scanner := NewBulkScanner(agg, 250*time.Millisecond)
	paused := 0
	scanner.sleep = func(ctx context.Context, d time.Duration) { paused++ }

	queries := []AddressQuery{
		{Address: "123 Main St", ZipCode: "90210"},
		{Address: "456 Oak Ave", ZipCode: "90210"},
	}
	results := scanner.ScanAddresses(context.Background(), queries)

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if paused != 0 {
		t.Errorf("Expected no pacing pauses, got %d", paused)
	}
}

func TestBulkScannerCancellation(t *testing.T) {
	cache := newMemoryCache()
	strategy := &stubStrategy{name: "primary", body: listingPayload("123 Main Street")}
	agg := newTestAggregator(cache, []upstream.QueryStrategy{strategy}, true)

	scanner := NewBulkScanner(agg, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := scanner.ScanAddresses(ctx, []AddressQuery{
		{Address: "123 Main St", ZipCode: "90210"},
		{Address: "456 Oak Ave", ZipCode: "90210"},
	})
	if len(results) != 0 {
		t.Errorf("Expected cancelled scan to stop before processing, got %d results", len(results))
	}
}
