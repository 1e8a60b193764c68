// Package service orchestrates the market-data aggregation flow: cache
// lookup, ordered upstream strategy attempts, extraction, matching or
// statistics, synthesis fallback, and cache write-back. The precedence is
// fixed: cache before upstream, upstream before synthesis, and "not listed"
// is a terminal result distinct from synthesis.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/home-scanner/internal/config"
	"github.com/home-scanner/internal/errors"
	"github.com/home-scanner/internal/logging"
	"github.com/home-scanner/internal/match"
	"github.com/home-scanner/internal/models"
	"github.com/home-scanner/internal/stats"
	"github.com/home-scanner/internal/storage"
	"github.com/home-scanner/internal/upstream"
)

// Cache is the subset of the layered cache the aggregator consumes
type Cache interface {
	Get(ctx context.Context, key string) (*models.CacheEntry, bool)
	Put(ctx context.Context, key string, kind models.CacheKind, payload interface{}, ttl time.Duration)
}

// Synthesizer produces deterministic substitute data on total upstream
// failure
type Synthesizer interface {
	MarketSnapshot(zipCode string) *models.MarketSnapshot
	Listing(address string) *models.ListingRecord
}

// Aggregator is the top-level market-data aggregation engine
type Aggregator struct {
	cache       Cache
	strategies  []upstream.QueryStrategy
	synthesizer Synthesizer
	ttl         config.CacheConfig
	credentials bool
	resultLimit int
	logger      *logging.Logger
}

// NewAggregator creates an aggregator. Strategies are attempted in slice
// order; hasCredentials=false skips upstream entirely and synthesizes.
func NewAggregator(
	cache Cache,
	strategies []upstream.QueryStrategy,
	synthesizer Synthesizer,
	ttl config.CacheConfig,
	hasCredentials bool,
	resultLimit int,
	logger *logging.Logger,
) *Aggregator {
	return &Aggregator{
		cache:       cache,
		strategies:  strategies,
		synthesizer: synthesizer,
		ttl:         ttl,
		credentials: hasCredentials,
		resultLimit: resultLimit,
		logger:      logger,
	}
}

// GetMarketData returns the market snapshot for a ZIP code. Cache is
// consulted first; on a miss the strategies run in order and the statistics
// engine aggregates whatever was extracted. Any total failure degrades to a
// deterministic synthetic snapshot, never an error.
func (a *Aggregator) GetMarketData(ctx context.Context, zipCode string) (*models.MarketSnapshot, error) {
	if zipCode == "" {
		return nil, errors.NewValidationError("zip", "must not be empty")
	}

	snapshot, _ := a.getMarketData(ctx, zipCode)
	return snapshot, nil
}

// getMarketData additionally reports whether the result came from cache,
// which the bulk scanner uses to pace upstream calls
func (a *Aggregator) getMarketData(ctx context.Context, zipCode string) (snapshot *models.MarketSnapshot, fromCache bool) {
	logger := logging.FromContext(ctx).WithField("zip", zipCode)
	key := storage.MarketKey(zipCode)

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Market aggregation fault, degrading to synthetic snapshot")
			snapshot = a.synthesizer.MarketSnapshot(zipCode)
			fromCache = false
		}
	}()

	if entry, found := a.cache.Get(ctx, key); found && entry.Kind == models.CacheKindMarket {
		var cached models.MarketSnapshot
		if err := json.Unmarshal(entry.Payload, &cached); err == nil {
			logger.Debug("Market snapshot served from cache")
			return &cached, true
		}
		logger.Warn("Corrupt cached market snapshot, re-aggregating")
	}

	params := upstream.QueryParams{PostalCode: zipCode, Limit: a.resultLimit}
	records, err := a.fetchRecords(ctx, params)
	if err != nil || len(records) == 0 {
		// Quota, hard miss, exhaustion, and empty extraction all end in
		// synthesis for market snapshots
		result := a.synthesizer.MarketSnapshot(zipCode)
		a.cache.Put(ctx, key, models.CacheKindMarket, result, a.ttl.SyntheticTTL)
		logger.WithField("reason", synthesisReason(err)).Info("Market snapshot synthesized")
		return result, false
	}

	computed := stats.ComputeMetrics(zipCode, records)
	a.cache.Put(ctx, key, models.CacheKindMarket, &computed, a.ttl.MarketTTL)
	logger.WithField("records", len(records)).Info("Market snapshot aggregated from upstream")
	return &computed, false
}

// CheckListingStatus returns the canonical listing record for an address.
// "Not listed" (zero matching candidates from a successful upstream query) is
// a valid terminal result and is cached as an explicit marker; synthesis is
// reserved for total upstream failure.
func (a *Aggregator) CheckListingStatus(ctx context.Context, address, zipCode string) (*models.ListingRecord, error) {
	if address == "" {
		return nil, errors.NewValidationError("address", "must not be empty")
	}

	record, _ := a.checkListingStatus(ctx, address, zipCode)
	return record, nil
}

func (a *Aggregator) checkListingStatus(ctx context.Context, address, zipCode string) (record *models.ListingRecord, fromCache bool) {
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"address": address,
		"zip":     zipCode,
	})
	key := storage.ListingKey(address, zipCode)

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Listing aggregation fault, degrading to synthetic record")
			record = a.synthesizer.Listing(address)
			fromCache = false
		}
	}()

	if entry, found := a.cache.Get(ctx, key); found {
		switch entry.Kind {
		case models.CacheKindNotFound:
			logger.Debug("Not-listed marker served from cache")
			return models.NotListedRecord(address), true
		case models.CacheKindListing:
			var cached models.ListingRecord
			if err := json.Unmarshal(entry.Payload, &cached); err == nil {
				logger.Debug("Listing record served from cache")
				return &cached, true
			}
			logger.Warn("Corrupt cached listing record, re-aggregating")
		}
	}

	params := upstream.QueryParams{Address: address, PostalCode: zipCode, Limit: a.resultLimit}
	records, err := a.fetchRecords(ctx, params)
	if err != nil || len(records) == 0 {
		result := a.synthesizer.Listing(address)
		a.cache.Put(ctx, key, models.CacheKindListing, result, a.ttl.SyntheticTTL)
		logger.WithField("reason", synthesisReason(err)).Info("Listing record synthesized")
		return result, false
	}

	candidate, matched := match.FindBestMatch(records, address)
	if !matched {
		// A successful upstream query with zero matching candidates means
		// the address is legitimately not listed, not that data is missing
		a.cache.Put(ctx, key, models.CacheKindNotFound, models.NotListedRecord(address), a.ttl.NotFoundTTL)
		logger.WithField("candidates", len(records)).Info("Address not listed in any candidate")
		return models.NotListedRecord(address), false
	}

	result := mapRawListing(candidate, address)
	a.cache.Put(ctx, key, models.CacheKindListing, result, a.ttl.ListingTTL)
	logger.WithField("status", result.Status).Info("Listing record aggregated from upstream")
	return result, false
}

// fetchRecords runs the strategy chain: strictly sequential, first non-error
// non-empty extraction wins. A quota error or hard miss stops the chain
// immediately; transient failures and empty extractions fall through to the
// next strategy.
func (a *Aggregator) fetchRecords(ctx context.Context, params upstream.QueryParams) ([]models.RawPropertyRecord, error) {
	logger := logging.FromContext(ctx)

	if !a.credentials {
		logger.Debug("No upstream credentials configured, skipping strategies")
		return nil, errors.NewUpstreamUnavailableError("listing-provider", nil)
	}

	var lastErr error
	for _, strategy := range a.strategies {
		raw, err := strategy.Query(ctx, params)
		if err != nil {
			if errors.IsQuotaExceeded(err) || errors.IsHardMiss(err) {
				logger.WithError(err).WithField("strategy", strategy.Name()).Warn("Strategy chain stopped")
				return nil, err
			}
			logger.WithError(err).WithField("strategy", strategy.Name()).Warn("Strategy failed, trying next")
			lastErr = err
			continue
		}

		records := upstream.Extract(raw.Body)
		if len(records) == 0 {
			logger.WithField("strategy", strategy.Name()).Debug("Strategy returned no usable records, trying next")
			lastErr = errors.NewMalformedPayloadError(strategy.Name(), nil)
			continue
		}

		logger.WithFields(map[string]interface{}{
			"strategy": strategy.Name(),
			"records":  len(records),
		}).Debug("Strategy succeeded")
		return records, nil
	}

	if lastErr == nil {
		lastErr = errors.NewUpstreamUnavailableError("listing-provider", nil)
	}
	return nil, lastErr
}

// synthesisReason labels why synthesis kicked in, for the logs
func synthesisReason(err error) string {
	switch {
	case err == nil:
		return "empty_extraction"
	case errors.IsQuotaExceeded(err):
		return "quota_exceeded"
	case errors.IsHardMiss(err):
		return "upstream_rejected"
	default:
		return "upstream_unavailable"
	}
}
