package service

import (
	"context"
	"sync"
	"time"

	"github.com/home-scanner/internal/errors"
	"github.com/home-scanner/internal/logging"
	"github.com/home-scanner/internal/models"
)

// PropertyInsights combines a listing lookup and a market snapshot for the
// same property
type PropertyInsights struct {
	Listing *models.ListingRecord  `json:"listing"`
	Market  *models.MarketSnapshot `json:"market"`
}

// GetPropertyInsights runs the listing lookup and the market aggregation
// concurrently. The two flows are independent and share no mutable state, so
// this is the one place fan-out is allowed.
func (a *Aggregator) GetPropertyInsights(ctx context.Context, address, zipCode string) (*PropertyInsights, error) {
	if address == "" {
		return nil, errors.NewValidationError("address", "must not be empty")
	}
	if zipCode == "" {
		return nil, errors.NewValidationError("zip", "must not be empty")
	}

	insights := &PropertyInsights{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		insights.Listing, _ = a.checkListingStatus(ctx, address, zipCode)
	}()
	go func() {
		defer wg.Done()
		insights.Market, _ = a.getMarketData(ctx, zipCode)
	}()
	wg.Wait()

	return insights, nil
}

// AddressQuery is one entry of a bulk scan request
type AddressQuery struct {
	Address string `json:"address"`
	ZipCode string `json:"zip"`
}

// ScanResult is the outcome for one address of a bulk scan
type ScanResult struct {
	Address string                `json:"address"`
	ZipCode string                `json:"zip"`
	Listing *models.ListingRecord `json:"listing"`
}

// BulkScanner paces a multi-address scan so successive upstream calls respect
// provider rate limits. Addresses are processed sequentially; a fixed pause
// is inserted after every lookup that actually hit upstream. Cache hits do
// not pause.
type BulkScanner struct {
	aggregator *Aggregator
	callDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration)
}

// NewBulkScanner creates a bulk scanner over the aggregator
func NewBulkScanner(aggregator *Aggregator, callDelay time.Duration) *BulkScanner {
	return &BulkScanner{
		aggregator: aggregator,
		callDelay:  callDelay,
		sleep:      contextSleep,
	}
}

// ScanAddresses looks up every address in order. Invalid entries are skipped
// with a log line; the scan never aborts part-way on a single bad address.
func (b *BulkScanner) ScanAddresses(ctx context.Context, queries []AddressQuery) []ScanResult {
	logger := logging.FromContext(ctx)
	results := make([]ScanResult, 0, len(queries))

	for i, query := range queries {
		if query.Address == "" {
			logger.WithField("index", i).Warn("Skipping bulk entry with empty address")
			continue
		}
		if ctx.Err() != nil {
			logger.WithField("processed", len(results)).Warn("Bulk scan cancelled")
			break
		}

		record, fromCache := b.aggregator.checkListingStatus(ctx, query.Address, query.ZipCode)
		results = append(results, ScanResult{
			Address: query.Address,
			ZipCode: query.ZipCode,
			Listing: record,
		})

		if !fromCache && i < len(queries)-1 {
			b.sleep(ctx, b.callDelay)
		}
	}

	return results
}

// contextSleep sleeps for d or until the context is cancelled
func contextSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
