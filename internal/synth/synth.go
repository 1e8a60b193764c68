// Package synth generates deterministic, plausible substitute records for
// when no genuine upstream data is available. The same ZIP or address always
// yields the same output: all values derive from a seed computed from the
// input string, with no hidden randomness and no wall-clock dependence beyond
// relative date offsets.
package synth

import (
	"fmt"
	"math"
	"time"

	"github.com/home-scanner/internal/models"
)

// price tier breakpoints by numeric ZIP range
const (
	tierWest      = 750000 // ZIP >= 90000
	tierMountain  = 450000 // ZIP >= 80000
	tierCentral   = 350000 // ZIP >= 60000
	tierSouth     = 400000 // ZIP >= 30000
	tierNortheast = 550000 // ZIP >= 10000
	tierDefault   = 500000
)

// statusWeight is one bucket of the cumulative status distribution
type statusWeight struct {
	status models.ListingStatus
	weight float64
}

// statusWeights is the fixed distribution synthetic listings are drawn from.
// Most addresses are simply not on the market.
var statusWeights = []statusWeight{
	{models.StatusNotListed, 0.70},
	{models.StatusForSale, 0.15},
	{models.StatusSold, 0.10},
	{models.StatusOffMarket, 0.05},
}

var syntheticFeatures = []string{
	"hardwood floors",
	"updated kitchen",
	"central air",
	"attached garage",
	"fenced yard",
	"finished basement",
	"stainless appliances",
	"walk-in closet",
}

// Synthesizer produces deterministic substitute listing and market data
type Synthesizer struct{}

// NewSynthesizer creates a synthesizer
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// MarketSnapshot synthesizes a per-ZIP market snapshot. The seed comes from
// the ZIP's numeric value; variation and market heat are fixed transforms of
// the seed, and every field is an affine function of those two scalars.
func (s *Synthesizer) MarketSnapshot(zipCode string) *models.MarketSnapshot {
	seed := zipSeed(zipCode)
	basePrice := basePriceTier(seed)

	variation := math.Sin(float64(seed)) * 0.15
	marketHeat := float64(seed%100) / 100

	medianPrice := int64(math.Round(float64(basePrice) * (1 + variation)))
	daysOnMarket := round1(20 + (1-marketHeat)*40)
	inventoryCount := 50 + int(seed%150)
	activeListings := int(math.Round(float64(inventoryCount) * (0.3 + marketHeat*0.4)))
	avgPricePerSqft := math.Round(float64(medianPrice) / (900 + marketHeat*600))

	snapshot := &models.MarketSnapshot{
		ZipCode:         zipCode,
		MedianPrice:     medianPrice,
		DaysOnMarket:    daysOnMarket,
		InventoryCount:  inventoryCount,
		ActiveListings:  activeListings,
		PriceTrend30d:   models.ClampTrend(round2(variation * 100)),
		AvgPricePerSqft: avgPricePerSqft,
		MarketVelocity:  round1(daysOnMarket / 7),
		Synthetic:       true,
	}
	snapshot.Normalize()
	return snapshot
}

// Listing synthesizes a per-address listing record. The seed is the byte sum
// of the address; the status is drawn from the fixed weighted distribution by
// cumulative-weight sampling on the normalized seed.
func (s *Synthesizer) Listing(address string) *models.ListingRecord {
	seed := addressSeed(address)
	status := sampleStatus(float64(seed%1000) / 1000)

	record := &models.ListingRecord{
		Address:   address,
		Status:    status,
		Synthetic: true,
	}

	bedrooms := float64(2 + seed%4)
	bathrooms := 1 + float64(seed%5)/2
	sqft := 900 + int(seed%28)*100
	yearBuilt := 1950 + int(seed%70)
	price := int64(sqft) * int64(150+seed%200)

	record.Bedrooms = &bedrooms
	record.Bathrooms = &bathrooms
	record.SquareFeet = &sqft
	record.YearBuilt = &yearBuilt

	switch status {
	case models.StatusForSale:
		record.Price = &price
		record.DaysOnMarket = 5 + int(seed%90)
		record.Photos = syntheticPhotos(seed)
		record.Features = syntheticFeatureSet(seed)
		propertyType := "single_family"
		record.PropertyType = &propertyType
		record.ListingHistory = []models.ListingEvent{
			{Date: daysAgo(record.DaysOnMarket), Event: "listed", Price: &price},
		}
	case models.StatusSold:
		record.Price = &price
		record.ListingHistory = []models.ListingEvent{
			{Date: daysAgo(30 + int(seed%300)), Event: "sold", Price: &price},
		}
	}

	record.Normalize()
	return record
}

// zipSeed derives a numeric seed from the digits of a ZIP code, falling back
// to the byte sum for non-numeric input
func zipSeed(zipCode string) uint64 {
	var numeric uint64
	sawDigit := false
	for _, r := range zipCode {
		if r >= '0' && r <= '9' {
			numeric = numeric*10 + uint64(r-'0')
			sawDigit = true
		}
	}
	if sawDigit {
		return numeric
	}
	return addressSeed(zipCode)
}

// addressSeed derives a seed from the byte values of an address string
func addressSeed(address string) uint64 {
	var sum uint64
	for i := 0; i < len(address); i++ {
		sum += uint64(address[i])
	}
	return sum
}

// basePriceTier selects the base price for a ZIP's numeric range
func basePriceTier(seed uint64) int64 {
	switch {
	case seed >= 90000:
		return tierWest
	case seed >= 80000:
		return tierMountain
	case seed >= 60000:
		return tierCentral
	case seed >= 30000:
		return tierSouth
	case seed >= 10000:
		return tierNortheast
	default:
		return tierDefault
	}
}

// sampleStatus picks a status by cumulative-weight sampling on a value in
// [0, 1)
func sampleStatus(normalized float64) models.ListingStatus {
	cumulative := 0.0
	for _, bucket := range statusWeights {
		cumulative += bucket.weight
		if normalized < cumulative {
			return bucket.status
		}
	}
	return statusWeights[len(statusWeights)-1].status
}

// syntheticPhotos builds a deterministic photo list for a for-sale record
func syntheticPhotos(seed uint64) []string {
	count := 3 + int(seed%4)
	photos := make([]string, 0, count)
	for i := 0; i < count; i++ {
		photos = append(photos, fmt.Sprintf("https://photos.home-scanner.example/%d/%d.jpg", seed, i+1))
	}
	return photos
}

// syntheticFeatureSet picks a deterministic subset of the feature pool
func syntheticFeatureSet(seed uint64) []string {
	count := 2 + int(seed%3)
	features := make([]string, 0, count)
	for i := 0; i < count; i++ {
		features = append(features, syntheticFeatures[(int(seed)+i*3)%len(syntheticFeatures)])
	}
	return features
}

// daysAgo returns a date the given number of days in the past, truncated to
// the day so repeated calls within a day stay stable
func daysAgo(days int) time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -days)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
