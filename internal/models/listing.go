package models

import "time"

// ListingStatus represents the market status of a single property
type ListingStatus string

const (
	StatusForSale   ListingStatus = "for_sale"
	StatusForRent   ListingStatus = "for_rent"
	StatusSold      ListingStatus = "sold"
	StatusPending   ListingStatus = "pending"
	StatusOffMarket ListingStatus = "off_market"
	StatusNotListed ListingStatus = "not_listed"
	StatusUnknown   ListingStatus = "unknown"
)

// ValidStatuses is the closed set of listing statuses
var ValidStatuses = map[ListingStatus]bool{
	StatusForSale:   true,
	StatusForRent:   true,
	StatusSold:      true,
	StatusPending:   true,
	StatusOffMarket: true,
	StatusNotListed: true,
	StatusUnknown:   true,
}

// MaxPhotos caps the photo list carried on a listing record
const MaxPhotos = 12

// MaxFeatures caps the feature list carried on a listing record
const MaxFeatures = 20

// ListingEvent is one entry in a property's listing history
type ListingEvent struct {
	Date  time.Time `json:"date"`
	Event string    `json:"event"`
	Price *int64    `json:"price,omitempty"`
}

// ListingRecord is the canonical per-property record produced by the aggregator.
// Prices are integer currency units. Optional fields are pointers so the JSON
// shape distinguishes "absent" from zero.
type ListingRecord struct {
	Address        string         `json:"address"`
	Status         ListingStatus  `json:"status"`
	Price          *int64         `json:"price,omitempty"`
	DaysOnMarket   int            `json:"daysOnMarket"`
	AgentName      *string        `json:"agentName,omitempty"`
	AgentPhone     *string        `json:"agentPhone,omitempty"`
	Bedrooms       *float64       `json:"bedrooms,omitempty"`
	Bathrooms      *float64       `json:"bathrooms,omitempty"`
	SquareFeet     *int           `json:"squareFeet,omitempty"`
	LotSize        *int           `json:"lotSize,omitempty"`
	PropertyType   *string        `json:"propertyType,omitempty"`
	YearBuilt      *int           `json:"yearBuilt,omitempty"`
	Photos         []string       `json:"photos,omitempty"`
	Features       []string       `json:"features,omitempty"`
	ListingHistory []ListingEvent `json:"listingHistory,omitempty"`
	Synthetic      bool           `json:"synthetic"`
}

// Normalize enforces the record invariants in place: status is forced into the
// enum, negative prices and days-on-market are cleared, and the photo/feature
// lists are deduplicated and bounded.
func (r *ListingRecord) Normalize() {
	if !ValidStatuses[r.Status] {
		r.Status = StatusUnknown
	}
	if r.Price != nil && *r.Price < 0 {
		r.Price = nil
	}
	if r.DaysOnMarket < 0 {
		r.DaysOnMarket = 0
	}
	r.Photos = dedupeBounded(r.Photos, MaxPhotos)
	r.Features = dedupeBounded(r.Features, MaxFeatures)
}

// dedupeBounded removes duplicates preserving order and truncates to max
func dedupeBounded(values []string, max int) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
		if len(result) == max {
			break
		}
	}
	return result
}

// NotListedRecord returns the terminal "not listed" result for an address.
// This is a legitimate outcome of a successful upstream query, distinct from
// a synthesized record.
func NotListedRecord(address string) *ListingRecord {
	return &ListingRecord{
		Address: address,
		Status:  StatusNotListed,
	}
}
