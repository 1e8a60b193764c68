package models

// MarketSnapshot is the per-ZIP aggregate produced by the statistics engine
// or the synthesizer. PriceTrend30d is a percentage clamped to [-10, 10];
// MarketVelocity is average days-on-market divided by 7, one decimal.
type MarketSnapshot struct {
	ZipCode         string  `json:"zipCode"`
	MedianPrice     int64   `json:"medianPrice"`
	DaysOnMarket    float64 `json:"daysOnMarket"`
	InventoryCount  int     `json:"inventoryCount"`
	ActiveListings  int     `json:"activeListings"`
	PriceTrend30d   float64 `json:"priceTrend30d"`
	AvgPricePerSqft float64 `json:"avgPricePerSqft"`
	MarketVelocity  float64 `json:"marketVelocity"`
	Synthetic       bool    `json:"synthetic"`
}

// Normalize enforces the snapshot invariants in place: counts are clamped to
// zero and the 30-day trend is clamped to the [-10, 10] band.
func (s *MarketSnapshot) Normalize() {
	if s.MedianPrice < 0 {
		s.MedianPrice = 0
	}
	if s.InventoryCount < 0 {
		s.InventoryCount = 0
	}
	if s.ActiveListings < 0 {
		s.ActiveListings = 0
	}
	if s.DaysOnMarket < 0 {
		s.DaysOnMarket = 0
	}
	s.PriceTrend30d = ClampTrend(s.PriceTrend30d)
}

// ClampTrend clamps a 30-day price trend percentage to the [-10, 10] band
func ClampTrend(trend float64) float64 {
	if trend > 10 {
		return 10
	}
	if trend < -10 {
		return -10
	}
	return trend
}
