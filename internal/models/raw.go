package models

import "strconv"

// RawPropertyRecord is one property as returned by an upstream source, before
// normalization. Upstream schemas vary call-to-call, so the record is an
// untyped map with probing accessors that try the field names the known
// sources use. Records are ephemeral and never persisted.
type RawPropertyRecord map[string]interface{}

// String probes the given keys in order and returns the first non-empty
// string value
func (r RawPropertyRecord) String(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := r[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// Number probes the given keys in order and returns the first value that can
// be read as a float64. JSON numbers decode as float64; numeric strings are
// also accepted since some sources quote prices.
func (r RawPropertyRecord) Number(keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case string:
			if parsed, err := strconv.ParseFloat(n, 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

// Nested returns the value at key as a RawPropertyRecord if it is an object
func (r RawPropertyRecord) Nested(key string) (RawPropertyRecord, bool) {
	if v, ok := r[key]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return RawPropertyRecord(m), true
		}
	}
	return nil, false
}

// AddressLine extracts the candidate's address line, probing the flat field
// names first and then the nested address object shapes some sources use
func (r RawPropertyRecord) AddressLine() (string, bool) {
	if s, ok := r.String("address", "streetAddress", "formattedAddress", "fullAddress", "addressLine"); ok {
		return s, true
	}
	if addr, ok := r.Nested("address"); ok {
		return addr.String("streetAddress", "line", "oneLine", "full")
	}
	return "", false
}

// ListPrice extracts the asking price, if any
func (r RawPropertyRecord) ListPrice() (float64, bool) {
	if n, ok := r.Number("price", "listPrice", "unformattedPrice", "askingPrice"); ok && n > 0 {
		return n, true
	}
	return 0, false
}

// BestEstimate extracts a value estimate, preferring the flagged best-estimate
// field over the generic ones
func (r RawPropertyRecord) BestEstimate() (float64, bool) {
	if n, ok := r.Number("bestEstimate", "zestimate", "estimate", "estimatedValue", "valuation"); ok && n > 0 {
		return n, true
	}
	return 0, false
}

// DaysOnMarket extracts the days-on-market counter, if present and positive
func (r RawPropertyRecord) DaysOnMarket() (float64, bool) {
	if n, ok := r.Number("daysOnMarket", "daysOnZillow", "dom"); ok && n > 0 {
		return n, true
	}
	return 0, false
}

// SquareFeet extracts the living area, if present and positive
func (r RawPropertyRecord) SquareFeet() (float64, bool) {
	if n, ok := r.Number("livingArea", "squareFeet", "sqft", "area"); ok && n > 0 {
		return n, true
	}
	return 0, false
}

// RawStatus extracts the upstream status string, unmapped
func (r RawPropertyRecord) RawStatus() (string, bool) {
	return r.String("homeStatus", "status", "listingStatus", "statusType")
}
