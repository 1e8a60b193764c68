package models

import (
	"fmt"
	"testing"
)

func TestListingRecordNormalize(t *testing.T) {
	t.Run("invalid status forced to unknown", func(t *testing.T) {
		r := &ListingRecord{Status: ListingStatus("bananas")}
		r.Normalize()
		if r.Status != StatusUnknown {
			t.Errorf("Expected unknown, got %s", r.Status)
		}
	})

	t.Run("valid status preserved", func(t *testing.T) {
		r := &ListingRecord{Status: StatusForSale}
		r.Normalize()
		if r.Status != StatusForSale {
			t.Errorf("Expected for_sale, got %s", r.Status)
		}
	})

	t.Run("negative price cleared", func(t *testing.T) {
		price := int64(-100)
		r := &ListingRecord{Status: StatusForSale, Price: &price}
		r.Normalize()
		if r.Price != nil {
			t.Error("Expected negative price to be cleared")
		}
	})

	t.Run("negative days on market zeroed", func(t *testing.T) {
		r := &ListingRecord{Status: StatusForSale, DaysOnMarket: -3}
		r.Normalize()
		if r.DaysOnMarket != 0 {
			t.Errorf("Expected 0 days on market, got %d", r.DaysOnMarket)
		}
	})

	t.Run("photos deduplicated and bounded", func(t *testing.T) {
		photos := make([]string, 0, MaxPhotos+10)
		for i := 0; i < MaxPhotos+10; i++ {
			photos = append(photos, fmt.Sprintf("https://example.com/%d.jpg", i))
		}
		photos = append(photos, photos[0], "")

		r := &ListingRecord{Status: StatusForSale, Photos: photos}
		r.Normalize()
		if len(r.Photos) != MaxPhotos {
			t.Errorf("Expected %d photos, got %d", MaxPhotos, len(r.Photos))
		}
	})

	t.Run("features deduplicated preserving order", func(t *testing.T) {
		r := &ListingRecord{
			Status:   StatusForSale,
			Features: []string{"garage", "pool", "garage", "deck"},
		}
		r.Normalize()
		expected := []string{"garage", "pool", "deck"}
		if len(r.Features) != len(expected) {
			t.Fatalf("Expected %d features, got %d", len(expected), len(r.Features))
		}
		for i, f := range expected {
			if r.Features[i] != f {
				t.Errorf("Expected feature %d to be %s, got %s", i, f, r.Features[i])
			}
		}
	})
}

func TestNotListedRecord(t *testing.T) {
	r := NotListedRecord("123 Main St")
	if r.Status != StatusNotListed {
		t.Errorf("Expected not_listed, got %s", r.Status)
	}
	if r.Address != "123 Main St" {
		t.Errorf("Expected requested address, got %s", r.Address)
	}
	if r.Synthetic {
		t.Error("Not-listed records are genuine results, not synthetic")
	}
	if r.Price != nil {
		t.Error("Expected no price on a not-listed record")
	}
}

func TestRawPropertyRecordProbing(t *testing.T) {
	t.Run("number accepts quoted values", func(t *testing.T) {
		r := RawPropertyRecord{"price": "425000"}
		if n, ok := r.Number("price"); !ok || n != 425000 {
			t.Errorf("Expected 425000 from quoted price, got %v/%v", n, ok)
		}
	})

	t.Run("number skips unreadable keys", func(t *testing.T) {
		r := RawPropertyRecord{"price": "lots", "listPrice": 300000.0}
		if n, ok := r.Number("price", "listPrice"); !ok || n != 300000 {
			t.Errorf("Expected fallback to listPrice, got %v/%v", n, ok)
		}
	})

	t.Run("address line from flat field", func(t *testing.T) {
		r := RawPropertyRecord{"streetAddress": "123 Main St"}
		if line, ok := r.AddressLine(); !ok || line != "123 Main St" {
			t.Errorf("Expected flat street address, got %q/%v", line, ok)
		}
	})

	t.Run("address line from nested object", func(t *testing.T) {
		r := RawPropertyRecord{
			"address": map[string]interface{}{"oneLine": "123 Main St, 90210"},
		}
		if line, ok := r.AddressLine(); !ok || line != "123 Main St, 90210" {
			t.Errorf("Expected nested address, got %q/%v", line, ok)
		}
	})

	t.Run("zero and negative prices rejected", func(t *testing.T) {
		if _, ok := (RawPropertyRecord{"price": 0.0}).ListPrice(); ok {
			t.Error("Expected zero price to be rejected")
		}
		if _, ok := (RawPropertyRecord{"price": -5.0}).ListPrice(); ok {
			t.Error("Expected negative price to be rejected")
		}
	})

	t.Run("best estimate probes aliases", func(t *testing.T) {
		r := RawPropertyRecord{"zestimate": 500000.0}
		if n, ok := r.BestEstimate(); !ok || n != 500000 {
			t.Errorf("Expected zestimate, got %v/%v", n, ok)
		}
	})
}
