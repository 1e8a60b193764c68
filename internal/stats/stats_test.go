package stats

import (
	"testing"

	"github.com/home-scanner/internal/models"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{"empty", []float64{}, 0},
		{"single", []float64{5}, 5},
		{"even count averages middles", []float64{1, 3, 5, 7}, 4},
		{"odd count returns middle", []float64{1, 2, 3}, 2},
		{"unsorted input", []float64{7, 1, 5, 3}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.input); got != tt.expected {
				t.Errorf("Median(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	input := []float64{7, 1, 5}
	Median(input)
	if input[0] != 7 || input[1] != 1 || input[2] != 5 {
		t.Errorf("Median reordered its input: %v", input)
	}
}

func record(fields map[string]interface{}) models.RawPropertyRecord {
	return models.RawPropertyRecord(fields)
}

func TestComputeMetrics(t *testing.T) {
	t.Run("median from list prices", func(t *testing.T) {
		records := []models.RawPropertyRecord{
			record(map[string]interface{}{"price": 100000.0}),
			record(map[string]interface{}{"price": 200000.0}),
			record(map[string]interface{}{"price": 300000.0}),
		}
		snapshot := ComputeMetrics("90210", records)
		if snapshot.MedianPrice != 200000 {
			t.Errorf("Expected median 200000, got %d", snapshot.MedianPrice)
		}
		if snapshot.InventoryCount != 3 {
			t.Errorf("Expected inventory 3, got %d", snapshot.InventoryCount)
		}
	})

	t.Run("estimate stands in for missing list price", func(t *testing.T) {
		records := []models.RawPropertyRecord{
			record(map[string]interface{}{"price": 100000.0}),
			record(map[string]interface{}{"zestimate": 300000.0}),
		}
		snapshot := ComputeMetrics("90210", records)
		// Both values land in the price pool: median of [100000, 300000]
		if snapshot.MedianPrice != 200000 {
			t.Errorf("Expected median 200000, got %d", snapshot.MedianPrice)
		}
	})

	t.Run("defaults with no samples", func(t *testing.T) {
		snapshot := ComputeMetrics("90210", nil)
		if snapshot.MedianPrice != DefaultMedianPrice {
			t.Errorf("Expected default median %d, got %d", DefaultMedianPrice, snapshot.MedianPrice)
		}
		if snapshot.DaysOnMarket != DefaultDaysOnMarket {
			t.Errorf("Expected default days on market %d, got %v", DefaultDaysOnMarket, snapshot.DaysOnMarket)
		}
		if snapshot.MarketVelocity != 6.4 {
			t.Errorf("Expected velocity 45/7 rounded = 6.4, got %v", snapshot.MarketVelocity)
		}
	})

	t.Run("trend clamped to plus ten", func(t *testing.T) {
		// List prices 25% above estimates would yield a +25 trend
		records := []models.RawPropertyRecord{
			record(map[string]interface{}{"price": 125000.0, "zestimate": 100000.0}),
		}
		snapshot := ComputeMetrics("90210", records)
		if snapshot.PriceTrend30d != 10 {
			t.Errorf("Expected trend clamped to 10, got %v", snapshot.PriceTrend30d)
		}
	})

	t.Run("trend clamped to minus ten", func(t *testing.T) {
		records := []models.RawPropertyRecord{
			record(map[string]interface{}{"price": 60000.0, "zestimate": 100000.0}),
		}
		snapshot := ComputeMetrics("90210", records)
		if snapshot.PriceTrend30d != -10 {
			t.Errorf("Expected trend clamped to -10, got %v", snapshot.PriceTrend30d)
		}
	})

	t.Run("trend zero without estimates", func(t *testing.T) {
		records := []models.RawPropertyRecord{
			record(map[string]interface{}{"price": 125000.0}),
		}
		snapshot := ComputeMetrics("90210", records)
		if snapshot.PriceTrend30d != 0 {
			t.Errorf("Expected zero trend without estimates, got %v", snapshot.PriceTrend30d)
		}
	})

	t.Run("active listings counted by status", func(t *testing.T) {
		records := []models.RawPropertyRecord{
			record(map[string]interface{}{"homeStatus": "FOR_SALE"}),
			record(map[string]interface{}{"homeStatus": "SOLD"}),
			record(map[string]interface{}{"status": "active"}),
		}
		snapshot := ComputeMetrics("90210", records)
		if snapshot.ActiveListings != 2 {
			t.Errorf("Expected 2 active listings, got %d", snapshot.ActiveListings)
		}
	})

	t.Run("malformed records are skipped not fatal", func(t *testing.T) {
		records := []models.RawPropertyRecord{
			record(map[string]interface{}{"price": "not-a-number", "livingArea": []interface{}{1, 2}}),
			record(map[string]interface{}{"price": 200000.0}),
		}
		snapshot := ComputeMetrics("90210", records)
		if snapshot.MedianPrice != 200000 {
			t.Errorf("Expected malformed record to be skipped, got median %d", snapshot.MedianPrice)
		}
	})

	t.Run("velocity is days on market over seven", func(t *testing.T) {
		records := []models.RawPropertyRecord{
			record(map[string]interface{}{"daysOnMarket": 14.0}),
			record(map[string]interface{}{"daysOnMarket": 28.0}),
		}
		snapshot := ComputeMetrics("90210", records)
		if snapshot.MarketVelocity != 3.0 {
			t.Errorf("Expected velocity 3.0, got %v", snapshot.MarketVelocity)
		}
	})
}
