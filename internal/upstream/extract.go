package upstream

import (
	"encoding/json"
	"strings"

	"github.com/home-scanner/internal/models"
)

// extractionPaths is the prioritized list of JSON paths where known providers
// nest their result arrays. The first path yielding a non-empty array wins.
var extractionPaths = []string{
	"data.results",
	"results",
	"properties",
	"data.properties",
	"searchResults.listResults",
	"props",
	"listings",
}

// Extract pulls the list of raw property records out of an arbitrarily-shaped
// provider payload. It probes the known nesting paths in priority order and
// also accepts a bare top-level array. Malformed input yields an empty slice,
// never an error.
func Extract(raw []byte) []models.RawPropertyRecord {
	if len(raw) == 0 {
		return nil
	}

	// Bare top-level array
	var topLevel []interface{}
	if err := json.Unmarshal(raw, &topLevel); err == nil {
		return toRecords(topLevel)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	for _, path := range extractionPaths {
		if records := probePath(payload, path); len(records) > 0 {
			return records
		}
	}

	// Some providers return a single property object instead of an array
	if _, hasAddress := models.RawPropertyRecord(payload).AddressLine(); hasAddress {
		return []models.RawPropertyRecord{models.RawPropertyRecord(payload)}
	}

	return nil
}

// probePath walks a dotted path through nested objects and converts the
// value at the end into records if it is a non-empty array
func probePath(payload map[string]interface{}, path string) []models.RawPropertyRecord {
	current := payload
	segments := strings.Split(path, ".")

	for i, segment := range segments {
		value, ok := current[segment]
		if !ok {
			return nil
		}

		if i == len(segments)-1 {
			if arr, ok := value.([]interface{}); ok {
				return toRecords(arr)
			}
			return nil
		}

		next, ok := value.(map[string]interface{})
		if !ok {
			return nil
		}
		current = next
	}

	return nil
}

// toRecords converts array elements into RawPropertyRecords, skipping
// anything that is not an object
func toRecords(arr []interface{}) []models.RawPropertyRecord {
	if len(arr) == 0 {
		return nil
	}
	records := make([]models.RawPropertyRecord, 0, len(arr))
	for _, item := range arr {
		if obj, ok := item.(map[string]interface{}); ok {
			records = append(records, models.RawPropertyRecord(obj))
		}
	}
	return records
}
