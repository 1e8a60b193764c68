package service

import (
	"strings"
	"time"

	"github.com/home-scanner/internal/models"
)

// mapRawListing reconciles a matched upstream record into the canonical
// listing shape. Field names are probed the same way the extractor probes
// payload paths, since provider schemas vary; anything unreadable is simply
// left absent.
func mapRawListing(raw models.RawPropertyRecord, requestedAddress string) *models.ListingRecord {
	record := &models.ListingRecord{
		Address: requestedAddress,
		Status:  models.StatusUnknown,
	}

	if line, ok := raw.AddressLine(); ok {
		record.Address = line
	}
	if status, ok := raw.RawStatus(); ok {
		record.Status = mapStatus(status)
	}
	if price, ok := raw.ListPrice(); ok {
		p := int64(price)
		record.Price = &p
	}
	if dom, ok := raw.DaysOnMarket(); ok {
		record.DaysOnMarket = int(dom)
	}
	if sqft, ok := raw.SquareFeet(); ok {
		v := int(sqft)
		record.SquareFeet = &v
	}
	if beds, ok := raw.Number("bedrooms", "beds"); ok && beds > 0 {
		record.Bedrooms = &beds
	}
	if baths, ok := raw.Number("bathrooms", "baths"); ok && baths > 0 {
		record.Bathrooms = &baths
	}
	if lot, ok := raw.Number("lotSize", "lotAreaValue"); ok && lot > 0 {
		v := int(lot)
		record.LotSize = &v
	}
	if year, ok := raw.Number("yearBuilt"); ok && year > 0 {
		v := int(year)
		record.YearBuilt = &v
	}
	if propertyType, ok := raw.String("propertyType", "homeType"); ok {
		record.PropertyType = &propertyType
	}
	if agent, ok := raw.String("agentName", "brokerName", "listingAgent"); ok {
		record.AgentName = &agent
	}
	if phone, ok := raw.String("agentPhone", "brokerPhone"); ok {
		record.AgentPhone = &phone
	}

	record.Photos = stringList(raw, "photos", "images", "carouselPhotos")
	if len(record.Photos) == 0 {
		if img, ok := raw.String("imgSrc", "imageUrl"); ok {
			record.Photos = []string{img}
		}
	}

	for _, feature := range stringList(raw, "features", "amenities", "homeFacts") {
		record.Features = append(record.Features, strings.ToLower(strings.TrimSpace(feature)))
	}

	record.ListingHistory = listingHistory(raw)

	record.Normalize()
	return record
}

// mapStatus maps the provider status vocabularies onto the listing enum
func mapStatus(raw string) models.ListingStatus {
	switch strings.ToLower(strings.ReplaceAll(raw, "_", "")) {
	case "forsale", "active", "comingsoon":
		return models.StatusForSale
	case "forrent", "rental":
		return models.StatusForRent
	case "sold", "recentlysold", "closed":
		return models.StatusSold
	case "pending", "undercontract", "contingent":
		return models.StatusPending
	case "offmarket", "withdrawn", "expired":
		return models.StatusOffMarket
	default:
		return models.StatusUnknown
	}
}

// stringList probes the keys for a string array, accepting arrays of strings
// or of objects carrying a url field
func stringList(raw models.RawPropertyRecord, keys ...string) []string {
	for _, key := range keys {
		arr, ok := raw[key].([]interface{})
		if !ok || len(arr) == 0 {
			continue
		}
		values := make([]string, 0, len(arr))
		for _, item := range arr {
			switch v := item.(type) {
			case string:
				values = append(values, v)
			case map[string]interface{}:
				if url, ok := models.RawPropertyRecord(v).String("url", "href", "name"); ok {
					values = append(values, url)
				}
			}
		}
		if len(values) > 0 {
			return values
		}
	}
	return nil
}

// listingHistory extracts the price/event history entries a provider may
// attach, skipping entries without a parseable date
func listingHistory(raw models.RawPropertyRecord) []models.ListingEvent {
	arr, ok := raw["priceHistory"].([]interface{})
	if !ok {
		arr, ok = raw["listingHistory"].([]interface{})
	}
	if !ok || len(arr) == 0 {
		return nil
	}

	events := make([]models.ListingEvent, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		entry := models.RawPropertyRecord(obj)

		dateStr, ok := entry.String("date", "time")
		if !ok {
			continue
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			if date, err = time.Parse(time.RFC3339, dateStr); err != nil {
				continue
			}
		}

		event := models.ListingEvent{Date: date}
		if name, ok := entry.String("event", "eventType"); ok {
			event.Event = name
		}
		if price, ok := entry.Number("price"); ok && price > 0 {
			p := int64(price)
			event.Price = &p
		}
		events = append(events, event)
	}
	return events
}
