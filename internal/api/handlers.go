package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/home-scanner/internal/errors"
	"github.com/home-scanner/internal/service"
	"github.com/gorilla/mux"
)

// maxBulkAddresses caps one bulk scan request
const maxBulkAddresses = 25

// handleHealth reports service and storage-tier health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	for _, checker := range s.health {
		if err := checker.Ping(ctx); err != nil {
			// Degraded, not down: the aggregator answers without its cache
			status = "degraded"
			code = http.StatusOK
			break
		}
	}

	respondJSON(w, code, map[string]string{
		"status":  status,
		"service": "home-scanner",
	})
}

// handleCheckListing handles GET /api/v1/listing?address=...&zip=...
func (s *Server) handleCheckListing(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	zip := r.URL.Query().Get("zip")

	record, err := s.aggregator.CheckListingStatus(r.Context(), address, zip)
	if err != nil {
		respondCategorized(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// handleGetMarketData handles GET /api/v1/market/{zip}
func (s *Server) handleGetMarketData(w http.ResponseWriter, r *http.Request) {
	zip := mux.Vars(r)["zip"]

	snapshot, err := s.aggregator.GetMarketData(r.Context(), zip)
	if err != nil {
		respondCategorized(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// handleGetInsights handles GET /api/v1/insights?address=...&zip=...
func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	zip := r.URL.Query().Get("zip")

	insights, err := s.aggregator.GetPropertyInsights(r.Context(), address, zip)
	if err != nil {
		respondCategorized(w, err)
		return
	}

	respondJSON(w, http.StatusOK, insights)
}

// bulkScanRequest is the POST /api/v1/scan body
type bulkScanRequest struct {
	Addresses []service.AddressQuery `json:"addresses"`
}

// handleBulkScan handles POST /api/v1/scan
func (s *Server) handleBulkScan(w http.ResponseWriter, r *http.Request) {
	var req bulkScanRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "request body must be JSON with an addresses array", nil)
		return
	}
	if len(req.Addresses) == 0 {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "addresses must not be empty", nil)
		return
	}
	if len(req.Addresses) > maxBulkAddresses {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "too many addresses in one scan", map[string]interface{}{
			"max": maxBulkAddresses,
		})
		return
	}

	results := s.scanner.ScanAddresses(r.Context(), req.Addresses)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// respondCategorized maps a categorized error onto an HTTP error response
func respondCategorized(w http.ResponseWriter, err error) {
	catErr := errors.Categorize(err)
	respondError(w, catErr.StatusCode, catErr.Code, catErr.Message, catErr.Details)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]ErrorResponse{
		"error": {Code: code, Message: message, Details: details},
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses a JSON request body
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
