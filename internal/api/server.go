// Package api provides the HTTP surface over the aggregation engine.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/home-scanner/internal/config"
	"github.com/home-scanner/internal/models"
	"github.com/home-scanner/internal/service"
	"github.com/gorilla/mux"
)

// AggregatorInterface defines the aggregation operations the handlers need.
// Tests swap in a stub aggregator.
type AggregatorInterface interface {
	CheckListingStatus(ctx context.Context, address, zipCode string) (*models.ListingRecord, error)
	GetMarketData(ctx context.Context, zipCode string) (*models.MarketSnapshot, error)
	GetPropertyInsights(ctx context.Context, address, zipCode string) (*service.PropertyInsights, error)
}

// BulkScannerInterface defines the bulk scan operation
type BulkScannerInterface interface {
	ScanAddresses(ctx context.Context, queries []service.AddressQuery) []service.ScanResult
}

// Server represents the HTTP API server
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	aggregator AggregatorInterface
	scanner    BulkScannerInterface
	health     []HealthChecker
}

// HealthChecker is implemented by the storage tiers so /health can report
// their reachability
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// NewServer creates a new API server instance
func NewServer(cfg *config.ServerConfig, aggregator AggregatorInterface, scanner BulkScannerInterface, health ...HealthChecker) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		aggregator: aggregator,
		scanner:    scanner,
		health:     health,
	}

	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/listing", s.handleCheckListing).Methods("GET")
	api.HandleFunc("/market/{zip}", s.handleGetMarketData).Methods("GET")
	api.HandleFunc("/insights", s.handleGetInsights).Methods("GET")
	api.HandleFunc("/scan", s.handleBulkScan).Methods("POST")
}

// Router returns the underlying router. Used by tests with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
