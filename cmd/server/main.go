// Package main provides the API server entry point for the home scanner
// service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/home-scanner/internal/api"
	"github.com/home-scanner/internal/config"
	"github.com/home-scanner/internal/logging"
	"github.com/home-scanner/internal/retry"
	"github.com/home-scanner/internal/service"
	"github.com/home-scanner/internal/storage"
	"github.com/home-scanner/internal/synth"
	"github.com/home-scanner/internal/upstream"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()
	logger.Info("Home scanner starting")

	ctx := context.Background()

	// Both cache tiers are optional at runtime: the aggregator degrades to
	// uncached operation when a tier is unreachable.
	var redisCache *storage.RedisCache
	if err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
		var connectErr error
		redisCache, connectErr = storage.NewRedisCache(&cfg.Redis)
		return connectErr
	}); err != nil {
		logger.WithError(err).Warn("Redis unavailable, running without hot cache tier")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	var cacheStore *storage.CacheStore
	var postgres *storage.PostgresDB
	if err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
		var connectErr error
		postgres, connectErr = storage.NewPostgresDB(&cfg.Postgres)
		return connectErr
	}); err != nil {
		logger.WithError(err).Warn("Postgres unavailable, running without durable cache tier")
	} else {
		defer postgres.Close()
		cacheStore = storage.NewCacheStore(postgres)
	}

	cache := storage.NewCacheService(redisCache, cacheStore, logger)

	if cacheStore != nil {
		go purgeExpiredLoop(ctx, cacheStore, logger)
	}

	client := upstream.NewProviderClient(&cfg.Upstream)
	if !client.HasCredentials() {
		logger.Warn("No listing API key configured, all responses will be synthesized")
	}
	strategies := []upstream.QueryStrategy{
		upstream.NewZipSearchStrategy(client),
		upstream.NewLocationSearchStrategy(client),
	}

	aggregator := service.NewAggregator(
		cache,
		strategies,
		synth.NewSynthesizer(),
		cfg.Cache,
		client.HasCredentials(),
		cfg.Upstream.ResultLimit,
		logger,
	)
	scanner := service.NewBulkScanner(aggregator, cfg.Upstream.BulkCallDelay)

	var health []api.HealthChecker
	if redisCache != nil {
		health = append(health, redisCache)
	}
	if postgres != nil {
		health = append(health, postgres)
	}

	server := api.NewServer(&cfg.Server, aggregator, scanner, health...)

	// Run until interrupted
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.WithError(err).Fatal("Server stopped unexpectedly")
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

// purgeExpiredLoop reclaims expired durable-tier rows hourly. Expired rows are
// already invisible to reads, so this only controls table growth.
func purgeExpiredLoop(ctx context.Context, store *storage.CacheStore, logger *logging.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := store.PurgeExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.WithError(err).Warn("Expired cache purge failed")
				continue
			}
			if purged > 0 {
				logger.WithField("rows", purged).Debug("Purged expired cache rows")
			}
		}
	}
}
