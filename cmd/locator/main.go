package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/store-locator/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/store-locator/internal/adapter/kafka"
	"github.com/couchcryptid/store-locator/internal/adapter/nominatim"
	"github.com/couchcryptid/store-locator/internal/adapter/osrm"
	"github.com/couchcryptid/store-locator/internal/adapter/photon"
	"github.com/couchcryptid/store-locator/internal/adapter/upstream"
	"github.com/couchcryptid/store-locator/internal/cache"
	"github.com/couchcryptid/store-locator/internal/catalog"
	"github.com/couchcryptid/store-locator/internal/config"
	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/locator"
	"github.com/couchcryptid/store-locator/internal/observability"
	"github.com/couchcryptid/store-locator/internal/pipeline"
	"github.com/couchcryptid/store-locator/internal/throttle"
)

// readiness is ready when every check passes.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("locator failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	if cfg.BrandAliasesFile != "" {
		table, err := domain.LoadBrandAliases(cfg.BrandAliasesFile)
		if err != nil {
			return err
		}
		domain.SetBrandAliases(table)
		logger.Info("brand aliases loaded", "path", cfg.BrandAliasesFile, "brands", len(table))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.OpenDuckDB(cfg.CatalogDSN)
	if err != nil {
		return err
	}
	defer closeWith(logger, "catalog", cat.Close)
	if err := cat.CreateSchema(ctx); err != nil {
		return err
	}

	store, closeStore, err := openCacheStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeWith(logger, "cache", closeStore)
	results := cache.New(store, logger, metrics)

	// All providers share one gate.
	gate := throttle.NewGate(cfg.ThrottleInterval)
	up := upstream.NewClient(cfg.ProviderTimeout, gate, cfg.ContactEmail, metrics, logger)
	providers := []domain.Provider{
		nominatim.NewClient(up, cfg.NominatimURL, cfg.CountryCode),
		photon.NewClient(up, cfg.PhotonURL, cfg.CountryCode),
	}
	router := osrm.NewClient(up, cfg.OSRMURL)

	loc := locator.New(providers, router, cat, results, locator.Options{
		Threshold:     cfg.ConfidenceThreshold,
		DefaultCenter: cfg.DefaultCenter,
		DefaultBrand:  cfg.DefaultBrand,
		Location:      cfg.Location,
		TTL: locator.TTLs{
			Geocode: cfg.GeocodeCacheTTL,
			Search:  cfg.SearchCacheTTL,
			Suggest: cfg.SuggestCacheTTL,
			Reverse: cfg.ReverseCacheTTL,
			Route:   cfg.RouteCacheTTL,
		},
	}, metrics, logger)

	ready := readiness{loc}

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.BatchEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p = pipeline.New(reader, pipeline.NewTransformer(loc, nil, logger), writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)
		logger.Info("batch geocoding enabled",
			"source", cfg.KafkaSourceTopic, "sink", cfg.KafkaSinkTopic, "batch_size", cfg.BatchSize)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, loc, ready, metrics, logger)

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	pipelineDone := make(chan struct{})
	if p != nil {
		go func() {
			defer close(pipelineDone)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		close(pipelineDone)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if reader != nil {
		closeWith(logger, "kafka reader", reader.Close)
	}
	if writer != nil {
		closeWith(logger, "kafka writer", writer.Close)
	}

	logger.Info("shutdown complete")
	return nil
}

// openCacheStore returns the configured result store and its closer.
func openCacheStore(cfg *config.Config, logger *slog.Logger) (cache.Store, func() error, error) {
	switch cfg.CacheBackend {
	case config.CacheBadger:
		s, err := cache.OpenBadger(cfg.CachePath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("result cache", "backend", config.CacheBadger, "path", cfg.CachePath)
		return s, s.Close, nil
	default:
		logger.Info("result cache", "backend", config.CacheMemory, "size", cfg.CacheSize)
		return cache.NewMemoryStore(cfg.CacheSize), func() error { return nil }, nil
	}
}

func closeWith(logger *slog.Logger, name string, fn func() error) {
	if err := fn(); err != nil {
		logger.Error(name+" close error", "error", err)
	}
}
