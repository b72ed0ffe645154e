// Command server runs the population-statistics API: it resolves data
// through the source fallback chain, normalizes it into canonical records,
// and serves the processed datasets over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/Minseo10803/jibang-vanish/internal/adapter/http"
	"github.com/Minseo10803/jibang-vanish/internal/config"
	"github.com/Minseo10803/jibang-vanish/internal/observability"
	"github.com/Minseo10803/jibang-vanish/internal/pipeline"
	"github.com/Minseo10803/jibang-vanish/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	src := cfg.Sources
	clients := pipeline.Clients{
		Synthetic: source.NewSynthetic(src.SyntheticSeed),
		Static:    source.NewStaticClient(src.FetchTimeout, logger),
		Geo:       source.NewGeoClient(src.BoundaryURL, src.FetchTimeout, logger),
	}
	if src.KOSISAPIKey != "" {
		clients.KOSIS = source.NewKOSISClient(src.KOSISAPIKey, src.KOSISItemID, src.FetchTimeout, logger)
		logger.Info("KOSIS source enabled")
	} else {
		logger.Info("KOSIS source disabled, no API key")
	}
	if src.SGISAccessKey != "" && src.SGISSecretKey != "" {
		clients.SGIS = source.NewSGISClient(src.SGISAccessKey, src.SGISSecretKey, src.FetchTimeout, logger)
		logger.Info("SGIS source enabled")
	} else {
		logger.Info("SGIS source disabled, no key pair")
	}
	if src.OpenDataServiceKey != "" && src.OpenDataEndpoint != "" {
		clients.OpenData = source.NewOpenDataClient(src.OpenDataServiceKey, src.OpenDataEndpoint, src.FetchTimeout, logger)
		logger.Info("open-data source enabled")
	} else {
		logger.Info("open-data source disabled, no key or endpoint")
	}

	cache := source.NewCache(src.CacheTTL, nil, metrics)
	resolver := source.NewResolver(logger, metrics, cache)
	normalizer := pipeline.NewNormalizer(logger, metrics)

	p := pipeline.NewPipeline(resolver, normalizer, clients, pipeline.Options{
		PopulationSnapshotURL: src.PopulationSnapshotURL,
		EventsSnapshotURL:     src.EventsSnapshotURL,
		BoundaryTTL:           src.BoundaryTTL,
	}, logger, metrics)

	defaults := pipeline.Params{
		StartYear:  cfg.Pipeline.StartYear,
		EndYear:    cfg.Pipeline.EndYear,
		Window:     cfg.Pipeline.Window,
		Unit:       cfg.Pipeline.Unit,
		IndexScale: cfg.Pipeline.IndexScale,
	}
	srv := httpadapter.NewServer(cfg.Server.Addr, p, defaults, httpadapter.Timeouts{
		Read:  cfg.Server.ReadTimeout,
		Write: cfg.Server.WriteTimeout,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the caches so the first real request doesn't pay for the full
	// resolution chain. A failure here just delays readiness.
	go func() {
		if _, err := p.Snapshot(ctx, defaults); err != nil {
			logger.Warn("warmup snapshot failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
