package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/RhythmD22/SmartShuttle/internal/config"
	"github.com/RhythmD22/SmartShuttle/internal/geocode"
	"github.com/RhythmD22/SmartShuttle/internal/handler"
	"github.com/RhythmD22/SmartShuttle/internal/location"
	"github.com/RhythmD22/SmartShuttle/internal/metrics"
	"github.com/RhythmD22/SmartShuttle/internal/overlay"
	"github.com/RhythmD22/SmartShuttle/internal/realtime"
	"github.com/RhythmD22/SmartShuttle/internal/server"
	"github.com/RhythmD22/SmartShuttle/internal/storage"
	"github.com/RhythmD22/SmartShuttle/internal/transit"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.Load()

	// CLI flags
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.BoolVar(&cfg.TestMode, "test-mode", cfg.TestMode, "Enable test mode (fixture data, mock APIs)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the sqlite database file")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database
	db, err := storage.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	collector := metrics.NewCollector()

	// Upstream clients
	geo := geocode.New(cfg.NominatimURL, "SmartShuttle/1.0 (transit PWA)")
	tc := transit.NewClient(cfg.TransitBaseURL, cfg.TransitAPIKey, logger)
	tc.Metrics = collector
	defer tc.Close()

	// GTFS-RT service alerts
	rtStore := realtime.NewStore()
	if cfg.AlertsFeedURL != "" {
		fetcher := realtime.NewFetcher(cfg.AlertsFeedURL, cfg.AlertsPollInterval, rtStore, logger)
		fetcher.Metrics = collector
		go fetcher.Start(ctx)
	}

	// One coordinator per view flow, each with its own persisted location
	views := make(map[string]*handler.View)
	for flow, key := range map[string]string{
		"tracking":      location.KeyTracking,
		"notifications": location.KeyNotification,
	} {
		opts := overlay.Options{
			MaxDistanceMeters: cfg.MaxDistanceMeters,
			DebounceWindow:    cfg.StopRefreshDebounce,
			FallbackLat:       cfg.FallbackLat,
			FallbackLon:       cfg.FallbackLon,
			Flow:              flow,
			Collector:         collector,
		}
		store := location.NewStore(db, key, logger.With("flow", flow))
		coord := overlay.NewCoordinator(store, tc, geo, rtStore, opts, logger.With("flow", flow))
		coord.Restore(ctx)
		views[flow] = &handler.View{Coordinator: coord, Store: store}
	}
	defer func() {
		for _, v := range views {
			v.Coordinator.Close()
		}
	}()

	// The notifications view re-fetches alerts on a fixed cadence
	go views["notifications"].Coordinator.RunPeriodicRefresh(ctx, cfg.AlertsPollInterval)

	srv := server.New(cfg, geo, tc, views, db, collector, logger)

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
		srv.Shutdown(context.Background())
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
