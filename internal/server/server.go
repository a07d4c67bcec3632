package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/RhythmD22/SmartShuttle/internal/config"
	"github.com/RhythmD22/SmartShuttle/internal/geocode"
	"github.com/RhythmD22/SmartShuttle/internal/handler"
	"github.com/RhythmD22/SmartShuttle/internal/location"
	"github.com/RhythmD22/SmartShuttle/internal/metrics"
	"github.com/RhythmD22/SmartShuttle/internal/transit"
)

// Server is the HTTP server for SmartShuttle.
type Server struct {
	mux       *http.ServeMux
	cfg       *config.Config
	logger    *slog.Logger
	collector *metrics.Collector
	srv       *http.Server
}

// New creates a Server with all routes registered.
func New(cfg *config.Config, geo *geocode.Client, tc *transit.Client, views map[string]*handler.View, records location.Backend, collector *metrics.Collector, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	h := handler.New(cfg, geo, tc, views, records, collector, logger)

	s := &Server{mux: mux, cfg: cfg, logger: logger, collector: collector}

	// Proxies
	mux.HandleFunc("POST /api/send-feedback", h.SendFeedback)
	mux.HandleFunc("/api/transit/", h.TransitProxy)

	// Geocoding
	mux.HandleFunc("GET /api/geocode/search", h.GeocodeSearch)

	// Preferences
	mux.HandleFunc("GET /api/preferences", h.GetPreferences)
	mux.HandleFunc("PUT /api/preferences", h.PutPreferences)

	// View sessions
	mux.HandleFunc("POST /api/views/{flow}/location", h.ViewLocation)
	mux.HandleFunc("POST /api/views/{flow}/pan", h.ViewPan)
	mux.HandleFunc("POST /api/views/{flow}/refresh", h.ViewRefresh)
	mux.HandleFunc("GET /api/views/{flow}/overlay", h.ViewOverlay)

	// PWA
	mux.HandleFunc("GET /manifest.json", h.Manifest)
	mux.HandleFunc("GET /sw.js", h.ServiceWorker)
	mux.HandleFunc("GET /offline", h.Offline)

	// Operational
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /api/client-config", h.ClientConfig)
	if collector != nil {
		mux.Handle("GET /metrics", collector.Handler())
	}

	return s
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.srv = &http.Server{
		Addr:    addr,
		Handler: withMiddleware(s.mux, s.logger, s.collector),
	}
	s.logger.Info("server starting", "addr", addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
