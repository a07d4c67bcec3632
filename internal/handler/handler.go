package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/RhythmD22/SmartShuttle/internal/config"
	"github.com/RhythmD22/SmartShuttle/internal/geocode"
	"github.com/RhythmD22/SmartShuttle/internal/location"
	"github.com/RhythmD22/SmartShuttle/internal/metrics"
	"github.com/RhythmD22/SmartShuttle/internal/overlay"
	"github.com/RhythmD22/SmartShuttle/internal/transit"
)

// View pairs a coordinator with the location store it persists through.
type View struct {
	Coordinator *overlay.Coordinator
	Store       *location.Store
}

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	cfg       *config.Config
	geo       *geocode.Client
	tc        *transit.Client  // nil when the transit API key is unset
	views     map[string]*View // keyed by flow: tracking, notifications
	records   location.Backend // theme and permission preferences
	collector *metrics.Collector
	validate  *validator.Validate
	relay     *http.Client // feedback relay
	proxy     *http.Client // transit API proxy
	logger    *slog.Logger
}

// New creates a Handler.
func New(cfg *config.Config, geo *geocode.Client, tc *transit.Client, views map[string]*View, records location.Backend, collector *metrics.Collector, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		geo:       geo,
		tc:        tc,
		views:     views,
		records:   records,
		collector: collector,
		validate:  validator.New(),
		relay:     &http.Client{Timeout: 10 * time.Second},
		proxy:     &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// view resolves the {flow} path value, writing a 404 when unknown.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) (*View, bool) {
	flow := r.PathValue("flow")
	v, ok := h.views[flow]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown view flow")
		return nil, false
	}
	return v, true
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ClientConfig serves the tuning values the PWA front-end needs: debounce
// windows, the minimum search length, and the fallback point.
func (h *Handler) ClientConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stopDebounceMs":   h.cfg.StopRefreshDebounce.Milliseconds(),
		"searchDebounceMs": h.cfg.SearchDebounce.Milliseconds(),
		"minQueryLength":   geocode.MinQueryLen,
		"testMode":         h.cfg.TestMode,
		"fallback": map[string]float64{
			"lat": h.cfg.FallbackLat,
			"lon": h.cfg.FallbackLon,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
