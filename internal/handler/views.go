package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RhythmD22/SmartShuttle/internal/overlay"
)

// locationEvent is the body of POST /api/views/{flow}/location.
type locationEvent struct {
	Event          string  `json:"event" validate:"required,oneof=search-select geolocation-granted geolocation-denied"`
	Latitude       float64 `json:"lat"`
	Longitude      float64 `json:"lon"`
	AccuracyMeters float64 `json:"accuracy,omitempty"`
	DisplayName    string  `json:"displayName,omitempty"`
}

// panEvent is the body of POST /api/views/{flow}/pan.
type panEvent struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// ViewLocation applies a location event to a view's coordinator.
func (h *Handler) ViewLocation(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	var ev locationEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(ev); err != nil {
		writeError(w, http.StatusBadRequest, "event must be one of search-select, geolocation-granted, geolocation-denied")
		return
	}

	var err error
	switch ev.Event {
	case "search-select":
		err = v.Coordinator.SelectSearchResult(r.Context(), ev.Latitude, ev.Longitude, ev.DisplayName)
	case "geolocation-granted":
		err = v.Coordinator.GeolocationGranted(r.Context(), ev.Latitude, ev.Longitude, ev.AccuracyMeters)
	case "geolocation-denied":
		v.Coordinator.GeolocationDenied(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"state": string(v.Coordinator.State())})
}

// ViewPan applies a map pan to a view's coordinator.
func (h *Handler) ViewPan(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	var ev panEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := v.Coordinator.Pan(r.Context(), ev.Latitude, ev.Longitude); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"state": string(v.Coordinator.State())})
}

// ViewRefresh re-triggers a fetch at the view's stored location.
func (h *Handler) ViewRefresh(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	v.Coordinator.Refresh(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]string{"state": string(v.Coordinator.State())})
}

// overlaySnapshot is the response of GET /api/views/{flow}/overlay.
type overlaySnapshot struct {
	State    string            `json:"state"`
	Outcome  string            `json:"outcome"`
	Markers  []overlay.Marker  `json:"markers"`
	Panels   overlay.Panels    `json:"panels"`
	Location *locationSnapshot `json:"location,omitempty"`
}

type locationSnapshot struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	DisplayName string  `json:"displayName"`
	Timestamp   int64   `json:"timestamp"`
}

// ViewOverlay serves the current markers, panels, and persisted location of
// a view.
func (h *Handler) ViewOverlay(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	snap := overlaySnapshot{
		State:   string(v.Coordinator.State()),
		Outcome: string(v.Coordinator.LastOutcome()),
		Markers: v.Coordinator.Markers().Snapshot(),
		Panels:  v.Coordinator.PanelSnapshot(),
	}
	if loc := v.Store.Get(r.Context()); loc != nil {
		snap.Location = &locationSnapshot{
			Latitude:    loc.Latitude,
			Longitude:   loc.Longitude,
			DisplayName: loc.DisplayName,
			Timestamp:   loc.AcquiredMillis,
		}
	}
	writeJSON(w, http.StatusOK, snap)
}
