package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RhythmD22/SmartShuttle/internal/location"
)

// preferences is the durable per-installation UI state.
type preferences struct {
	Theme              string `json:"theme,omitempty" validate:"omitempty,oneof=light dark"`
	LocationPermission string `json:"locationPermission,omitempty" validate:"omitempty,oneof=granted denied"`
}

// GetPreferences serves the stored theme and location-permission decision.
// Absent records report the defaults: light theme, no recorded decision.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs := preferences{Theme: "light"}
	if v, ok, err := h.records.GetRecord(r.Context(), location.KeyTheme); err == nil && ok {
		prefs.Theme = v
	}
	if v, ok, err := h.records.GetRecord(r.Context(), location.KeyLocationPermission); err == nil && ok {
		prefs.LocationPermission = v
	}
	writeJSON(w, http.StatusOK, prefs)
}

// PutPreferences stores the fields present in the body, leaving the rest
// untouched.
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(prefs); err != nil {
		writeError(w, http.StatusBadRequest, "theme must be light or dark; locationPermission must be granted or denied")
		return
	}

	if prefs.Theme != "" {
		if err := h.records.PutRecord(r.Context(), location.KeyTheme, prefs.Theme); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store preference")
			return
		}
	}
	if prefs.LocationPermission != "" {
		if err := h.records.PutRecord(r.Context(), location.KeyLocationPermission, prefs.LocationPermission); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store preference")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
