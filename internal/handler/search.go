package handler

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/RhythmD22/SmartShuttle/internal/geocode"
)

// searchResult is the client-facing shape of a forward-search candidate.
type searchResult struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	DisplayName string  `json:"displayName"`
	ShortName   string  `json:"shortName"`
	IsBusStop   bool    `json:"isBusStop"`
}

// GeocodeSearch serves location search candidates, bus stops first. Queries
// shorter than the minimum length return an empty list without touching the
// upstream geocoder.
func (h *Handler) GeocodeSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(query) < geocode.MinQueryLen {
		writeJSON(w, http.StatusOK, []searchResult{})
		return
	}

	results, err := h.geo.ForwardSearch(r.Context(), query, "")
	if err != nil {
		h.logger.Warn("forward search failed", "query", query, "error", err)
		if h.collector != nil {
			h.collector.UpstreamErrors.WithLabelValues("nominatim").Inc()
		}
		writeError(w, http.StatusBadGateway, "location search unavailable")
		return
	}
	if h.collector != nil {
		h.collector.UpstreamRequests.WithLabelValues("nominatim").Inc()
	}

	// Live-system stops go first, ahead of the geocoder's transit results.
	// Best effort; the geocoder results stand alone when the lookup fails.
	var out []searchResult
	seen := make(map[string]bool)
	if h.tc != nil {
		stops, err := h.tc.SearchStops(r.Context(), query)
		if err != nil {
			h.logger.Warn("stop search failed", "query", query, "error", err)
		}
		for _, stop := range stops {
			out = append(out, searchResult{
				Latitude:    stop.Latitude,
				Longitude:   stop.Longitude,
				DisplayName: stop.Name,
				ShortName:   geocode.ShortenDisplayName(stop.Name),
				IsBusStop:   true,
			})
			seen[coordKey(stop.Latitude, stop.Longitude)] = true
		}
	}

	for _, res := range results {
		if seen[coordKey(res.Latitude, res.Longitude)] {
			continue
		}
		out = append(out, searchResult{
			Latitude:    res.Latitude,
			Longitude:   res.Longitude,
			DisplayName: res.DisplayName,
			ShortName:   geocode.ShortenDisplayName(res.DisplayName),
			IsBusStop:   res.IsTransitStop(),
		})
	}
	if out == nil {
		out = []searchResult{}
	}
	writeJSON(w, http.StatusOK, out)
}

func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lon)
}
