package overlay

import (
	"fmt"
	"sync"

	"github.com/RhythmD22/SmartShuttle/internal/transit"
)

// Purpose tags a map overlay with its role, used for selective clearing.
type Purpose string

const (
	PurposeUserLocation  Purpose = "user-location"
	PurposeBusStop       Purpose = "bus-stop"
	PurposeActiveShuttle Purpose = "active-shuttle"
	PurposeSearchResult  Purpose = "search-result"
)

// Kind distinguishes point markers from accuracy circles.
type Kind string

const (
	KindMarker Kind = "marker"
	KindCircle Kind = "circle"
)

// Marker is one map overlay. Markers are owned exclusively by the Manager:
// they are created on refresh and destroyed at the start of the next cycle,
// never updated in place.
type Marker struct {
	ID           int     `json:"id"`
	Purpose      Purpose `json:"purpose"`
	Kind         Kind    `json:"kind"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	RadiusMeters float64 `json:"radius_m,omitempty"` // circles only
	ColorHex     string  `json:"color,omitempty"`
	Popup        string  `json:"popup,omitempty"`
	Bearing      float64 `json:"bearing,omitempty"` // active shuttles only
}

const defaultRouteColor = "413C96"

// Manager owns the live overlay set. All mutation goes through it, so after
// any refresh cycle the set exactly mirrors the latest successful response.
type Manager struct {
	mu      sync.Mutex
	nextID  int
	markers []Marker
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Clear removes every overlay tagged with purpose.
func (m *Manager) Clear(purpose Purpose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeWhere(func(mk Marker) bool { return mk.Purpose == purpose })
}

// ClearAllExceptUser removes everything but the user-location marker and its
// accuracy circles. Calling it twice in a row is the same as calling it once.
func (m *Manager) ClearAllExceptUser() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeWhere(func(mk Marker) bool { return mk.Purpose != PurposeUserLocation })
}

func (m *Manager) removeWhere(match func(Marker) bool) {
	kept := m.markers[:0]
	for _, mk := range m.markers {
		if !match(mk) {
			kept = append(kept, mk)
		}
	}
	m.markers = kept
}

// DrawStop adds one bus-stop marker for a stop served by route.
func (m *Manager) DrawStop(stop transit.Stop, route transit.Route, popup string) Marker {
	color := route.ColorHex
	if color == "" {
		color = defaultRouteColor
	}
	return m.add(Marker{
		Purpose:  PurposeBusStop,
		Kind:     KindMarker,
		Lat:      stop.Latitude,
		Lon:      stop.Longitude,
		ColorHex: color,
		Popup:    popup,
	})
}

// DrawActiveShuttle adds a marker for a vehicle position reported in a
// realtime schedule item.
func (m *Manager) DrawActiveShuttle(pos transit.VehiclePosition, route transit.Route) Marker {
	color := route.ColorHex
	if color == "" {
		color = defaultRouteColor
	}
	return m.add(Marker{
		Purpose:  PurposeActiveShuttle,
		Kind:     KindMarker,
		Lat:      pos.Latitude,
		Lon:      pos.Longitude,
		ColorHex: color,
		Bearing:  pos.Bearing,
		Popup:    route.DisplayName(),
	})
}

// DrawSearchResult adds a marker for a forward-search candidate.
func (m *Manager) DrawSearchResult(lat, lon float64, label string) Marker {
	return m.add(Marker{
		Purpose: PurposeSearchResult,
		Kind:    KindMarker,
		Lat:     lat,
		Lon:     lon,
		Popup:   label,
	})
}

// DrawUserLocation draws the user marker plus two concentric accuracy
// circles (accuracy and 1.5x accuracy). Any prior user overlays are
// replaced, never stacked.
func (m *Manager) DrawUserLocation(lat, lon, accuracyMeters float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeWhere(func(mk Marker) bool { return mk.Purpose == PurposeUserLocation })

	m.addLocked(Marker{
		Purpose: PurposeUserLocation,
		Kind:    KindMarker,
		Lat:     lat,
		Lon:     lon,
		Popup:   "Your Location",
	})
	m.addLocked(Marker{
		Purpose:      PurposeUserLocation,
		Kind:         KindCircle,
		Lat:          lat,
		Lon:          lon,
		RadiusMeters: accuracyMeters,
		ColorHex:     "6A63F6",
	})
	m.addLocked(Marker{
		Purpose:      PurposeUserLocation,
		Kind:         KindCircle,
		Lat:          lat,
		Lon:          lon,
		RadiusMeters: accuracyMeters * 1.5,
		ColorHex:     "CCCAF6",
	})
}

func (m *Manager) add(mk Marker) Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(mk)
}

func (m *Manager) addLocked(mk Marker) Marker {
	m.nextID++
	mk.ID = m.nextID
	m.markers = append(m.markers, mk)
	return mk
}

// Snapshot returns a copy of the live overlay set.
func (m *Manager) Snapshot() []Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Marker, len(m.markers))
	copy(out, m.markers)
	return out
}

// CountByPurpose returns how many overlays carry each purpose tag.
func (m *Manager) CountByPurpose() map[Purpose]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[Purpose]int)
	for _, mk := range m.markers {
		counts[mk.Purpose]++
	}
	return counts
}

// StopIdentity builds the dedup key for a physical stop. Stops shared by
// several itineraries draw once.
func StopIdentity(stop transit.Stop) string {
	return fmt.Sprintf("%s@%.5f,%.5f", stop.Name, stop.Latitude, stop.Longitude)
}
