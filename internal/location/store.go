package location

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/RhythmD22/SmartShuttle/internal/geo"
)

// Storage keys for the two page flows. The flows deliberately keep separate
// selected points; a location picked on the notifications view does not move
// the tracking view.
const (
	KeyTracking     = "selectedTrackingLocation"
	KeyNotification = "selectedNotificationLocation"

	KeyTheme              = "themePreference"
	KeyLocationPermission = "locationPermission"
)

// SelectedLocation is the single current point of interest for one flow.
type SelectedLocation struct {
	Latitude       float64 `json:"lat"`
	Longitude      float64 `json:"lon"`
	DisplayName    string  `json:"displayName"`
	AcquiredMillis int64   `json:"timestamp"`
}

// Backend is the durable key/value store a Store persists into.
type Backend interface {
	GetRecord(ctx context.Context, key string) (string, bool, error)
	PutRecord(ctx context.Context, key, value string) error
	DeleteRecord(ctx context.Context, key string) error
}

// Store persists and restores SelectedLocation records under a fixed storage key.
// It performs no network or rendering side effects.
type Store struct {
	backend Backend
	key     string
	logger  *slog.Logger
}

// NewStore creates a Store bound to one storage key.
func NewStore(backend Backend, key string, logger *slog.Logger) *Store {
	return &Store{backend: backend, key: key, logger: logger}
}

// Key returns the storage key this store writes under.
func (s *Store) Key() string { return s.key }

// Get reads the persisted location. Returns nil when absent or malformed;
// a malformed record is treated as absent, not as an error.
func (s *Store) Get(ctx context.Context) *SelectedLocation {
	raw, ok, err := s.backend.GetRecord(ctx, s.key)
	if err != nil {
		s.logger.Error("reading selected location", "key", s.key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var loc SelectedLocation
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		s.logger.Warn("discarding malformed selected location", "key", s.key, "error", err)
		return nil
	}
	if !geo.ValidCoords(loc.Latitude, loc.Longitude) {
		s.logger.Warn("discarding out-of-range selected location",
			"key", s.key, "lat", loc.Latitude, "lon", loc.Longitude)
		return nil
	}
	return &loc
}

// Set validates and persists loc. Out-of-range coordinates make Set a no-op,
// so an invalid candidate never overwrites a previously valid record.
func (s *Store) Set(ctx context.Context, loc SelectedLocation) {
	if !geo.ValidCoords(loc.Latitude, loc.Longitude) {
		s.logger.Warn("rejecting invalid location",
			"key", s.key, "lat", loc.Latitude, "lon", loc.Longitude)
		return
	}

	raw, err := json.Marshal(loc)
	if err != nil {
		s.logger.Error("serializing selected location", "key", s.key, "error", err)
		return
	}
	if err := s.backend.PutRecord(ctx, s.key, string(raw)); err != nil {
		s.logger.Error("persisting selected location", "key", s.key, "error", err)
	}
}

// Clear removes the persisted location.
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.DeleteRecord(ctx, s.key); err != nil {
		s.logger.Error("clearing selected location", "key", s.key, "error", err)
	}
}
