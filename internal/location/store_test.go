package location

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

// memBackend is an in-memory Backend for tests.
type memBackend struct {
	records map[string]string
}

func newMemBackend() *memBackend {
	return &memBackend{records: make(map[string]string)}
}

func (m *memBackend) GetRecord(_ context.Context, key string) (string, bool, error) {
	v, ok := m.records[key]
	return v, ok, nil
}

func (m *memBackend) PutRecord(_ context.Context, key, value string) error {
	m.records[key] = value
	return nil
}

func (m *memBackend) DeleteRecord(_ context.Context, key string) error {
	delete(m.records, key)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(newMemBackend(), KeyTracking, testLogger())
	ctx := context.Background()

	loc := SelectedLocation{
		Latitude:       40.4406,
		Longitude:      -79.9951,
		DisplayName:    "Forbes Ave, Oakland",
		AcquiredMillis: 1700000000000,
	}
	s.Set(ctx, loc)

	got := s.Get(ctx)
	if got == nil {
		t.Fatal("Get returned nil after Set")
	}
	if *got != loc {
		t.Errorf("Get = %+v, want %+v", *got, loc)
	}
}

func TestStore_GetAbsent(t *testing.T) {
	s := NewStore(newMemBackend(), KeyTracking, testLogger())
	if got := s.Get(context.Background()); got != nil {
		t.Errorf("Get on empty store = %+v, want nil", got)
	}
}

func TestStore_InvalidSetIsNoOp(t *testing.T) {
	s := NewStore(newMemBackend(), KeyTracking, testLogger())
	ctx := context.Background()

	valid := SelectedLocation{Latitude: 40.44, Longitude: -79.99, DisplayName: "Oakland"}
	s.Set(ctx, valid)

	tests := []struct {
		name string
		loc  SelectedLocation
	}{
		{"lat too big", SelectedLocation{Latitude: 91, Longitude: 0}},
		{"lat too small", SelectedLocation{Latitude: -90.5, Longitude: 0}},
		{"lon too big", SelectedLocation{Latitude: 0, Longitude: 181}},
		{"lon too small", SelectedLocation{Latitude: 0, Longitude: -180.01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Set(ctx, tt.loc)
			got := s.Get(ctx)
			if got == nil {
				t.Fatal("valid record lost after invalid Set")
			}
			if *got != valid {
				t.Errorf("Get = %+v, want prior valid record %+v", *got, valid)
			}
		})
	}
}

func TestStore_MalformedTreatedAsAbsent(t *testing.T) {
	backend := newMemBackend()
	backend.records[KeyNotification] = `{"lat": not json`

	s := NewStore(backend, KeyNotification, testLogger())
	if got := s.Get(context.Background()); got != nil {
		t.Errorf("Get on malformed record = %+v, want nil", got)
	}
}

func TestStore_OutOfRangeRecordTreatedAsAbsent(t *testing.T) {
	backend := newMemBackend()
	backend.records[KeyTracking] = `{"lat": 123.0, "lon": 10.0, "displayName": "bogus"}`

	s := NewStore(backend, KeyTracking, testLogger())
	if got := s.Get(context.Background()); got != nil {
		t.Errorf("Get on out-of-range record = %+v, want nil", got)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(newMemBackend(), KeyTracking, testLogger())
	ctx := context.Background()

	s.Set(ctx, SelectedLocation{Latitude: 40.44, Longitude: -79.99})
	s.Clear(ctx)
	if got := s.Get(ctx); got != nil {
		t.Errorf("Get after Clear = %+v, want nil", got)
	}
}

func TestStore_FlowsIsolated(t *testing.T) {
	backend := newMemBackend()
	ctx := context.Background()

	tracking := NewStore(backend, KeyTracking, testLogger())
	notification := NewStore(backend, KeyNotification, testLogger())

	tracking.Set(ctx, SelectedLocation{Latitude: 40.44, Longitude: -79.99, DisplayName: "Oakland"})

	if got := notification.Get(ctx); got != nil {
		t.Errorf("notification flow sees tracking record: %+v", got)
	}
	if got := tracking.Get(ctx); got == nil || got.DisplayName != "Oakland" {
		t.Errorf("tracking record = %+v, want Oakland", got)
	}
}
