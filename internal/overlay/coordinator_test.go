package overlay

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/RhythmD22/SmartShuttle/internal/location"
	"github.com/RhythmD22/SmartShuttle/internal/realtime"
	"github.com/RhythmD22/SmartShuttle/internal/transit"
)

// fakeTransit serves a canned response or error.
type fakeTransit struct {
	mu    sync.Mutex
	resp  *transit.Response
	err   error
	calls int
}

func (f *fakeTransit) NearbyRoutes(_ context.Context, _, _ float64, _ int, _ bool) (*transit.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeGeocoder struct{ name string }

func (f *fakeGeocoder) ReverseLookup(context.Context, float64, float64) string {
	if f.name == "" {
		return "Current Location"
	}
	return f.name
}

// memBackend duplicates the location test backend; kept local to the package.
type memBackend struct {
	records map[string]string
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

func testCoordinator(t *testing.T, ts TransitSource) (*Coordinator, *location.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := location.NewStore(&memBackend{records: make(map[string]string)}, location.KeyTracking, logger)
	c := NewCoordinator(store, ts, &fakeGeocoder{}, nil, Options{
		DebounceWindow: 10 * time.Millisecond,
		FallbackLat:    40.4406,
		FallbackLon:    -79.9951,
	}, logger)
	t.Cleanup(c.Close)
	return c, store
}

// waitForOutcome polls until the coordinator finishes a cycle.
func waitForOutcome(t *testing.T, c *Coordinator) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := c.LastOutcome(); s != StateIdle {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("coordinator never completed a cycle")
	return StateIdle
}

func routesResponse() *transit.Response {
	stop := &transit.Stop{Name: "Forbes Ave at Craig St", Code: "8163", Latitude: 40.4445, Longitude: -79.9532, WheelchairBoarding: 1}
	return &transit.Response{Routes: []transit.Route{{
		ShortName: "61C",
		ColorHex:  "413C96",
		RouteType: 3,
		Itineraries: []transit.Itinerary{
			{
				Headsign:    "Downtown",
				ClosestStop: stop,
				ScheduleItems: []transit.ScheduleItem{{
					DepartureTime:   time.Now().Add(5 * time.Minute).Unix(),
					IsRealTime:      true,
					VehiclePosition: &transit.VehiclePosition{Latitude: 40.4410, Longitude: -79.9600, Bearing: 90},
				}},
			},
			// Second itinerary sharing the same physical stop
			{
				Headsign:    "Oakland",
				ClosestStop: stop,
				ScheduleItems: []transit.ScheduleItem{{
					DepartureTime: time.Now().Add(9 * time.Minute).Unix(),
				}},
			},
		},
		Alerts: []transit.Alert{
			{Effect: transit.EffectDetour, Title: "Detour", Description: "Road closure"},
			{Effect: transit.EffectDetour, Title: "Detour", Description: "Road closure"},
		},
	}}}
}

func TestCoordinator_SuccessfulCycle(t *testing.T) {
	ft := &fakeTransit{resp: routesResponse()}
	c, store := testCoordinator(t, ft)
	ctx := context.Background()

	if err := c.SelectSearchResult(ctx, 40.4406, -79.9951, "Forbes Ave, Oakland"); err != nil {
		t.Fatalf("SelectSearchResult: %v", err)
	}

	if got := waitForOutcome(t, c); got != StateRendering {
		t.Fatalf("outcome = %q, want rendering", got)
	}

	// Point persisted through the LocationStore
	loc := store.Get(ctx)
	if loc == nil || loc.DisplayName != "Forbes Ave, Oakland" {
		t.Errorf("persisted location = %+v", loc)
	}

	counts := c.Markers().CountByPurpose()
	if counts[PurposeBusStop] != 1 {
		t.Errorf("bus-stop markers = %d, want 1 (shared stop drawn once)", counts[PurposeBusStop])
	}
	if counts[PurposeActiveShuttle] != 1 {
		t.Errorf("active-shuttle markers = %d, want 1", counts[PurposeActiveShuttle])
	}

	panels := c.PanelSnapshot()
	if panels.State != PanelOK {
		t.Errorf("panel state = %q, want ok", panels.State)
	}
	if len(panels.Arrivals) != 2 {
		t.Errorf("arrival rows = %d, want 2 (one per itinerary)", len(panels.Arrivals))
	}
	if len(panels.Alerts) != 1 {
		t.Errorf("alerts = %d, want 1 (duplicates collapsed)", len(panels.Alerts))
	}
	if len(panels.Capacity) != 1 {
		t.Errorf("capacity rows = %d, want 1", len(panels.Capacity))
	}
}

func TestCoordinator_EmptyRoutesIsNoCoverageNotError(t *testing.T) {
	ft := &fakeTransit{resp: &transit.Response{}}
	c, _ := testCoordinator(t, ft)

	if err := c.Pan(context.Background(), 45.0, -100.0); err != nil {
		t.Fatalf("Pan: %v", err)
	}

	if got := waitForOutcome(t, c); got != StateRendering {
		t.Fatalf("outcome = %q, want rendering (empty coverage is not an error)", got)
	}

	panels := c.PanelSnapshot()
	if panels.State != PanelEmpty {
		t.Errorf("panel state = %q, want empty", panels.State)
	}
	if panels.StatusText != StatusNoCoverage {
		t.Errorf("status = %q, want %q", panels.StatusText, StatusNoCoverage)
	}

	counts := c.Markers().CountByPurpose()
	if counts[PurposeBusStop] != 0 || counts[PurposeActiveShuttle] != 0 {
		t.Errorf("markers drawn for empty coverage: %v", counts)
	}
}

func TestCoordinator_UpstreamErrorClearsMarkers(t *testing.T) {
	ft := &fakeTransit{resp: routesResponse()}
	c, _ := testCoordinator(t, ft)
	ctx := context.Background()

	// First cycle succeeds and draws markers
	if err := c.SelectSearchResult(ctx, 40.4406, -79.9951, "Forbes Ave, Oakland"); err != nil {
		t.Fatal(err)
	}
	if got := waitForOutcome(t, c); got != StateRendering {
		t.Fatalf("first outcome = %q, want rendering", got)
	}

	// Second cycle fails with an upstream 500
	ft.mu.Lock()
	ft.err = &transit.APIError{StatusCode: 500}
	ft.mu.Unlock()

	if err := c.Pan(ctx, 40.45, -79.98); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && c.LastOutcome() != StateError {
		time.Sleep(5 * time.Millisecond)
	}
	if got := c.LastOutcome(); got != StateError {
		t.Fatalf("outcome = %q, want error", got)
	}

	panels := c.PanelSnapshot()
	if panels.State != PanelError {
		t.Errorf("panel state = %q, want error", panels.State)
	}
	if panels.StatusText != StatusError {
		t.Errorf("status = %q, want %q", panels.StatusText, StatusError)
	}

	counts := c.Markers().CountByPurpose()
	if counts[PurposeBusStop] != 0 || counts[PurposeActiveShuttle] != 0 {
		t.Errorf("stale markers survived the error cycle: %v", counts)
	}
}

func TestCoordinator_GeolocationDeniedUsesFallback(t *testing.T) {
	ft := &fakeTransit{resp: &transit.Response{}}
	c, store := testCoordinator(t, ft)
	ctx := context.Background()

	c.GeolocationDenied(ctx)
	waitForOutcome(t, c)

	loc := store.Get(ctx)
	if loc == nil {
		t.Fatal("fallback point was not persisted")
	}
	if loc.Latitude != 40.4406 || loc.Longitude != -79.9951 {
		t.Errorf("persisted point = (%f, %f), want the fallback coordinate", loc.Latitude, loc.Longitude)
	}
	if loc.DisplayName != "Current Location" {
		t.Errorf("display name = %q, want Current Location", loc.DisplayName)
	}
}

func TestCoordinator_GeolocationGrantedDrawsUserMarker(t *testing.T) {
	ft := &fakeTransit{resp: &transit.Response{}}
	c, _ := testCoordinator(t, ft)

	if err := c.GeolocationGranted(context.Background(), 40.4406, -79.9951, 25); err != nil {
		t.Fatal(err)
	}
	waitForOutcome(t, c)

	if got := c.Markers().CountByPurpose()[PurposeUserLocation]; got != 3 {
		t.Errorf("user overlays = %d, want 3", got)
	}
}

func TestCoordinator_InvalidSelectionRejected(t *testing.T) {
	ft := &fakeTransit{resp: &transit.Response{}}
	c, store := testCoordinator(t, ft)
	ctx := context.Background()

	if err := c.SelectSearchResult(ctx, 40.4406, -79.9951, "Forbes Ave, Oakland"); err != nil {
		t.Fatal(err)
	}
	waitForOutcome(t, c)

	if err := c.SelectSearchResult(ctx, 123.0, -79.9951, "bogus"); err == nil {
		t.Fatal("expected error for out-of-range latitude")
	}

	loc := store.Get(ctx)
	if loc == nil || loc.DisplayName != "Forbes Ave, Oakland" {
		t.Errorf("valid location overwritten by invalid selection: %+v", loc)
	}
}

func TestCoordinator_BurstPansCoalesce(t *testing.T) {
	ft := &fakeTransit{resp: &transit.Response{}}
	c, _ := testCoordinator(t, ft)
	ctx := context.Background()

	// Rapid pans within the debounce window
	for i := 0; i < 5; i++ {
		if err := c.Pan(ctx, 40.44+float64(i)/1000, -79.99); err != nil {
			t.Fatal(err)
		}
	}
	waitForOutcome(t, c)
	time.Sleep(50 * time.Millisecond)

	ft.mu.Lock()
	calls := ft.calls
	ft.mu.Unlock()
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (burst coalesced)", calls)
	}
}

func TestCoordinator_StopsBeyondRadiusNotDrawn(t *testing.T) {
	near := &transit.Stop{Name: "Forbes Ave at Craig St", Latitude: 40.4410, Longitude: -79.9940}
	far := &transit.Stop{Name: "Penn Ave at Braddock Ave", Latitude: 40.4445, Longitude: -79.9532}
	ft := &fakeTransit{resp: &transit.Response{Routes: []transit.Route{{
		ShortName: "61C",
		RouteType: 3,
		Itineraries: []transit.Itinerary{
			{Headsign: "Downtown", ClosestStop: near},
			{Headsign: "Braddock", ClosestStop: far},
		},
	}}}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := location.NewStore(&memBackend{records: make(map[string]string)}, location.KeyTracking, logger)
	c := NewCoordinator(store, ft, &fakeGeocoder{}, nil, Options{
		MaxDistanceMeters: 500,
		DebounceWindow:    10 * time.Millisecond,
		FallbackLat:       40.4406,
		FallbackLon:       -79.9951,
	}, logger)
	t.Cleanup(c.Close)

	if err := c.SelectSearchResult(context.Background(), 40.4406, -79.9951, "Forbes Ave, Oakland"); err != nil {
		t.Fatalf("SelectSearchResult: %v", err)
	}
	waitForOutcome(t, c)

	counts := c.Markers().CountByPurpose()
	if counts[PurposeBusStop] != 1 {
		t.Errorf("bus-stop markers = %d, want 1 (stop beyond radius skipped)", counts[PurposeBusStop])
	}
	// The radius limits markers, not the arrivals panel.
	if rows := c.PanelSnapshot().Arrivals; len(rows) != 2 {
		t.Errorf("arrival rows = %d, want 2", len(rows))
	}
}

func TestCoordinator_FeedAlertsScopedToVisibleRoutes(t *testing.T) {
	ft := &fakeTransit{resp: &transit.Response{Routes: []transit.Route{{
		ShortName:       "61C",
		RealTimeRouteID: "PAT:61C",
		RouteType:       3,
	}}}}

	feed := realtime.NewStore()
	feed.SetAlerts([]transit.Alert{
		{ID: "a1", Effect: transit.EffectDetour, Title: "61C detour", InformedEntities: []string{"PAT:61C"}},
		{ID: "a2", Effect: transit.EffectNoService, Title: "71A suspended", InformedEntities: []string{"PAT:71A"}},
		{ID: "a3", Effect: transit.EffectModifiedService, Title: "System maintenance"},
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := location.NewStore(&memBackend{records: make(map[string]string)}, location.KeyTracking, logger)
	c := NewCoordinator(store, ft, &fakeGeocoder{}, feed, Options{
		DebounceWindow: 10 * time.Millisecond,
		FallbackLat:    40.4406,
		FallbackLon:    -79.9951,
	}, logger)
	t.Cleanup(c.Close)

	if err := c.SelectSearchResult(context.Background(), 40.4406, -79.9951, "Forbes Ave, Oakland"); err != nil {
		t.Fatalf("SelectSearchResult: %v", err)
	}
	waitForOutcome(t, c)

	panels := c.PanelSnapshot()
	if len(panels.Alerts) != 2 {
		t.Fatalf("alerts = %d, want 2 (route-scoped plus system-wide)", len(panels.Alerts))
	}
	for _, a := range panels.Alerts {
		if a.Title == "71A suspended" {
			t.Error("alert for an undisplayed route reached the panel")
		}
	}
}
