package overlay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RhythmD22/SmartShuttle/internal/geo"
	"github.com/RhythmD22/SmartShuttle/internal/location"
	"github.com/RhythmD22/SmartShuttle/internal/metrics"
	"github.com/RhythmD22/SmartShuttle/internal/refresh"
	"github.com/RhythmD22/SmartShuttle/internal/transit"
)

// State is the coordinator's position in its refresh cycle.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving-location"
	StateFetching  State = "fetching"
	StateRendering State = "rendering"
	StateError     State = "error"
)

// TransitSource fetches nearby routes for a point.
type TransitSource interface {
	NearbyRoutes(ctx context.Context, lat, lon float64, maxDistanceMeters int, forceRealtime bool) (*transit.Response, error)
}

// Geocoder resolves a point to a short display name.
type Geocoder interface {
	ReverseLookup(ctx context.Context, lat, lon float64) string
}

// AlertSource supplies service alerts from outside the nearby-routes payload.
type AlertSource interface {
	Active() []transit.Alert
	ForRoute(routeID string) []transit.Alert
}

// Options tunes a Coordinator.
type Options struct {
	MaxDistanceMeters int
	DebounceWindow    time.Duration
	FallbackLat       float64
	FallbackLon       float64
	Now               func() time.Time // test hook; defaults to time.Now

	// Flow labels this coordinator's refresh-cycle metrics when Collector
	// is set.
	Flow      string
	Collector *metrics.Collector
}

// Coordinator orchestrates one view's overlay: it resolves location events
// to a point, persists the point, fetches nearby routes through a trailing-
// edge debouncer, and redraws markers and dependent panels from the
// response. It is the only component that mutates the LocationStore, and
// every render clears markers before drawing so the last caller always wins
// visually.
type Coordinator struct {
	mu       sync.Mutex
	state    State
	outcome  State // terminal state of the last completed cycle
	store    *location.Store
	transit  TransitSource
	geocoder Geocoder
	alerts   AlertSource // may be nil
	markers  *Manager
	debounce *refresh.Debouncer
	opts     Options
	logger   *slog.Logger
	panels   Panels
}

// NewCoordinator wires a coordinator for one view flow.
func NewCoordinator(store *location.Store, ts TransitSource, gc Geocoder, alerts AlertSource, opts Options, logger *slog.Logger) *Coordinator {
	if opts.MaxDistanceMeters <= 0 {
		opts.MaxDistanceMeters = 1500
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 800 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Coordinator{
		state:    StateIdle,
		outcome:  StateIdle,
		store:    store,
		transit:  ts,
		geocoder: gc,
		alerts:   alerts,
		markers:  NewManager(),
		opts:     opts,
		logger:   logger,
		panels:   Panels{State: PanelEmpty, LocationLabel: "Select a location"},
	}
	c.debounce = refresh.NewDebouncer(opts.DebounceWindow, func(p refresh.Point) {
		c.runCycle(p)
	})
	return c
}

// Close cancels any pending debounced refresh.
func (c *Coordinator) Close() {
	c.debounce.Stop()
}

// State returns the coordinator's current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastOutcome returns the terminal state of the most recent refresh cycle,
// StateRendering after a successful render or StateError after a failure.
func (c *Coordinator) LastOutcome() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Markers returns the marker manager owning this view's overlays.
func (c *Coordinator) Markers() *Manager {
	return c.markers
}

// PanelSnapshot returns a copy of the dependent panel state.
func (c *Coordinator) PanelSnapshot() Panels {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.panels
	p.Arrivals = append([]ArrivalRow(nil), c.panels.Arrivals...)
	p.Capacity = append([]CapacityRow(nil), c.panels.Capacity...)
	p.Alerts = append([]AlertItem(nil), c.panels.Alerts...)
	return p
}

// Restore loads the persisted location, if any, and schedules a refresh for
// it. With nothing persisted the view stays idle awaiting a location event.
func (c *Coordinator) Restore(ctx context.Context) {
	loc := c.store.Get(ctx)
	if loc == nil {
		return
	}
	c.setLabel(loc.DisplayName)
	c.debounce.Trigger(refresh.Point{Lat: loc.Latitude, Lon: loc.Longitude})
}

// SelectSearchResult handles the user picking a forward-search candidate.
// Invalid coordinates are rejected and never overwrite the stored location.
func (c *Coordinator) SelectSearchResult(ctx context.Context, lat, lon float64, displayName string) error {
	if !geo.ValidCoords(lat, lon) {
		return fmt.Errorf("invalid coordinates %.4f, %.4f", lat, lon)
	}
	c.resolve(ctx, lat, lon, displayName, true)
	return nil
}

// GeolocationGranted handles a granted browser geolocation fix. The point is
// reverse-geocoded for a label and a user marker with accuracy circles is
// drawn.
func (c *Coordinator) GeolocationGranted(ctx context.Context, lat, lon, accuracyMeters float64) error {
	if !geo.ValidCoords(lat, lon) {
		return fmt.Errorf("invalid coordinates %.4f, %.4f", lat, lon)
	}
	c.markers.DrawUserLocation(lat, lon, accuracyMeters)
	c.resolve(ctx, lat, lon, c.geocoder.ReverseLookup(ctx, lat, lon), true)
	return nil
}

// GeolocationDenied resolves to the fixed fallback coordinate instead of
// failing.
func (c *Coordinator) GeolocationDenied(ctx context.Context) {
	lat, lon := c.opts.FallbackLat, c.opts.FallbackLon
	c.resolve(ctx, lat, lon, c.geocoder.ReverseLookup(ctx, lat, lon), true)
}

// Pan handles a map pan settling on a new center.
func (c *Coordinator) Pan(ctx context.Context, lat, lon float64) error {
	if !geo.ValidCoords(lat, lon) {
		return fmt.Errorf("invalid coordinates %.4f, %.4f", lat, lon)
	}
	c.resolve(ctx, lat, lon, "", false)
	return nil
}

// Refresh re-triggers the fetch at the stored location, resolving the label
// again. Used by the refresh control and the periodic alerts poll.
func (c *Coordinator) Refresh(ctx context.Context) {
	loc := c.store.Get(ctx)
	if loc == nil {
		c.GeolocationDenied(ctx)
		return
	}
	c.resolve(ctx, loc.Latitude, loc.Longitude, c.geocoder.ReverseLookup(ctx, loc.Latitude, loc.Longitude), true)
}

// RunPeriodicRefresh re-triggers a refresh on every tick until ctx is done.
// The alerts view uses this with a 5 minute interval.
func (c *Coordinator) RunPeriodicRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// resolve is the ResolvingLocation step: persist the point, update the
// label, and hand the point to the debouncer.
func (c *Coordinator) resolve(ctx context.Context, lat, lon float64, displayName string, persistName bool) {
	c.setState(StateResolving)

	loc := location.SelectedLocation{
		Latitude:       lat,
		Longitude:      lon,
		DisplayName:    displayName,
		AcquiredMillis: c.opts.Now().UnixMilli(),
	}
	if !persistName || displayName == "" {
		// Pans keep the prior label; only explicit selections rename the view.
		if prior := c.store.Get(ctx); prior != nil && displayName == "" {
			loc.DisplayName = prior.DisplayName
		}
	}
	c.store.Set(ctx, loc)
	if loc.DisplayName != "" {
		c.setLabel(loc.DisplayName)
	}

	c.debounce.Trigger(refresh.Point{Lat: lat, Lon: lon})
}

// runCycle is the Fetching -> Rendering | Error step, executed after the
// debounce window. Errors are handled here, at one boundary per cycle.
func (c *Coordinator) runCycle(p refresh.Point) {
	c.setState(StateFetching)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := c.transit.NearbyRoutes(ctx, p.Lat, p.Lon, c.opts.MaxDistanceMeters, true)
	if err != nil {
		c.renderError(err)
		return
	}
	c.render(p, resp)
}

// render clears prior markers and redraws everything from the response. The
// dependent panels derive from the same payload.
func (c *Coordinator) render(p refresh.Point, resp *transit.Response) {
	c.mu.Lock()
	c.state = StateRendering
	c.mu.Unlock()

	c.markers.ClearAllExceptUser()

	seenStops := make(map[string]bool)
	var routeAlerts []transit.Alert
	for _, route := range resp.Routes {
		routeAlerts = append(routeAlerts, route.Alerts...)
		for _, itin := range route.Itineraries {
			if itin.ClosestStop != nil && c.stopInRange(p, *itin.ClosestStop) {
				stop := *itin.ClosestStop
				if id := StopIdentity(stop); !seenStops[id] {
					seenStops[id] = true
					c.markers.DrawStop(stop, route, stopPopup(stop, route, itin, c.opts.Now()))
				}
			}
			for _, item := range itin.ScheduleItems {
				if item.IsRealTime && item.VehiclePosition != nil {
					c.markers.DrawActiveShuttle(*item.VehiclePosition, route)
				}
			}
		}
	}

	extAlerts := c.externalAlerts(resp.Routes)

	now := c.opts.Now()
	panels := Panels{
		State:    PanelOK,
		Arrivals: buildArrivalRows(resp.Routes, now),
		Capacity: buildCapacityRows(resp.Routes, now),
		Alerts:   dedupAlerts(routeAlerts, extAlerts),
	}
	if len(resp.Routes) == 0 {
		panels.State = PanelEmpty
		panels.StatusText = StatusNoCoverage
	}

	c.mu.Lock()
	panels.LocationLabel = c.panels.LocationLabel
	c.panels = panels
	c.state = StateIdle
	c.outcome = StateRendering
	c.mu.Unlock()

	if c.opts.Collector != nil {
		c.opts.Collector.RefreshCycles.WithLabelValues(c.opts.Flow, "rendered").Inc()
	}
}

// stopInRange reports whether a stop marker belongs on the map. Stop markers
// stay within the configured radius of the viewed point even when the route
// serving them is in range.
func (c *Coordinator) stopInRange(p refresh.Point, stop transit.Stop) bool {
	if c.opts.MaxDistanceMeters <= 0 {
		return true
	}
	return geo.Haversine(p.Lat, p.Lon, stop.Latitude, stop.Longitude) <= float64(c.opts.MaxDistanceMeters)
}

// externalAlerts selects feed alerts for the panel: system-wide alerts (no
// informed entities) plus alerts naming one of the displayed routes.
func (c *Coordinator) externalAlerts(routes []transit.Route) []transit.Alert {
	if c.alerts == nil {
		return nil
	}
	var out []transit.Alert
	for _, a := range c.alerts.Active() {
		if len(a.InformedEntities) == 0 {
			out = append(out, a)
		}
	}
	for _, route := range routes {
		out = append(out, c.alerts.ForRoute(route.FeedRouteID())...)
	}
	return out
}

// renderError puts the view in the explicit error state: markers cleared,
// panels showing the failure. No retry is attempted; the user re-triggers.
func (c *Coordinator) renderError(err error) {
	c.logger.Warn("nearby routes fetch failed", "error", err)

	c.markers.ClearAllExceptUser()

	c.mu.Lock()
	label := c.panels.LocationLabel
	c.panels = Panels{
		State:         PanelError,
		LocationLabel: label,
		StatusText:    StatusError,
	}
	c.state = StateIdle
	c.outcome = StateError
	c.mu.Unlock()

	if c.opts.Collector != nil {
		c.opts.Collector.RefreshCycles.WithLabelValues(c.opts.Flow, "error").Inc()
	}
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Coordinator) setLabel(label string) {
	c.mu.Lock()
	c.panels.LocationLabel = label
	c.mu.Unlock()
}

// stopPopup builds the bus-stop popup text shown on the map.
func stopPopup(stop transit.Stop, route transit.Route, itin transit.Itinerary, now time.Time) string {
	code := stop.Code
	if code == "" {
		code = "N/A"
	}

	departure := "No schedule available"
	if len(itin.ScheduleItems) > 0 {
		departure = formatDeparture(itin.ScheduleItems[0], now)
	}

	access := "Unknown"
	switch stop.Accessibility() {
	case transit.Accessible:
		access = "Accessible"
	case transit.NotAccessible:
		access = "Not Accessible"
	}

	return fmt.Sprintf("%s\nStop: %s\nVehicle: %s\n%s\nAccessibility: %s",
		stop.Name, code, route.Mode().Label(), departure, access)
}

func formatDeparture(item transit.ScheduleItem, now time.Time) string {
	diff := item.DepartureTime - now.Unix()
	if diff < 0 {
		diff = 0
	}
	minutes := (diff + 59) / 60
	if minutes == 0 {
		return "Departing now"
	}
	return fmt.Sprintf("Departing in %d min", minutes)
}
