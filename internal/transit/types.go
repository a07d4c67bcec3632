package transit

import "fmt"

// Response is the top-level nearby_routes payload from the transit collaborator.
// An empty Routes list is a valid outcome meaning "no coverage here".
type Response struct {
	Routes []Route `json:"routes"`
}

// Route is one transit route with its itineraries and active alerts.
type Route struct {
	GlobalRouteID   string      `json:"global_route_id"`
	RealTimeRouteID string      `json:"real_time_route_id"`
	ShortName       string      `json:"route_short_name"`
	LongName        string      `json:"route_long_name"`
	ColorHex        string      `json:"route_color"`
	RouteType       int         `json:"route_type"`
	ModeName        string      `json:"mode_name"`
	Itineraries     []Itinerary `json:"itineraries"`
	Alerts          []Alert     `json:"alerts"`
}

// DisplayName returns the best available route label.
func (r Route) DisplayName() string {
	if r.ShortName != "" {
		return r.ShortName
	}
	if r.RealTimeRouteID != "" {
		return r.RealTimeRouteID
	}
	return "Unknown Route"
}

// FeedRouteID returns the identifier realtime feeds use for this route.
func (r Route) FeedRouteID() string {
	if r.RealTimeRouteID != "" {
		return r.RealTimeRouteID
	}
	return r.GlobalRouteID
}

// Mode returns the route's transit mode from the GTFS route type.
func (r Route) Mode() Mode {
	return ModeFromRouteType(r.RouteType)
}

// Itinerary is one directional pattern of a route with its own headsign.
type Itinerary struct {
	Headsign      string         `json:"headsign"`
	ClosestStop   *Stop          `json:"closest_stop"`
	ScheduleItems []ScheduleItem `json:"schedule_items"`
}

// Stop is a physical transit stop.
type Stop struct {
	Name               string  `json:"stop_name"`
	Code               string  `json:"stop_code"`
	Latitude           float64 `json:"stop_lat"`
	Longitude          float64 `json:"stop_lon"`
	WheelchairBoarding int     `json:"wheelchair_boarding"`
}

// Accessibility is the wheelchair-boarding state of a stop.
type Accessibility string

const (
	Accessible    Accessibility = "accessible"
	NotAccessible Accessibility = "not_accessible"
	UnknownAccess Accessibility = "unknown"
)

// Accessibility maps the GTFS wheelchair_boarding code to a display state.
func (s Stop) Accessibility() Accessibility {
	switch s.WheelchairBoarding {
	case 1:
		return Accessible
	case 2:
		return NotAccessible
	default:
		return UnknownAccess
	}
}

// ScheduleItem is one upcoming departure.
type ScheduleItem struct {
	DepartureTime   int64            `json:"departure_time"` // epoch seconds
	IsRealTime      bool             `json:"is_real_time"`
	RTTripID        string           `json:"rt_trip_id"`
	VehiclePosition *VehiclePosition `json:"vehicle_position,omitempty"`
}

// VehiclePosition is the reported position of an active vehicle.
type VehiclePosition struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Bearing   float64 `json:"bearing"`
}

// Alert is a service alert attached to a route.
type Alert struct {
	ID               string   `json:"id,omitempty"`
	Effect           string   `json:"effect"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	InformedEntities []string `json:"informed_entities,omitempty"`
}

// Alert effects per GTFS-RT.
const (
	EffectNoService         = "NO_SERVICE"
	EffectReducedService    = "REDUCED_SERVICE"
	EffectAdditionalService = "ADDITIONAL_SERVICE"
	EffectModifiedService   = "MODIFIED_SERVICE"
	EffectSignificantDelays = "SIGNIFICANT_DELAYS"
	EffectDetour            = "DETOUR"
	EffectOther             = "OTHER"
)

// Key is the alert's deduplication identity: the ID when present, otherwise
// the (effect, title, description) tuple. Two alerts with equal keys are the
// same logical alert and must render once.
func (a Alert) Key() string {
	if a.ID != "" {
		return "id:" + a.ID
	}
	return fmt.Sprintf("%s|%s|%s", a.Effect, a.Title, a.Description)
}
