package overlay

import (
	"fmt"
	"time"

	"github.com/RhythmD22/SmartShuttle/internal/transit"
)

// Panel status texts shown to the user. Empty coverage and upstream failure
// are distinct states; an empty routes list is not an error.
const (
	StatusNoCoverage = "No buses available in this area"
	StatusError      = "Error fetching bus data"
)

// PanelState describes how a dependent panel should render.
type PanelState string

const (
	PanelOK    PanelState = "ok"
	PanelEmpty PanelState = "empty"
	PanelError PanelState = "error"
)

// Panels is everything the dependent UI derives from one refresh cycle.
// All panels come from the same response payload, so they cannot disagree.
type Panels struct {
	State         PanelState    `json:"state"`
	LocationLabel string        `json:"location_label"`
	StatusText    string        `json:"status_text,omitempty"`
	Arrivals      []ArrivalRow  `json:"arrivals"`
	Capacity      []CapacityRow `json:"capacity"`
	Alerts        []AlertItem   `json:"alerts"`
}

// ArrivalRow is one line of the Route & Arrivals panel.
type ArrivalRow struct {
	RouteName   string `json:"route"`
	Headsign    string `json:"headsign"`
	ArrivalText string `json:"arrival"`
	IsRealTime  bool   `json:"is_real_time"`
	Vehicle     string `json:"vehicle"` // vehicle display class (bus, tram, ...)
}

// CapacityRow is one line of the Shuttle Capacity panel.
type CapacityRow struct {
	Name           string `json:"name"`
	SeatsAvailable int    `json:"seats_available"`
	Level          string `json:"level"` // low | medium | high
}

// AlertItem is one rendered alert in the notifications feed.
type AlertItem struct {
	Effect      string `json:"effect"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// buildArrivalRows flattens routes into arrival lines, one per itinerary,
// using each itinerary's first schedule item.
func buildArrivalRows(routes []transit.Route, now time.Time) []ArrivalRow {
	var rows []ArrivalRow
	for _, route := range routes {
		if len(route.Itineraries) == 0 {
			rows = append(rows, ArrivalRow{
				RouteName:   route.DisplayName(),
				ArrivalText: "No schedule data",
				Vehicle:     route.Mode().VehicleClass(),
			})
			continue
		}
		for _, itin := range route.Itineraries {
			row := ArrivalRow{
				RouteName: route.DisplayName(),
				Headsign:  itin.Headsign,
				Vehicle:   route.Mode().VehicleClass(),
			}
			if len(itin.ScheduleItems) == 0 {
				row.ArrivalText = "Schedule unavailable"
			} else {
				item := itin.ScheduleItems[0]
				row.ArrivalText = formatArrival(item.DepartureTime, now)
				row.IsRealTime = item.IsRealTime
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// formatArrival renders a departure time as minutes from now, clamping past
// departures to "now".
func formatArrival(departureEpoch int64, now time.Time) string {
	diff := departureEpoch - now.Unix()
	if diff < 0 {
		diff = 0
	}
	minutes := (diff + 59) / 60
	if minutes == 0 {
		return "Arriving now"
	}
	return fmt.Sprintf("Arriving in %d min", minutes)
}

// Seats per shuttle class.
var shuttleCapacity = map[string]int{
	"micro":    6,
	"small":    12,
	"standard": 16,
	"large":    24,
	"minibus":  30,
	"bus":      40,
}

// buildCapacityRows estimates seat availability per route, adjusted for peak
// hours and weekends. At most four routes are shown.
func buildCapacityRows(routes []transit.Route, now time.Time) []CapacityRow {
	hour := now.Hour()
	isPeak := (hour >= 7 && hour <= 9) || (hour >= 16 && hour <= 18)
	isWeekend := now.Weekday() == time.Saturday || now.Weekday() == time.Sunday

	var rows []CapacityRow
	for i, route := range routes {
		if i >= 4 {
			break
		}

		class := shuttleClassForMode(route.Mode())
		base := shuttleCapacity[class]

		var factor float64
		switch {
		case isPeak:
			factor = 0.3
		case isWeekend:
			factor = 0.8
		default:
			factor = 0.6
		}
		seats := int(float64(base) * factor)
		if seats < 1 {
			seats = 1
		}

		level := "high"
		ratio := float64(seats) / float64(base)
		switch {
		case ratio < 0.4:
			level = "low"
		case ratio < 0.7:
			level = "medium"
		}

		rows = append(rows, CapacityRow{
			Name:           route.DisplayName(),
			SeatsAvailable: seats,
			Level:          level,
		})
	}
	return rows
}

// shuttleClassForMode picks the capacity class for a transit mode.
func shuttleClassForMode(m transit.Mode) string {
	switch m {
	case transit.ModeTram:
		return "standard"
	case transit.ModeSubway, transit.ModeFerry:
		return "large"
	case transit.ModeCable, transit.ModeAerial:
		return "small"
	default:
		return "bus"
	}
}

// dedupAlerts merges alert sources, dropping duplicates by alert identity
// while preserving first-seen order.
func dedupAlerts(sources ...[]transit.Alert) []AlertItem {
	seen := make(map[string]bool)
	var items []AlertItem
	for _, alerts := range sources {
		for _, a := range alerts {
			if seen[a.Key()] {
				continue
			}
			seen[a.Key()] = true
			items = append(items, AlertItem{
				Effect:      a.Effect,
				Title:       a.Title,
				Description: a.Description,
			})
		}
	}
	return items
}
