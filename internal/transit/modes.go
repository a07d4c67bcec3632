package transit

// Mode is a transit mode derived from the GTFS route type code.
type Mode string

const (
	ModeTram       Mode = "tram"
	ModeSubway     Mode = "subway"
	ModeRail       Mode = "rail"
	ModeBus        Mode = "bus"
	ModeFerry      Mode = "ferry"
	ModeCable      Mode = "cable"
	ModeAerial     Mode = "aerial"
	ModeFunicular  Mode = "funicular"
	ModeTrolleybus Mode = "trolleybus"
	ModeMonorail   Mode = "monorail"
)

// modeInfo carries everything derived from a mode in one place, so the human
// label and the vehicle display class can never drift apart.
type modeInfo struct {
	label string // human-readable vehicle description
	class string // CSS-style vehicle category used by the UI
}

var modeTable = map[Mode]modeInfo{
	ModeTram:       {"Tram, Streetcar, Light rail", "tram"},
	ModeSubway:     {"Subway, Metro", "subway"},
	ModeRail:       {"Rail", "rail"},
	ModeBus:        {"Bus", "bus"},
	ModeFerry:      {"Ferry", "ferry"},
	ModeCable:      {"Cable tram", "bus"},
	ModeAerial:     {"Aerial lift, suspended cable car", "bus"},
	ModeFunicular:  {"Funicular", "bus"},
	ModeTrolleybus: {"Trolleybus", "bus"},
	ModeMonorail:   {"Monorail", "rail"},
}

var routeTypeToMode = map[int]Mode{
	0:  ModeTram,
	1:  ModeSubway,
	2:  ModeRail,
	3:  ModeBus,
	4:  ModeFerry,
	5:  ModeCable,
	6:  ModeAerial,
	7:  ModeFunicular,
	11: ModeTrolleybus,
	12: ModeMonorail,
}

// ModeFromRouteType maps a GTFS route type code to a Mode.
// Unknown codes default to bus, matching how the app renders them.
func ModeFromRouteType(code int) Mode {
	if m, ok := routeTypeToMode[code]; ok {
		return m
	}
	return ModeBus
}

// Label returns the human-readable vehicle description.
func (m Mode) Label() string {
	if info, ok := modeTable[m]; ok {
		return info.label
	}
	return modeTable[ModeBus].label
}

// VehicleClass returns the display category for the vehicle icon.
func (m Mode) VehicleClass() string {
	if info, ok := modeTable[m]; ok {
		return info.class
	}
	return modeTable[ModeBus].class
}
