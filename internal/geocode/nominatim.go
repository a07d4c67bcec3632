package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/RhythmD22/SmartShuttle/internal/geo"
)

// MinQueryLen is the shortest query that triggers a network lookup.
// Callers must not invoke ForwardSearch below this length.
const MinQueryLen = 3

// CurrentLocationFallback is the display name used when reverse lookup fails.
const CurrentLocationFallback = "Current Location"

// SourceCategory classifies where a forward-search candidate came from.
type SourceCategory string

const (
	CategoryHighway     SourceCategory = "highway"
	CategoryAmenity     SourceCategory = "amenity"
	CategoryTransitStop SourceCategory = "transit_stop"
	CategoryOther       SourceCategory = "other"
)

// Result is one forward-search candidate.
type Result struct {
	Latitude    float64        `json:"lat"`
	Longitude   float64        `json:"lon"`
	DisplayName string         `json:"display_name"`
	Category    SourceCategory `json:"category"`
	RawAddress  string         `json:"raw_address,omitempty"`
}

// IsTransitStop reports whether the candidate was classified as a bus/transit stop.
func (r Result) IsTransitStop() bool {
	return r.Category == CategoryTransitStop
}

// Client is a Nominatim geocoding client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// New creates a Nominatim geocoding client.
// userAgent is required by Nominatim's usage policy.
func New(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		userAgent:  userAgent,
	}
}

// ForwardSearch geocodes a free-form query. Two lookups are issued
// concurrently, one biased toward bus stops and one general; a failed
// sub-request contributes zero results rather than aborting the other.
// Results are classified and ordered with transit stops first.
func (c *Client) ForwardSearch(ctx context.Context, query, countryFilter string) ([]Result, error) {
	if countryFilter == "" {
		countryFilter = "US"
	}

	type lookup struct {
		results []rawResult
		err     error
	}
	biased := make(chan lookup, 1)
	general := make(chan lookup, 1)

	go func() {
		rs, err := c.search(ctx, query+" bus stop", countryFilter)
		biased <- lookup{rs, err}
	}()
	go func() {
		rs, err := c.search(ctx, query, countryFilter)
		general <- lookup{rs, err}
	}()

	b, g := <-biased, <-general
	if b.err != nil && g.err != nil {
		return nil, fmt.Errorf("forward search %q: %w", query, g.err)
	}

	var merged []Result
	seen := make(map[string]bool)
	for _, raw := range append(b.results, g.results...) {
		r, ok := raw.toResult()
		if !ok {
			continue
		}
		dedupKey := fmt.Sprintf("%.6f,%.6f", r.Latitude, r.Longitude)
		if seen[dedupKey] {
			continue
		}
		seen[dedupKey] = true
		merged = append(merged, r)
	}

	return OrderTransitFirst(merged), nil
}

// ReverseLookup returns a shortened display name for the point, built from
// the first two comma-separated segments of the full address. Any failure
// (network, status, malformed body, empty address) yields the
// "Current Location" fallback with a nil error.
func (c *Client) ReverseLookup(ctx context.Context, lat, lon float64) string {
	u := c.baseURL + "/reverse?" + url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', 6, 64)},
		"format": {"json"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return CurrentLocationFallback
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CurrentLocationFallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CurrentLocationFallback
	}

	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return CurrentLocationFallback
	}
	return ShortenDisplayName(body.DisplayName)
}

// search issues one Nominatim /search request.
func (c *Client) search(ctx context.Context, query, countryFilter string) ([]rawResult, error) {
	u := c.baseURL + "/search?" + url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"10"},
		"countrycodes":   {strings.ToLower(countryFilter)},
		"addressdetails": {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var results []rawResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("nominatim decode: %w", err)
	}
	return results, nil
}

// rawResult is the Nominatim wire shape; lat/lon arrive as strings.
type rawResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Class       string `json:"class"`
	Category    string `json:"category"` // newer Nominatim versions use "category" for "class"
	Type        string `json:"type"`
	Address     struct {
		State   string `json:"state"`
		County  string `json:"county"`
		Country string `json:"country"`
	} `json:"address"`
}

// toResult parses and validates a raw candidate. Candidates with missing or
// out-of-range coordinates are dropped.
func (r rawResult) toResult() (Result, bool) {
	lat, err1 := strconv.ParseFloat(r.Lat, 64)
	lon, err2 := strconv.ParseFloat(r.Lon, 64)
	if err1 != nil || err2 != nil || !geo.ValidCoords(lat, lon) || r.DisplayName == "" {
		return Result{}, false
	}

	rawAddr := r.Address.State
	if rawAddr == "" {
		rawAddr = r.Address.County
	}
	if rawAddr == "" {
		rawAddr = r.Address.Country
	}

	return Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: r.DisplayName,
		Category:    Classify(r.className(), r.Type, r.DisplayName),
		RawAddress:  rawAddr,
	}, true
}

func (r rawResult) className() string {
	if r.Class != "" {
		return r.Class
	}
	return r.Category
}

// Classify applies the fixed bus-stop rule table: class/category is
// highway/amenity with type bus_stop, or the display name contains
// "bus stop", or it contains "stop" while the class is highway/amenity.
func Classify(class, typ, displayName string) SourceCategory {
	lower := strings.ToLower(displayName)
	classy := class == "highway" || class == "amenity"

	if (classy && typ == "bus_stop") ||
		strings.Contains(lower, "bus stop") ||
		(strings.Contains(lower, "stop") && classy) {
		return CategoryTransitStop
	}
	switch class {
	case "highway":
		return CategoryHighway
	case "amenity":
		return CategoryAmenity
	default:
		return CategoryOther
	}
}

// OrderTransitFirst places transit-stop candidates before everything else,
// keeping each group's original relative order.
func OrderTransitFirst(results []Result) []Result {
	if len(results) == 0 {
		return results
	}
	ordered := make([]Result, 0, len(results))
	for _, r := range results {
		if r.IsTransitStop() {
			ordered = append(ordered, r)
		}
	}
	for _, r := range results {
		if !r.IsTransitStop() {
			ordered = append(ordered, r)
		}
	}
	return ordered
}

// ShortenDisplayName reduces a full Nominatim address to its first two
// comma-separated segments: "Forbes Ave, Oakland, Pittsburgh, PA, USA"
// becomes "Forbes Ave, Oakland". Fewer than two segments yields the single
// trimmed segment; an empty segment yields the "Current Location" fallback.
func ShortenDisplayName(full string) string {
	parts := strings.Split(full, ",")
	if len(parts) >= 2 {
		first, second := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if first != "" && second != "" {
			return first + ", " + second
		}
	}
	single := strings.TrimSpace(parts[0])
	if single == "" {
		return CurrentLocationFallback
	}
	return single
}
