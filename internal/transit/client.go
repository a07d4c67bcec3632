package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/RhythmD22/SmartShuttle/internal/metrics"
)

// APIError is a failed call against the transit collaborator.
// StatusCode is zero for transport-level failures (no HTTP response).
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transit API status %d", e.StatusCode)
	}
	return fmt.Sprintf("transit API unreachable: %v", e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsTransport reports whether the failure never produced an HTTP response.
func (e *APIError) IsTransport() bool { return e.StatusCode == 0 }

// Client is an HTTP client for the transit collaborator's v3 API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *Cache
	logger  *slog.Logger

	// Metrics records cache and upstream counters when set.
	Metrics *metrics.Collector
}

// NewClient creates a transit API client.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache:  NewCache(30 * time.Second),
		logger: logger,
	}
}

// Close releases the client's background resources.
func (c *Client) Close() {
	c.cache.Stop()
}

// NearbyRoutes fetches routes serving the area around a point.
// Responses are cached briefly unless forceRealtime is set.
// An empty Routes list is not an error.
func (c *Client) NearbyRoutes(ctx context.Context, lat, lon float64, maxDistanceMeters int, forceRealtime bool) (*Response, error) {
	cacheKey := fmt.Sprintf("nearby:%.5f:%.5f:%d", lat, lon, maxDistanceMeters)
	if !forceRealtime {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if c.Metrics != nil {
				c.Metrics.CacheHits.Inc()
			}
			return cached.(*Response), nil
		}
	}
	if c.Metrics != nil {
		c.Metrics.CacheMisses.Inc()
	}

	u := c.baseURL + "/nearby_routes?" + url.Values{
		"lat":                    {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":                    {strconv.FormatFloat(lon, 'f', 6, 64)},
		"max_distance":           {strconv.Itoa(maxDistanceMeters)},
		"should_update_realtime": {strconv.FormatBool(forceRealtime)},
	}.Encode()

	var result Response
	if err := c.doGet(ctx, u, &result); err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, &result)
	return &result, nil
}

// SearchStops queries the collaborator's own stop index by free text,
// enriching forward search with live-system stops.
func (c *Client) SearchStops(ctx context.Context, query string) ([]Stop, error) {
	cacheKey := "search:" + query
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]Stop), nil
	}

	u := c.baseURL + "/search_stops?" + url.Values{"query": {query}}.Encode()

	var result struct {
		Stops []Stop `json:"stops"`
	}
	if err := c.doGet(ctx, u, &result); err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, result.Stops)
	return result.Stops, nil
}

func (c *Client) doGet(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return &APIError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apiKey", c.apiKey)
	}

	if c.Metrics != nil {
		c.Metrics.UpstreamRequests.WithLabelValues("transit").Inc()
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if c.Metrics != nil {
			c.Metrics.UpstreamErrors.WithLabelValues("transit").Inc()
		}
		return &APIError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if c.Metrics != nil {
			c.Metrics.UpstreamErrors.WithLabelValues("transit").Inc()
		}
		return &APIError{StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
