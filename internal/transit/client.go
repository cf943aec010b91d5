package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"
)

// Client is an HTTP client for the MetroDiver backend REST API.
// Station lists and the station-route map are cached; schedules and
// details are always fetched fresh.
type Client struct {
	baseURL string
	client  *req.Client
	cache   *Cache
	logger  *slog.Logger
}

// NewClient creates a backend API client. A zero cacheTTL disables caching.
func NewClient(baseURL string, timeout, cacheTTL time.Duration, logger *slog.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL: baseURL,
		client: req.C().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetUserAgent("MetroDiver/1.0").
			SetCommonHeader("Accept", "application/json"),
		cache:  NewCache(64, cacheTTL),
		logger: logger,
	}
}

// Stations fetches every station.
func (c *Client) Stations(ctx context.Context) ([]Station, error) {
	if cached, ok := c.cache.Get("stations"); ok {
		return cached.([]Station), nil
	}

	var result []Station
	if err := c.getJSON(ctx, "/api/stations", nil, &result); err != nil {
		return nil, fmt.Errorf("fetch stations: %w", err)
	}

	c.cache.Set("stations", result)
	return result, nil
}

// StationRoutes fetches the routes serving a station.
func (c *Client) StationRoutes(ctx context.Context, stationID string) (*StationRoutes, error) {
	path := fmt.Sprintf("/api/stations/%s/routes", url.PathEscape(stationID))

	var result StationRoutes
	if err := c.getJSON(ctx, path, nil, &result); err != nil {
		return nil, fmt.Errorf("routes for station %s: %w", stationID, err)
	}
	if result.StationID == "" {
		result.StationID = stationID
	}
	return &result, nil
}

// RouteStops fetches the ordered stop sequence of a route.
func (c *Client) RouteStops(ctx context.Context, routeID string) (*RouteStops, error) {
	path := fmt.Sprintf("/api/routes/%s/stops", url.PathEscape(routeID))

	var result RouteStops
	if err := c.getJSON(ctx, path, nil, &result); err != nil {
		return nil, fmt.Errorf("stops for route %s: %w", routeID, err)
	}
	if result.RouteID == "" {
		result.RouteID = routeID
	}
	return &result, nil
}

// StationRouteMap fetches the station id → route ids mapping.
func (c *Client) StationRouteMap(ctx context.Context) (StationRouteMap, error) {
	if cached, ok := c.cache.Get("station-route-map"); ok {
		return cached.(StationRouteMap), nil
	}

	var result StationRouteMap
	if err := c.getJSON(ctx, "/api/station-route-map", nil, &result); err != nil {
		return nil, fmt.Errorf("fetch station-route map: %w", err)
	}

	c.cache.Set("station-route-map", result)
	return result, nil
}

// Schedule fetches upcoming departures of a route at a station for one
// direction. When the platform id cannot be derived from the station id the
// direction is sent as a query parameter instead.
func (c *Client) Schedule(ctx context.Context, stationID, routeID string, dir Direction) (*Schedule, error) {
	platformID, derived := PlatformID(stationID, dir)
	path := fmt.Sprintf("/api/stations/%s/routes/%s/schedule", url.PathEscape(platformID), url.PathEscape(routeID))

	var query url.Values
	if !derived {
		query = url.Values{"direction": {string(dir)}}
	}

	var result Schedule
	if err := c.getJSON(ctx, path, query, &result); err != nil {
		return nil, fmt.Errorf("schedule for %s route %s: %w", platformID, routeID, err)
	}
	return &result, nil
}

// StationDetails fetches accessibility details for a station.
func (c *Client) StationDetails(ctx context.Context, stationID string) (*StationDetails, error) {
	path := fmt.Sprintf("/api/stations/%s/details", url.PathEscape(stationID))

	var result StationDetails
	if err := c.getJSON(ctx, path, nil, &result); err != nil {
		return nil, fmt.Errorf("details for station %s: %w", stationID, err)
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	r := c.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())
	for k := range query {
		r.SetQueryParam(k, query.Get(k))
	}

	full := c.baseURL + path
	resp, err := r.Get(path)
	if err != nil {
		return &NetworkError{URL: full, Err: err}
	}
	if !resp.IsSuccessState() {
		return &NetworkError{URL: full, Status: resp.StatusCode}
	}

	body := resp.Bytes()
	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{URL: full, Err: err}
	}
	c.logger.Debug("backend request", "path", path, "status", resp.StatusCode, "bytes", len(body))
	return nil
}

// Purge forgets cached static data; the next calls go to the backend.
func (c *Client) Purge() {
	c.cache.Purge()
	c.logger.Debug("static data cache purged")
}
