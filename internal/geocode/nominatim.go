// Package geocode resolves typed addresses with a Nominatim server.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"
	"golang.org/x/time/rate"
)

// NYCViewbox biases results to the five boroughs (lon1,lat1,lon2,lat2).
const NYCViewbox = "-74.26,40.49,-73.70,40.92"

// Result holds a geocoding result.
type Result struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// Client is a Nominatim geocoding client. Requests are limited to one per
// second as the public server's usage policy requires.
type Client struct {
	client  *req.Client
	limiter *rate.Limiter
	viewbox string
	logger  *slog.Logger
}

// New creates a Nominatim geocoding client for baseURL.
// userAgent is required by Nominatim's usage policy.
func New(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		client: req.C().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetUserAgent(userAgent),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		viewbox: NYCViewbox,
		logger:  logger,
	}
}

// SetRate overrides the request rate.
func (c *Client) SetRate(r rate.Limit, burst int) {
	c.limiter = rate.NewLimiter(r, burst)
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("nominatim rate limit: %w", err)
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("nominatim request: %w", err)
	}
	if !resp.IsSuccessState() {
		return fmt.Errorf("nominatim status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(resp.Bytes(), out); err != nil {
		return fmt.Errorf("nominatim decode: %w", err)
	}
	return nil
}

// Search geocodes a free-form query, biased toward New York City.
// Returns the top result, or nil if nothing found.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	err := c.get(ctx, "/search", map[string]string{
		"q":              query,
		"format":         "jsonv2",
		"limit":          "1",
		"countrycodes":   "us",
		"viewbox":        c.viewbox,
		"bounded":        "1",
		"addressdetails": "0",
	}, &results)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		c.logger.Debug("geocode miss", "query", query)
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon: %w", err)
	}

	return &Result{
		Lat:         lat,
		Lon:         lon,
		DisplayName: results[0].DisplayName,
	}, nil
}

// Reverse performs reverse geocoding: lat/lon → nearest address.
// Returns a short address string (house number + road), or the full
// display name if those fields are missing.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	var result struct {
		DisplayName string `json:"display_name"`
		Address     struct {
			HouseNumber string `json:"house_number"`
			Road        string `json:"road"`
		} `json:"address"`
	}
	err := c.get(ctx, "/reverse", map[string]string{
		"lat":            strconv.FormatFloat(lat, 'f', 6, 64),
		"lon":            strconv.FormatFloat(lon, 'f', 6, 64),
		"format":         "jsonv2",
		"zoom":           "18", // street-level
		"addressdetails": "1",
	}, &result)
	if err != nil {
		return "", err
	}

	if result.Address.Road != "" {
		if result.Address.HouseNumber != "" {
			return result.Address.HouseNumber + " " + result.Address.Road, nil
		}
		return result.Address.Road, nil
	}
	if result.DisplayName != "" {
		if i := strings.Index(result.DisplayName, ","); i > 0 {
			return result.DisplayName[:i], nil
		}
		return result.DisplayName, nil
	}
	return "", fmt.Errorf("no address found")
}
