package transit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

type fakeBackend struct {
	*httptest.Server
	stationHits atomic.Int32
	lastQuery   atomic.Value
	lastStation atomic.Value
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	r := chi.NewRouter()
	r.Get("/api/stations", func(w http.ResponseWriter, r *http.Request) {
		fb.stationHits.Add(1)
		writeJSON(w, []map[string]any{
			{"id": "101N", "name": "Van Cortlandt Park", "lat": 40.1, "lng": -74.1, "accessibility": true},
			{"id": "A32S", "name": "W 4 St", "lat": 40.73, "lng": -74.0, "accessibility": "partial"},
		})
	})
	r.Get("/api/stations/{id}/routes", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			http.Error(w, `{"error":"Station not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{
			"station_id": chi.URLParam(r, "id"),
			"routes":     []map[string]any{{"id": "A", "color": "0039A6", "text_color": "FFFFFF"}},
		})
	})
	r.Get("/api/routes/{id}/stops", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "BAD" {
			w.Write([]byte(`{"stops": [`))
			return
		}
		writeJSON(w, map[string]any{"stops": []map[string]any{
			{"lat": 40.1, "lng": -74.1}, {"lat": 40.2, "lng": -74.2},
		}})
	})
	r.Get("/api/station-route-map", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string][]string{"101N": {"1"}, "A32S": {"A", "C"}})
	})
	r.Get("/api/stations/{id}/routes/{routeID}/schedule", func(w http.ResponseWriter, r *http.Request) {
		fb.lastStation.Store(chi.URLParam(r, "id"))
		fb.lastQuery.Store(r.URL.RawQuery)
		writeJSON(w, map[string]any{"schedule": []map[string]any{
			{"departure_time": "08:00:00", "trip_headsign": "Inwood"},
		}})
	})
	r.Get("/api/stations/{id}/details", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"accessibility": map[string]any{
			"has_accessibility": true,
			"equipment": []map[string]any{
				{"equipment_no": "EL101", "equipment_type": "EL", "is_active": true, "serving": "Street to mezzanine"},
			},
		}})
	})
	fb.Server = httptest.NewServer(r)
	t.Cleanup(fb.Close)
	return fb
}

func newTestClient(url string, ttl time.Duration) *Client {
	return NewClient(url, 2*time.Second, ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Stations(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestClient(fb.URL, time.Minute)

	stations, err := c.Stations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, Station{ID: "101N", Name: "Van Cortlandt Park", Lat: 40.1, Lng: -74.1, Accessibility: "true"}, stations[0])
	assert.Equal(t, Flag("partial"), stations[1].Accessibility)

	_, err = c.Stations(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, fb.stationHits.Load(), "second call should be served from cache")
}

func TestClient_PurgeRefetches(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestClient(fb.URL, time.Minute)
	ctx := context.Background()

	_, err := c.Stations(ctx)
	require.NoError(t, err)
	c.Purge()
	_, err = c.Stations(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fb.stationHits.Load())
}

func TestClient_StationsNoCache(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestClient(fb.URL, 0)

	for i := 0; i < 2; i++ {
		_, err := c.Stations(context.Background())
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, fb.stationHits.Load())
}

func TestClient_StationRoutes(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestClient(fb.URL, 0)

	sr, err := c.StationRoutes(context.Background(), "101N")
	require.NoError(t, err)
	assert.Equal(t, "101N", sr.StationID)
	require.Len(t, sr.Routes, 1)
	assert.Equal(t, "0039A6", sr.Routes[0].Color)
}

func TestClient_NotFoundIsNetworkError(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestClient(fb.URL, 0)

	_, err := c.StationRoutes(context.Background(), "missing")
	require.Error(t, err)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr), "want NetworkError, got %T", err)
	assert.Equal(t, http.StatusNotFound, netErr.Status)
}

func TestClient_MalformedIsParseError(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestClient(fb.URL, 0)

	_, err := c.RouteStops(context.Background(), "BAD")
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr), "want ParseError, got %T", err)
}

func TestClient_UnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(url, 0)
	_, err := c.StationDetails(context.Background(), "101N")

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.Status)
}

func TestClient_RouteStops(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestClient(fb.URL, 0)

	rs, err := c.RouteStops(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", rs.RouteID)
	assert.Len(t, rs.Stops, 2)
}

func TestClient_StationRouteMap(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestClient(fb.URL, time.Minute)

	m, err := c.StationRouteMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, m["A32S"])
}

func TestClient_ScheduleDirection(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestClient(fb.URL, 0)
	ctx := context.Background()

	sched, err := c.Schedule(ctx, "101N", "1", Southbound)
	require.NoError(t, err)
	require.Len(t, sched.Entries, 1)
	assert.Equal(t, "Inwood", sched.Entries[0].TripHeadsign)
	assert.Equal(t, "101S", fb.lastStation.Load())
	assert.Equal(t, "", fb.lastQuery.Load())

	_, err = c.Schedule(ctx, "R14", "N", Northbound)
	require.NoError(t, err)
	assert.Equal(t, "R14", fb.lastStation.Load())
	assert.Equal(t, "direction=N", fb.lastQuery.Load())
}

func TestClient_StationDetails(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestClient(fb.URL, 0)

	d, err := c.StationDetails(context.Background(), "101N")
	require.NoError(t, err)
	assert.True(t, d.Accessibility.HasAccessibility)
	require.Len(t, d.Accessibility.Equipment, 1)
	assert.True(t, d.Accessibility.Equipment[0].IsElevator())
}
