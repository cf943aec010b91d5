package mapview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrodiver/internal/detail"
	"metrodiver/internal/geo"
	"metrodiver/internal/transit"
)

// recordingOverlay fails the test when a handle is removed twice or was
// never issued.
type recordingOverlay struct {
	t       *testing.T
	mu      sync.Mutex
	next    Handle
	markers map[Handle]Marker
	lines   map[Handle]LineGeometry
	removed map[Handle]bool
}

func newRecordingOverlay(t *testing.T) *recordingOverlay {
	return &recordingOverlay{
		t:       t,
		markers: map[Handle]Marker{},
		lines:   map[Handle]LineGeometry{},
		removed: map[Handle]bool{},
	}
}

func (o *recordingOverlay) AddMarker(m Marker) Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	o.markers[o.next] = m
	return o.next
}

func (o *recordingOverlay) RemoveMarker(h Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.markers[h]; !ok || o.removed[h] {
		o.t.Errorf("marker handle %d removed twice or never issued", h)
	}
	o.removed[h] = true
	delete(o.markers, h)
}

func (o *recordingOverlay) AddPolyline(l LineGeometry) Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	o.lines[o.next] = l
	return o.next
}

func (o *recordingOverlay) RemovePolyline(h Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.lines[h]; !ok || o.removed[h] {
		o.t.Errorf("polyline handle %d removed twice or never issued", h)
	}
	o.removed[h] = true
	delete(o.lines, h)
}

func (o *recordingOverlay) liveLines() []LineGeometry {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []LineGeometry
	for _, h := range sortedHandles(o.lines) {
		out = append(out, o.lines[h])
	}
	return out
}

type fakeAPI struct {
	mu         sync.Mutex
	stations   []transit.Station
	routes     map[string][]transit.Route
	stops      map[string][]transit.Stop
	stopsErr   map[string]error
	routeMap   transit.StationRouteMap
	routeGates map[string]chan struct{}
	purges     int
}

func (f *fakeAPI) Purge() {
	f.mu.Lock()
	f.purges++
	f.mu.Unlock()
}

func (f *fakeAPI) Stations(context.Context) ([]transit.Station, error) {
	return f.stations, nil
}

func (f *fakeAPI) StationRoutes(_ context.Context, id string) (*transit.StationRoutes, error) {
	f.mu.Lock()
	gate := f.routeGates[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	rs, ok := f.routes[id]
	if !ok {
		return nil, &transit.NetworkError{URL: "/api/stations/" + id + "/routes", Status: 404}
	}
	return &transit.StationRoutes{StationID: id, Routes: rs}, nil
}

func (f *fakeAPI) RouteStops(_ context.Context, id string) (*transit.RouteStops, error) {
	if err := f.stopsErr[id]; err != nil {
		return nil, err
	}
	return &transit.RouteStops{RouteID: id, Stops: f.stops[id]}, nil
}

func (f *fakeAPI) StationRouteMap(context.Context) (transit.StationRouteMap, error) {
	return f.routeMap, nil
}

type openRecorder struct {
	mu     sync.Mutex
	opened []detail.Summary
}

func (r *openRecorder) Open(s detail.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, s)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func exampleAPI() *fakeAPI {
	return &fakeAPI{
		stations: []transit.Station{
			{ID: "101N", Name: "Van Cortlandt Park", Lat: 40.1, Lng: -74.1},
			{ID: "A32S", Name: "W 4 St", Lat: 40.732338, Lng: -74.000495},
		},
		routes: map[string][]transit.Route{
			"101N": {{ID: "A", Color: "0039A6"}},
			"A32S": {{ID: "A", Color: "0039A6"}, {ID: "C", Color: "0039A6"}, {ID: "E", Color: ""}, {ID: "A", Color: "0039A6"}},
		},
		stops: map[string][]transit.Stop{
			"A": {{Lat: 40.1, Lng: -74.1}, {Lat: 40.2, Lng: -74.2}},
			"C": {{Lat: 40.3, Lng: -74.3}, {Lat: 40.4, Lng: -74.4}, {Lat: 40.5, Lng: -74.5}},
			"E": {{Lat: 40.6, Lng: -74.6}},
		},
		stopsErr:   map[string]error{},
		routeGates: map[string]chan struct{}{},
	}
}

func TestLoad_MarkersMatchStations(t *testing.T) {
	api := exampleAPI()
	ov := newRecordingOverlay(t)
	v := New(api, ov, nil, Options{}, testLogger())

	require.NoError(t, v.Load(context.Background()))
	require.Len(t, ov.markers, len(api.stations))
	for i, s := range api.stations {
		m := ov.markers[Handle(i+1)]
		assert.Equal(t, s.ID, m.StationID)
		assert.Equal(t, s.Lat, m.Position.Lat)
		assert.Equal(t, s.Lng, m.Position.Lng)
	}

	// Reloading replaces, not duplicates.
	require.NoError(t, v.Load(context.Background()))
	assert.Len(t, ov.markers, len(api.stations))
}

func TestReload_PurgesBeforeLoading(t *testing.T) {
	api := exampleAPI()
	ov := newRecordingOverlay(t)
	v := New(api, ov, nil, Options{}, testLogger())
	require.NoError(t, v.Load(context.Background()))
	assert.Zero(t, api.purges)

	api.stations = api.stations[:1]
	require.NoError(t, v.Reload(context.Background()))
	assert.Equal(t, 1, api.purges)
	assert.Len(t, ov.markers, 1)
	assert.Len(t, v.Stations(), 1)
}

func TestSelect_ExampleStation(t *testing.T) {
	api := exampleAPI()
	ov := newRecordingOverlay(t)
	opener := &openRecorder{}
	v := New(api, ov, opener, Options{}, testLogger())
	ctx := context.Background()
	require.NoError(t, v.Load(ctx))

	require.NoError(t, v.Select(ctx, "101N"))

	lines := ov.liveLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "#0039A6", lines[0].Color)
	assert.Equal(t, []geo.LatLng{{Lat: 40.1, Lng: -74.1}, {Lat: 40.2, Lng: -74.2}}, lines[0].Path)

	require.Len(t, opener.opened, 1)
	assert.Equal(t, "101N", opener.opened[0].StationID)
	assert.Equal(t, "Van Cortlandt Park", opener.opened[0].Name)
	assert.Equal(t, "101N", v.Selected())
}

func TestSelect_HandleCountMatchesDistinctRoutes(t *testing.T) {
	api := exampleAPI()
	ov := newRecordingOverlay(t)
	v := New(api, ov, nil, Options{}, testLogger())
	ctx := context.Background()

	require.NoError(t, v.Select(ctx, "A32S"))
	assert.Len(t, ov.lines, 3, "A, C, E with the duplicate A dropped")

	require.NoError(t, v.Select(ctx, "A32S"))
	assert.Len(t, ov.lines, 3, "repeating a selection must not leak handles")

	require.NoError(t, v.Select(ctx, "101N"))
	assert.Len(t, ov.lines, 1)

	colors := map[string]string{}
	for _, l := range v.Lines() {
		colors[l.RouteID] = l.Color
	}
	assert.Equal(t, map[string]string{"A": "#0039A6"}, colors)
}

func TestSelect_OrderedByRouteNotArrival(t *testing.T) {
	api := exampleAPI()
	v := New(api, newRecordingOverlay(t), nil, Options{}, testLogger())
	require.NoError(t, v.Select(context.Background(), "A32S"))

	var ids []string
	for _, l := range v.Lines() {
		ids = append(ids, l.RouteID)
	}
	assert.Equal(t, []string{"A", "C", "E"}, ids)
	assert.Equal(t, fallbackColor, v.Lines()[2].Color)
}

func TestSelect_StaleSelectionDiscarded(t *testing.T) {
	api := exampleAPI()
	gate := make(chan struct{})
	api.routeGates["A32S"] = gate
	ov := newRecordingOverlay(t)
	opener := &openRecorder{}
	v := New(api, ov, opener, Options{}, testLogger())
	ctx := context.Background()

	errA := make(chan error, 1)
	go func() { errA <- v.Select(ctx, "A32S") }()

	// Wait until A has taken its generation.
	require.Eventually(t, func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.gen == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, v.Select(ctx, "101N"))
	close(gate)
	assert.ErrorIs(t, <-errA, ErrSuperseded)

	lines := ov.liveLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "A", lines[0].RouteID)
	assert.Len(t, lines[0].Path, 2)
	require.Len(t, opener.opened, 1, "the stale selection never opens a dialog")
	assert.Equal(t, "101N", opener.opened[0].StationID)
	assert.Equal(t, "101N", v.Selected())
}

func TestSelect_FailureKeepsPreviousOverlay(t *testing.T) {
	api := exampleAPI()
	ov := newRecordingOverlay(t)
	v := New(api, ov, nil, Options{}, testLogger())
	ctx := context.Background()
	require.NoError(t, v.Select(ctx, "101N"))

	err := v.Select(ctx, "nowhere")
	var netErr *transit.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Len(t, ov.lines, 1)
	assert.Equal(t, "101N", v.Selected())

	api.stopsErr["C"] = errors.New("stops down")
	require.Error(t, v.Select(ctx, "A32S"))
	assert.Len(t, ov.lines, 1)
}

func TestSelect_GeometryFallback(t *testing.T) {
	api := exampleAPI()
	api.stopsErr["C"] = errors.New("stops down")
	api.routeMap = transit.StationRouteMap{"101N": {"1", "C"}, "A32S": {"A", "C", "E"}}
	ov := newRecordingOverlay(t)
	v := New(api, ov, nil, Options{GeometryFallback: true}, testLogger())
	ctx := context.Background()
	require.NoError(t, v.Load(ctx))

	require.NoError(t, v.Select(ctx, "A32S"))
	var c LineGeometry
	for _, l := range v.Lines() {
		if l.RouteID == "C" {
			c = l
		}
	}
	assert.Equal(t, []geo.LatLng{{Lat: 40.1, Lng: -74.1}, {Lat: 40.732338, Lng: -74.000495}}, c.Path)
}

func TestClose_ReleasesEverything(t *testing.T) {
	api := exampleAPI()
	ov := newRecordingOverlay(t)
	v := New(api, ov, nil, Options{}, testLogger())
	ctx := context.Background()
	require.NoError(t, v.Load(ctx))
	require.NoError(t, v.Select(ctx, "A32S"))

	v.Close()
	assert.Empty(t, ov.markers)
	assert.Empty(t, ov.lines)
	v.Close()

	assert.ErrorIs(t, v.Select(ctx, "101N"), ErrClosed)
	assert.Empty(t, ov.lines)
}

func TestDeselect(t *testing.T) {
	ov := newRecordingOverlay(t)
	v := New(exampleAPI(), ov, nil, Options{}, testLogger())
	require.NoError(t, v.Select(context.Background(), "A32S"))
	v.Deselect()
	assert.Empty(t, ov.lines)
	assert.Empty(t, v.Selected())
}

func TestNearest(t *testing.T) {
	v := New(exampleAPI(), newRecordingOverlay(t), nil, Options{}, testLogger())
	_, _, ok := v.Nearest(geo.LatLng{Lat: 40.73, Lng: -74.0})
	assert.False(t, ok, "no stations before Load")

	require.NoError(t, v.Load(context.Background()))
	s, d, ok := v.Nearest(geo.LatLng{Lat: 40.73, Lng: -74.0})
	require.True(t, ok)
	assert.Equal(t, "A32S", s.ID)
	assert.Less(t, d, 500.0)
}

func TestGeoJSONOverlay(t *testing.T) {
	ov := NewGeoJSONOverlay()
	v := New(exampleAPI(), ov, nil, Options{}, testLogger())
	ctx := context.Background()
	require.NoError(t, v.Load(ctx))
	require.NoError(t, v.Select(ctx, "101N"))

	m, p := ov.Counts()
	assert.Equal(t, 2, m)
	assert.Equal(t, 1, p)

	data, err := json.Marshal(ov)
	require.NoError(t, err)

	var doc struct {
		Type     string    `json:"type"`
		BBox     []float64 `json:"bbox"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string          `json:"type"`
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 3)
	assert.Equal(t, "Point", doc.Features[0].Geometry.Type)
	assert.JSONEq(t, `[-74.1,40.1]`, string(doc.Features[0].Geometry.Coordinates))
	assert.Equal(t, "LineString", doc.Features[2].Geometry.Type)
	assert.Equal(t, "#0039A6", doc.Features[2].Properties["stroke"])
	assert.Equal(t, []float64{-74.2, 40.1, -74.1, 40.2}, doc.BBox)

	v.Close()
	m, p = ov.Counts()
	assert.Zero(t, m)
	assert.Zero(t, p)
}

func TestStaticMapURL(t *testing.T) {
	u := StaticMapURL("KEY", []LineGeometry{{RouteID: "A", Color: "#0039A6", Path: []geo.LatLng{{Lat: 40.1, Lng: -74.1}, {Lat: 40.2, Lng: -74.2}}}}, nil, "")
	assert.Contains(t, u, StaticMapBase+"?")
	assert.Contains(t, u, "key=KEY")
	assert.Contains(t, u, "path=color%3A0x0039A6ff%7Cweight%3A4%7C40.100000%2C-74.100000%7C40.200000%2C-74.200000")
	assert.NotContains(t, u, "center=")

	u = StaticMapURL("", nil, nil, "320x240")
	assert.Contains(t, u, "center=40.714000%2C-74.001000")
	assert.Contains(t, u, "zoom=14")
	assert.Contains(t, u, "size=320x240")
	assert.NotContains(t, u, "key=")
}
