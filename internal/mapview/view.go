// Package mapview owns the transit map: one marker per station and, for
// the selected station, one polyline per route serving it.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"metrodiver/internal/detail"
	"metrodiver/internal/geo"
	"metrodiver/internal/transit"
)

// DefaultCenter is where the map opens (lower Manhattan).
var DefaultCenter = geo.LatLng{Lat: 40.714, Lng: -74.001}

// DefaultZoom is the map's initial zoom level.
const DefaultZoom = 14

// fallbackColor is used for routes the backend gives no color.
const fallbackColor = "#808183"

var (
	// ErrSuperseded is returned by Select when a newer selection started
	// before this one finished. The overlay was left untouched.
	ErrSuperseded = errors.New("selection superseded")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("map view closed")
)

// Backend is the part of the API client the map needs.
type Backend interface {
	Stations(ctx context.Context) ([]transit.Station, error)
	StationRoutes(ctx context.Context, stationID string) (*transit.StationRoutes, error)
	RouteStops(ctx context.Context, routeID string) (*transit.RouteStops, error)
	StationRouteMap(ctx context.Context) (transit.StationRouteMap, error)
}

// DetailOpener shows the detail dialog of a selected station.
type DetailOpener interface {
	Open(s detail.Summary)
}

// Options tune a View.
type Options struct {
	// GeometryFallback rebuilds a route's path from the station-route map
	// when its stops cannot be fetched. Stations then appear in station
	// list order, not stop order.
	GeometryFallback bool
}

// View is the map. All overlay mutation happens under mu.
type View struct {
	api     Backend
	overlay Overlay
	opener  DetailOpener
	opts    Options
	logger  *slog.Logger

	mu       sync.Mutex
	closed   bool
	gen      uint64
	cancel   context.CancelFunc
	stations []transit.Station
	markers  []Handle
	lines    []LineGeometry
	lineIDs  []Handle
	selected string
}

// New creates a map view drawing on overlay. opener may be nil.
func New(api Backend, overlay Overlay, opener DetailOpener, opts Options, logger *slog.Logger) *View {
	return &View{api: api, overlay: overlay, opener: opener, opts: opts, logger: logger}
}

// Load fetches the station list and draws one marker per station with the
// coordinates exactly as fetched. Reloading replaces the markers.
func (v *View) Load(ctx context.Context) error {
	stations, err := v.api.Stations(ctx)
	if err != nil {
		v.logger.Error("failed to load stations", "error", err)
		return fmt.Errorf("load stations: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	for _, h := range v.markers {
		v.overlay.RemoveMarker(h)
	}
	v.markers = make([]Handle, 0, len(stations))
	for _, s := range stations {
		v.markers = append(v.markers, v.overlay.AddMarker(Marker{
			StationID: s.ID,
			Name:      s.Name,
			Position:  geo.LatLng{Lat: s.Lat, Lng: s.Lng},
		}))
	}
	v.stations = stations
	v.logger.Info("stations loaded", "count", len(stations))
	return nil
}

// Reload refetches the station list, first dropping the backend's cached
// static data when it keeps any.
func (v *View) Reload(ctx context.Context) error {
	if p, ok := v.api.(interface{ Purge() }); ok {
		p.Purge()
	}
	return v.Load(ctx)
}

// Select draws the routes serving stationID and opens its detail dialog.
// If another Select starts before this one finishes, this one returns
// ErrSuperseded without touching the overlay. On any other failure the
// previous polylines stay and the error is returned.
func (v *View) Select(ctx context.Context, stationID string) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.gen++
	gen := v.gen
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	stations := v.stations
	v.mu.Unlock()

	lines, sr, err := v.fetchLines(ctx, stationID, stations)
	if err != nil {
		if v.current(gen) {
			v.logger.Error("station selection failed", "station", stationID, "error", err)
			return fmt.Errorf("select %s: %w", stationID, err)
		}
		return ErrSuperseded
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	if gen != v.gen {
		v.logger.Debug("dropping superseded selection", "station", stationID)
		return ErrSuperseded
	}

	v.clearLines()
	for _, l := range lines {
		v.lineIDs = append(v.lineIDs, v.overlay.AddPolyline(l))
	}
	v.lines = lines
	v.selected = stationID

	if v.opener != nil {
		// Opened under mu so detail dialogs open in selection order.
		v.opener.Open(v.summary(stationID, sr))
	}
	v.logger.Info("station selected", "station", stationID, "routes", len(lines))
	return nil
}

func (v *View) current(gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return gen == v.gen && !v.closed
}

// fetchLines resolves the routes of stationID and their geometry. Stops
// are fetched in parallel and aggregated by route, not arrival order.
func (v *View) fetchLines(ctx context.Context, stationID string, stations []transit.Station) ([]LineGeometry, *transit.StationRoutes, error) {
	sr, err := v.api.StationRoutes(ctx, stationID)
	if err != nil {
		return nil, nil, err
	}

	routes := distinctRoutes(sr.Routes)
	sr.Routes = routes
	lines := make([]LineGeometry, len(routes))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range routes {
		g.Go(func() error {
			lines[i] = LineGeometry{RouteID: r.ID, Color: routeColor(r.Color)}
			stops, err := v.api.RouteStops(gctx, r.ID)
			if err == nil {
				lines[i].Path = stopPath(stops.Stops)
				return nil
			}
			if !v.opts.GeometryFallback {
				return err
			}
			v.logger.Warn("route stops failed, using station map", "route", r.ID, "error", err)
			path, ferr := v.fallbackPath(gctx, r.ID, stations)
			if ferr != nil {
				return errors.Join(err, ferr)
			}
			lines[i].Path = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lines, sr, nil
}

func (v *View) fallbackPath(ctx context.Context, routeID string, stations []transit.Station) ([]geo.LatLng, error) {
	m, err := v.api.StationRouteMap(ctx)
	if err != nil {
		return nil, err
	}
	var path []geo.LatLng
	for _, s := range stations {
		if slices.Contains(m[s.ID], routeID) {
			path = append(path, geo.LatLng{Lat: s.Lat, Lng: s.Lng})
		}
	}
	return path, nil
}

func (v *View) summary(stationID string, sr *transit.StationRoutes) detail.Summary {
	s := detail.Summary{StationID: stationID, Name: sr.Name, Routes: slices.Clone(sr.Routes)}
	for _, st := range v.stations {
		if st.ID == stationID {
			s.Lat, s.Lng = st.Lat, st.Lng
			if s.Name == "" {
				s.Name = st.Name
			}
			break
		}
	}
	return s
}

// clearLines removes every polyline handle. Must hold mu.
func (v *View) clearLines() {
	for _, h := range v.lineIDs {
		v.overlay.RemovePolyline(h)
	}
	v.lineIDs = nil
	v.lines = nil
}

// Deselect removes the route polylines and cancels an in-flight selection.
func (v *View) Deselect() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.clearLines()
	v.selected = ""
}

// Close releases every marker and polyline and cancels in-flight
// selections. The view cannot be used afterwards.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.gen++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.clearLines()
	for _, h := range v.markers {
		v.overlay.RemoveMarker(h)
	}
	v.markers = nil
	v.logger.Debug("map view closed")
}

// Nearest returns the loaded station closest to p and its distance in
// meters. ok is false before Load.
func (v *View) Nearest(p geo.LatLng) (transit.Station, float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	pts := make([]geo.LatLng, len(v.stations))
	for i, s := range v.stations {
		pts[i] = geo.LatLng{Lat: s.Lat, Lng: s.Lng}
	}
	i, d := geo.Nearest(pts, p)
	if i < 0 {
		return transit.Station{}, 0, false
	}
	return v.stations[i], d, true
}

// Station looks up a loaded station by id.
func (v *View) Station(id string) (transit.Station, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range v.stations {
		if s.ID == id {
			return s, true
		}
	}
	return transit.Station{}, false
}

// Stations returns the loaded stations.
func (v *View) Stations() []transit.Station {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.stations)
}

// Lines returns the polylines currently drawn.
func (v *View) Lines() []LineGeometry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.lines)
}

// Selected returns the station whose routes are drawn, or "".
func (v *View) Selected() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

func distinctRoutes(routes []transit.Route) []transit.Route {
	seen := make(map[string]bool, len(routes))
	out := make([]transit.Route, 0, len(routes))
	for _, r := range routes {
		if r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

func routeColor(c string) string {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if c == "" {
		return fallbackColor
	}
	return "#" + c
}

func stopPath(stops []transit.Stop) []geo.LatLng {
	path := make([]geo.LatLng, len(stops))
	for i, s := range stops {
		path[i] = geo.LatLng{Lat: s.Lat, Lng: s.Lng}
	}
	return path
}
