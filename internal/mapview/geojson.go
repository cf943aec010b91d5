package mapview

import (
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"metrodiver/internal/geo"
)

// GeoJSONOverlay is an in-memory Overlay that can be exported as a GeoJSON
// FeatureCollection, for front ends that render the map themselves.
type GeoJSONOverlay struct {
	mu      sync.Mutex
	next    Handle
	markers map[Handle]Marker
	lines   map[Handle]LineGeometry
}

func NewGeoJSONOverlay() *GeoJSONOverlay {
	return &GeoJSONOverlay{
		markers: map[Handle]Marker{},
		lines:   map[Handle]LineGeometry{},
	}
}

func (o *GeoJSONOverlay) AddMarker(m Marker) Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	o.markers[o.next] = m
	return o.next
}

func (o *GeoJSONOverlay) RemoveMarker(h Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.markers, h)
}

func (o *GeoJSONOverlay) AddPolyline(l LineGeometry) Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	o.lines[o.next] = l
	return o.next
}

func (o *GeoJSONOverlay) RemovePolyline(h Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.lines, h)
}

// Counts returns the number of live markers and polylines.
func (o *GeoJSONOverlay) Counts() (markers, polylines int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.markers), len(o.lines)
}

// FeatureCollection exports markers as Points and polylines as
// LineStrings, in creation order. The bbox covers the drawn routes.
func (o *GeoJSONOverlay) FeatureCollection() *geojson.FeatureCollection {
	o.mu.Lock()
	defer o.mu.Unlock()

	fc := geojson.NewFeatureCollection()
	for _, h := range sortedHandles(o.markers) {
		m := o.markers[h]
		f := geojson.NewFeature(m.Position.Point())
		f.ID = m.StationID
		f.Properties["kind"] = "station"
		f.Properties["name"] = m.Name
		fc.Append(f)
	}
	var paths [][]geo.LatLng
	for _, h := range sortedHandles(o.lines) {
		l := o.lines[h]
		paths = append(paths, l.Path)
		ls := make(orb.LineString, len(l.Path))
		for i, p := range l.Path {
			ls[i] = p.Point()
		}
		f := geojson.NewFeature(ls)
		f.ID = l.RouteID
		f.Properties["kind"] = "route"
		f.Properties["stroke"] = l.Color
		fc.Append(f)
	}
	if b, ok := geo.Bounds(paths...); ok {
		fc.BBox = geojson.NewBBox(b)
	}
	return fc
}

// MarshalJSON encodes the overlay as a FeatureCollection.
func (o *GeoJSONOverlay) MarshalJSON() ([]byte, error) {
	return o.FeatureCollection().MarshalJSON()
}

func sortedHandles[T any](m map[Handle]T) []Handle {
	hs := make([]Handle, 0, len(m))
	for h := range m {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return hs
}
