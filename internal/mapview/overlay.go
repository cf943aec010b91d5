package mapview

import (
	"metrodiver/internal/geo"
)

// Handle identifies one overlay element. Handles are never reused.
type Handle int

// Marker is a station pin.
type Marker struct {
	StationID string
	Name      string
	Position  geo.LatLng
}

// LineGeometry is a route drawn on the map, path in stop order.
type LineGeometry struct {
	RouteID string
	Color   string // "#RRGGBB"
	Path    []geo.LatLng
}

// Overlay is the map widget's drawing surface. Every handle returned by an
// Add method is removed exactly once by the view that created it.
type Overlay interface {
	AddMarker(m Marker) Handle
	RemoveMarker(h Handle)
	AddPolyline(l LineGeometry) Handle
	RemovePolyline(h Handle)
}
