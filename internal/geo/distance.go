// Package geo holds the small amount of spherical geometry the map needs.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusMeters = 6_371_000

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts to an orb point (lng, lat order).
func (p LatLng) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Haversine returns the great-circle distance in meters between two lat/lon points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Nearest returns the index of the point in pts closest to p and its
// distance in meters. It returns -1 for an empty slice.
func Nearest(pts []LatLng, p LatLng) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, q := range pts {
		if d := Haversine(p.Lat, p.Lng, q.Lat, q.Lng); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// Bounds returns the bounding box of every point of every path.
// ok is false when there are no points.
func Bounds(paths ...[]LatLng) (b orb.Bound, ok bool) {
	var mp orb.MultiPoint
	for _, path := range paths {
		for _, p := range path {
			mp = append(mp, p.Point())
		}
	}
	if len(mp) == 0 {
		return orb.Bound{}, false
	}
	return mp.Bound(), true
}

// BoundingBoxRadius returns the approximate degree offset for a given radius in meters
// at the specified latitude. Returns (latDeg, lonDeg).
func BoundingBoxRadius(lat, radiusMeters float64) (latDeg, lonDeg float64) {
	latDeg = radiusMeters / earthRadiusMeters * (180 / math.Pi)
	lonDeg = latDeg / math.Cos(toRad(lat))
	return latDeg, lonDeg
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
