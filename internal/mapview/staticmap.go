package mapview

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"metrodiver/internal/geo"
)

// StaticMapBase is the static map image endpoint.
const StaticMapBase = "https://maps.googleapis.com/maps/api/staticmap"

// StaticMapURL builds an image URL showing lines and an optional marker.
// With no lines the map is centered on the marker, or on DefaultCenter.
func StaticMapURL(apiKey string, lines []LineGeometry, marker *geo.LatLng, size string) string {
	if size == "" {
		size = "640x640"
	}
	q := url.Values{}
	q.Set("size", size)
	q.Set("scale", "2")

	drawn := false
	for _, l := range lines {
		if len(l.Path) < 2 {
			continue
		}
		pts := make([]string, len(l.Path))
		for i, p := range l.Path {
			pts[i] = coord(p)
		}
		color := "0x" + strings.TrimPrefix(l.Color, "#") + "ff"
		q.Add("path", fmt.Sprintf("color:%s|weight:4|%s", color, strings.Join(pts, "|")))
		drawn = true
	}
	if marker != nil {
		q.Add("markers", "color:red|"+coord(*marker))
	}
	if !drawn {
		center := DefaultCenter
		if marker != nil {
			center = *marker
		}
		q.Set("center", coord(center))
		q.Set("zoom", strconv.Itoa(DefaultZoom))
	}
	if apiKey != "" {
		q.Set("key", apiKey)
	}
	return StaticMapBase + "?" + q.Encode()
}

func coord(p geo.LatLng) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}
