package transit

import (
	"encoding/json"
	"strconv"
)

// Station is a subway stop as returned by /api/stations.
type Station struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Accessibility Flag    `json:"accessibility,omitempty"`
}

// Flag holds a value the backend sends either as free text or as a boolean.
type Flag string

func (f *Flag) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = Flag(s)
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*f = Flag(strconv.FormatBool(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = Flag(n.String())
	return nil
}

// Route is a subway line. Colors are hex without the leading "#".
type Route struct {
	ID        string `json:"id"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
	Color     string `json:"color"`
	TextColor string `json:"text_color"`
}

// StationRoutes is the response of /api/stations/{id}/routes.
type StationRoutes struct {
	StationID string  `json:"station_id"`
	Name      string  `json:"name"`
	Routes    []Route `json:"routes"`
}

// Stop is one point of a route's stop sequence.
type Stop struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// RouteStops is the response of /api/routes/{id}/stops, stops in travel order.
type RouteStops struct {
	RouteID string `json:"route_id"`
	Stops   []Stop `json:"stops"`
}

// StationRouteMap maps a station id to the ids of the routes serving it.
type StationRouteMap map[string][]string

// ScheduleEntry is one departure. Times are same-day "HH:MM:SS".
type ScheduleEntry struct {
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	TripHeadsign  string `json:"trip_headsign"`
	DirectionID   string `json:"direction_id,omitempty"`
}

// Schedule is the response of /api/stations/{id}/routes/{routeId}/schedule.
type Schedule struct {
	StationID string          `json:"station_id"`
	RouteID   string          `json:"route_id"`
	Entries   []ScheduleEntry `json:"schedule"`
}

// Equipment is an elevator or escalator at a station.
type Equipment struct {
	EquipmentNo   string `json:"equipment_no"`
	EquipmentType string `json:"equipment_type"`
	IsActive      bool   `json:"is_active"`
	Serving       string `json:"serving"`
}

// IsElevator reports whether the equipment is an elevator ("EL").
func (e Equipment) IsElevator() bool {
	return e.EquipmentType == "EL"
}

// Accessibility is the accessibility block of a station details response.
type Accessibility struct {
	HasAccessibility bool        `json:"has_accessibility"`
	Equipment        []Equipment `json:"equipment"`
}

// StationDetails is the response of /api/stations/{id}/details.
type StationDetails struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Lat           float64       `json:"lat"`
	Lng           float64       `json:"lng"`
	Accessibility Accessibility `json:"accessibility"`
}
