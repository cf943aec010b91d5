package transit

// Direction is the platform direction of travel at a station.
type Direction string

const (
	Northbound Direction = "N"
	Southbound Direction = "S"
)

// Directions lists both directions in display order.
var Directions = []Direction{Northbound, Southbound}

// DefaultHeadsign is shown when the schedule carries no trip headsign.
func (d Direction) DefaultHeadsign() string {
	if d == Southbound {
		return "Southbound"
	}
	return "Northbound"
}

// SplitStationID splits a directional platform id such as "101N" into its
// parent id and direction. ok is false for ids without a direction suffix.
func SplitStationID(id string) (parent string, dir Direction, ok bool) {
	if len(id) < 2 {
		return id, "", false
	}
	switch Direction(id[len(id)-1:]) {
	case Northbound:
		return id[:len(id)-1], Northbound, true
	case Southbound:
		return id[:len(id)-1], Southbound, true
	}
	return id, "", false
}

// PlatformID returns the id of the platform serving dir at stationID.
// Only ids following the "<parent><N|S>" convention are rewritten; for any
// other id the input is returned with derived=false and callers must pass
// the direction to the backend explicitly.
func PlatformID(stationID string, dir Direction) (id string, derived bool) {
	parent, _, ok := SplitStationID(stationID)
	if !ok {
		return stationID, false
	}
	return parent + string(dir), true
}
