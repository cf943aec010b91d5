package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"metrodiver/internal/detail"
	"metrodiver/internal/geo"
	"metrodiver/internal/geocode"
	"metrodiver/internal/mapview"
	"metrodiver/internal/transit"
)

// Geocoder resolves a free-form place to coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string) (*geocode.Result, error)
}

// Home is the transit map with the station detail dialog on top.
type Home struct {
	Map      *mapview.View
	Detail   *detail.View
	Geocoder Geocoder // optional
	T        Translator
	Notify   Notifier
	Logger   *slog.Logger

	loaded bool
}

// Enter loads the stations the first time the map is shown. A failure
// leaves an empty map and a notification; the user can come back to retry.
func (h *Home) Enter(ctx context.Context) {
	if h.loaded {
		return
	}
	if err := h.Map.Load(ctx); err != nil {
		h.Logger.Error("home: station load failed", "error", err)
		h.Notify.Notify(Error, h.T.T("stationsFailed"))
		return
	}
	h.loaded = true
}

// Reload refetches the station list past the static-data cache.
func (h *Home) Reload(ctx context.Context) {
	if err := h.Map.Reload(ctx); err != nil {
		h.Logger.Error("home: station reload failed", "error", err)
		h.Notify.Notify(Error, h.T.T("stationsFailed"))
		return
	}
	h.loaded = true
}

// Leave closes the detail dialog. The map keeps its overlay.
func (h *Home) Leave() {
	h.Detail.Close()
}

// Select draws the routes of stationID and opens its dialog. A failed
// selection is logged only; the previous map stays.
func (h *Home) Select(ctx context.Context, stationID string) {
	err := h.Map.Select(ctx, stationID)
	switch {
	case err == nil, errors.Is(err, mapview.ErrSuperseded):
	default:
		h.Logger.Warn("home: select failed", "station", stationID, "error", err)
	}
}

// CloseDetail hides the dialog and the route lines.
func (h *Home) CloseDetail() {
	h.Detail.Close()
	h.Map.Deselect()
}

// Locate geocodes place and selects the nearest station.
func (h *Home) Locate(ctx context.Context, place string) {
	if h.Geocoder == nil {
		return
	}
	res, err := h.Geocoder.Search(ctx, place)
	if err != nil || res == nil {
		if err != nil {
			h.Logger.Warn("home: geocode failed", "place", place, "error", err)
		}
		h.Notify.Notify(Warning, h.T.T("locateFailed", map[string]string{"place": place}))
		return
	}
	st, dist, ok := h.Map.Nearest(geo.LatLng{Lat: res.Lat, Lng: res.Lon})
	if !ok {
		h.Notify.Notify(Warning, h.T.T("locateFailed", map[string]string{"place": place}))
		return
	}
	h.Notify.Notify(Info, h.T.T("nearestStation", map[string]string{
		"name": st.Name,
		"dist": strconv.Itoa(int(dist)),
	}))
	h.Select(ctx, st.ID)
}

func (h *Home) Render(w io.Writer) {
	stations := h.Map.Stations()
	fmt.Fprintf(w, "== %s ==\n", h.T.T("transitMap"))
	fmt.Fprintf(w, "%d stations", len(stations))
	if sel := h.Map.Selected(); sel != "" {
		var ids []string
		for _, l := range h.Map.Lines() {
			ids = append(ids, fmt.Sprintf("%s(%s, %d pts)", l.RouteID, l.Color, len(l.Path)))
		}
		fmt.Fprintf(w, ", selected %s: %s", sel, strings.Join(ids, " "))
	}
	fmt.Fprintln(w)

	snap := h.Detail.Snapshot()
	if snap.Open {
		renderDetail(w, h.T, snap)
	}
}

func renderDetail(w io.Writer, t Translator, snap detail.Snapshot) {
	s := snap.Summary
	fmt.Fprintf(w, "\n-- %s (%s) --\n", s.Name, s.StationID)

	fmt.Fprintf(w, "%s:\n", t.T("schedule"))
	switch {
	case snap.ScheduleLoading:
		fmt.Fprintf(w, "  %s\n", t.T("loading"))
	case snap.ScheduleErr != nil:
		fmt.Fprintf(w, "  %s\n", t.T("scheduleUnavailable"))
	default:
		for _, rs := range snap.Schedules {
			fmt.Fprintf(w, "  %s %s\n", t.T("line"), rs.Route.ID)
			for _, ds := range rs.Directions {
				renderDirection(w, t, rs.Route, ds, snap.Countdowns)
			}
		}
	}

	fmt.Fprintf(w, "%s: ", t.T("accessibility"))
	switch {
	case snap.AccessibilityLoading:
		fmt.Fprintln(w, t.T("loading"))
	case snap.Accessibility == nil:
		fmt.Fprintln(w, "-")
	default:
		yes := t.T("no")
		if snap.Accessibility.HasAccessibility {
			yes = t.T("yes")
		}
		fmt.Fprintln(w, yes)
		if len(snap.Accessibility.Equipment) > 0 {
			fmt.Fprintf(w, "  %s:\n", t.T("accessibilityequi"))
			for _, e := range snap.Accessibility.Equipment {
				kind := t.T("otherEquipment")
				if e.IsElevator() {
					kind = t.T("elevator")
				}
				status := t.T("inactive")
				if e.IsActive {
					status = t.T("active")
				}
				fmt.Fprintf(w, "    %s %s: %s (%s)\n", kind, e.EquipmentNo, e.Serving, status)
			}
		}
	}
	fmt.Fprintf(w, "[%s]\n", t.T("close"))
}

func renderDirection(w io.Writer, t Translator, r transit.Route, ds detail.DirectionSchedule, cds map[string]detail.Progress) {
	if len(ds.Departures) == 0 {
		if ds.Err == nil {
			fmt.Fprintf(w, "    %s\n", t.T("noDepartures", map[string]string{"dir": ds.Direction.DefaultHeadsign()}))
		}
		return
	}
	fmt.Fprintf(w, "    %s: %s\n", ds.Headsign, strings.Join(ds.Shown(), "  "))
	p, ok := cds[detail.CountdownKey(r.ID, ds.Direction)]
	if !ok {
		return
	}
	if p.Departed {
		fmt.Fprintf(w, "    %s\n", t.T("departed"))
		return
	}
	fmt.Fprintf(w, "    %s %s\n", t.T("nextTrain", map[string]string{"min": strconv.Itoa(p.Minutes)}), progressBar(p.Percent))
}

func progressBar(pct float64) string {
	const width = 20
	n := int(pct / 100 * width)
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", width-n) + "]"
}
