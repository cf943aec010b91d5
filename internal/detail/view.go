// Package detail is the station detail dialog: the schedule of every route
// serving the selected station in both directions, the station's
// accessibility equipment, and a countdown to each direction's next train.
package detail

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"metrodiver/internal/transit"
)

// MaxShown is how many departures a direction lists.
const MaxShown = 5

// Backend is the part of the API client the detail view needs.
type Backend interface {
	Schedule(ctx context.Context, stationID, routeID string, dir transit.Direction) (*transit.Schedule, error)
	StationDetails(ctx context.Context, stationID string) (*transit.StationDetails, error)
}

// Summary identifies the station being shown and the routes serving it.
type Summary struct {
	StationID string
	Name      string
	Lat, Lng  float64
	Routes    []transit.Route
}

// DirectionSchedule is the departures of one route in one direction.
type DirectionSchedule struct {
	Direction  transit.Direction
	Headsign   string
	Departures []string
	Err        error
}

// Shown returns the departures to list.
func (d DirectionSchedule) Shown() []string {
	if len(d.Departures) > MaxShown {
		return d.Departures[:MaxShown]
	}
	return d.Departures
}

// RouteSchedule holds both directions of a route, northbound first.
type RouteSchedule struct {
	Route      transit.Route
	Directions []DirectionSchedule
}

// Snapshot is an immutable copy of the dialog for rendering.
type Snapshot struct {
	Open    bool
	Summary Summary

	ScheduleLoading bool
	Schedules       []RouteSchedule
	ScheduleErr     error // set only when every schedule request failed

	AccessibilityLoading bool
	Accessibility        *transit.Accessibility
	AccessibilityErr     error

	// Countdowns maps CountdownKey(route, dir) to the progress towards
	// that direction's next departure.
	Countdowns map[string]Progress
}

// CountdownKey names the countdown of one route direction.
func CountdownKey(routeID string, dir transit.Direction) string {
	return routeID + "/" + string(dir)
}

type state struct {
	open          bool
	summary       Summary
	schedLoading  bool
	schedules     []RouteSchedule
	schedErr      error
	accessLoading bool
	access        *transit.Accessibility
	accessErr     error
}

// View owns the dialog state. Open and Close may be called from any
// goroutine; enrichment results that belong to an older Open are dropped.
type View struct {
	api    Backend
	logger *slog.Logger
	now    func() time.Time
	tick   time.Duration

	gen atomic.Uint64
	wg  sync.WaitGroup

	mu         sync.Mutex
	st         state
	ctx        context.Context
	cancel     context.CancelFunc
	countdowns map[string]*Countdown
	onChange   func()
}

// NewView creates a closed detail view.
func NewView(api Backend, logger *slog.Logger) *View {
	return &View{
		api:        api,
		logger:     logger,
		now:        time.Now,
		tick:       time.Second,
		countdowns: map[string]*Countdown{},
	}
}

// OnChange registers fn to run after every state change, including
// countdown ticks. fn runs without the view's lock held.
func (v *View) OnChange(fn func()) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Open shows s and starts both enrichments. It returns immediately.
func (v *View) Open(s Summary) {
	gen := v.gen.Add(1)
	ctx, cancel := context.WithCancel(context.Background())

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.ctx, v.cancel = ctx, cancel
	old := v.takeCountdowns()
	v.st = state{
		open:          true,
		summary:       s,
		schedLoading:  len(s.Routes) > 0,
		accessLoading: true,
	}
	v.mu.Unlock()

	stopAll(old)
	v.logger.Debug("station detail opened", "station", s.StationID, "routes", len(s.Routes))

	v.wg.Add(2)
	go func() {
		defer v.wg.Done()
		v.loadSchedules(ctx, gen, s)
	}()
	go func() {
		defer v.wg.Done()
		v.loadAccessibility(ctx, gen, s.StationID)
	}()
	v.notify()
}

// Close hides the dialog, cancels pending enrichments and stops every
// countdown.
func (v *View) Close() {
	v.gen.Add(1)

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
		v.ctx, v.cancel = nil, nil
	}
	old := v.takeCountdowns()
	v.st = state{}
	v.mu.Unlock()

	stopAll(old)
	v.notify()
}

// Refresh reloads the schedules of the open station. Running countdowns
// are reset to the new next departures.
func (v *View) Refresh() {
	v.mu.Lock()
	if !v.st.open || v.ctx == nil {
		v.mu.Unlock()
		return
	}
	ctx, s, gen := v.ctx, v.st.summary, v.gen.Load()
	v.mu.Unlock()

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		v.loadSchedules(ctx, gen, s)
	}()
}

// Wait blocks until the enrichments started so far have finished.
func (v *View) Wait() {
	v.wg.Wait()
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{
		Open:                 v.st.open,
		Summary:              v.st.summary,
		ScheduleLoading:      v.st.schedLoading,
		ScheduleErr:          v.st.schedErr,
		AccessibilityLoading: v.st.accessLoading,
		AccessibilityErr:     v.st.accessErr,
		Countdowns:           make(map[string]Progress, len(v.countdowns)),
	}
	snap.Summary.Routes = slices.Clone(v.st.summary.Routes)
	for _, rs := range v.st.schedules {
		rs.Directions = slices.Clone(rs.Directions)
		snap.Schedules = append(snap.Schedules, rs)
	}
	if v.st.access != nil {
		a := *v.st.access
		a.Equipment = slices.Clone(a.Equipment)
		snap.Accessibility = &a
	}
	for k, c := range v.countdowns {
		snap.Countdowns[k] = c.Current()
	}
	return snap
}

func (v *View) loadSchedules(ctx context.Context, gen uint64, s Summary) {
	if len(s.Routes) == 0 {
		return
	}

	// One slot per route and direction; every request runs to completion
	// so a failed one does not hide the others.
	results := make([]RouteSchedule, len(s.Routes))
	var g errgroup.Group
	g.SetLimit(8)
	for i, route := range s.Routes {
		results[i] = RouteSchedule{Route: route, Directions: make([]DirectionSchedule, len(transit.Directions))}
		for j, dir := range transit.Directions {
			g.Go(func() error {
				results[i].Directions[j] = v.fetchDirection(ctx, s.StationID, route.ID, dir)
				return nil
			})
		}
	}
	g.Wait()

	var firstErr error
	failed, total := 0, 0
	for _, rs := range results {
		for _, ds := range rs.Directions {
			total++
			if ds.Err != nil {
				failed++
				if firstErr == nil {
					firstErr = ds.Err
				}
			}
		}
	}
	if failed > 0 {
		v.logger.Warn("schedule enrichment incomplete", "station", s.StationID, "failed", failed, "total", total, "error", firstErr)
	}

	now := v.now()
	v.mu.Lock()
	if v.gen.Load() != gen {
		v.mu.Unlock()
		v.logger.Debug("dropping stale schedule", "station", s.StationID)
		return
	}
	v.st.schedLoading = false
	v.st.schedules = results
	v.st.schedErr = nil
	if failed == total {
		v.st.schedErr = firstErr
	}
	live := make(map[string]bool)
	for _, rs := range results {
		for _, ds := range rs.Directions {
			if len(ds.Departures) == 0 {
				continue
			}
			next, err := parseGTFSTime(ds.Departures[0], now)
			if err != nil {
				v.logger.Warn("bad departure time", "station", s.StationID, "route", rs.Route.ID, "error", err)
				continue
			}
			key := CountdownKey(rs.Route.ID, ds.Direction)
			live[key] = true
			if c, ok := v.countdowns[key]; ok {
				c.Reset(next)
				continue
			}
			v.countdowns[key] = NewCountdown(next, v.tick, v.now, func(Progress) {
				if v.gen.Load() == gen {
					v.notify()
				}
			})
		}
	}
	// Directions that lost their next departure stop counting.
	var stale []*Countdown
	for key, c := range v.countdowns {
		if !live[key] {
			stale = append(stale, c)
			delete(v.countdowns, key)
		}
	}
	v.mu.Unlock()

	stopAll(stale)
	v.notify()
}

func (v *View) fetchDirection(ctx context.Context, stationID, routeID string, dir transit.Direction) DirectionSchedule {
	ds := DirectionSchedule{Direction: dir, Headsign: dir.DefaultHeadsign()}
	sched, err := v.api.Schedule(ctx, stationID, routeID, dir)
	if err != nil {
		ds.Err = fmt.Errorf("%s %s: %w", routeID, dir, err)
		return ds
	}
	for _, e := range sched.Entries {
		t := e.DepartureTime
		if t == "" {
			t = e.ArrivalTime
		}
		if t == "" {
			continue
		}
		ds.Departures = append(ds.Departures, t)
	}
	if len(sched.Entries) > 0 && sched.Entries[0].TripHeadsign != "" {
		ds.Headsign = sched.Entries[0].TripHeadsign
	}
	return ds
}

func (v *View) loadAccessibility(ctx context.Context, gen uint64, stationID string) {
	details, err := v.api.StationDetails(ctx, stationID)
	if err != nil {
		v.logger.Warn("accessibility enrichment failed", "station", stationID, "error", err)
	}

	v.mu.Lock()
	if v.gen.Load() != gen {
		v.mu.Unlock()
		return
	}
	v.st.accessLoading = false
	if err != nil {
		v.st.accessErr = err
	} else {
		v.st.access = &details.Accessibility
	}
	v.mu.Unlock()
	v.notify()
}

// takeCountdowns detaches every countdown; callers stop them after
// releasing v.mu. Must hold v.mu.
func (v *View) takeCountdowns() []*Countdown {
	out := make([]*Countdown, 0, len(v.countdowns))
	for _, c := range v.countdowns {
		out = append(out, c)
	}
	clear(v.countdowns)
	return out
}

func stopAll(cs []*Countdown) {
	for _, c := range cs {
		c.Stop()
	}
}

func (v *View) notify() {
	v.mu.Lock()
	fn := v.onChange
	v.mu.Unlock()
	if fn != nil {
		fn()
	}
}
