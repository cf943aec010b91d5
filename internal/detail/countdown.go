package detail

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// ProgressWindow is the span over which the progress bar fills up before a
// departure.
const ProgressWindow = 10 * time.Minute

// Progress is the countdown state of the next departure.
type Progress struct {
	Minutes  int     // whole minutes remaining, rounded up
	Percent  float64 // 0..100, reaching 100 at departure
	Departed bool
}

// ComputeProgress returns the countdown to next as seen at now. A
// departure at or before now is Departed, never a negative minute count.
func ComputeProgress(next, now time.Time) Progress {
	diff := next.Sub(now)
	if diff <= 0 {
		return Progress{Percent: 100, Departed: true}
	}
	pct := 100 - float64(diff)/float64(ProgressWindow)*100
	return Progress{
		Minutes: int(math.Ceil(diff.Minutes())),
		Percent: math.Max(0, math.Min(100, pct)),
	}
}

// parseGTFSTime resolves an "HH:MM:SS" service time against the service
// day of now. Hours past 23 roll into the next day.
func parseGTFSTime(gtfsTime string, now time.Time) (time.Time, error) {
	var h, m, s int
	if _, err := fmt.Sscanf(gtfsTime, "%d:%d:%d", &h, &m, &s); err != nil {
		return time.Time{}, fmt.Errorf("parse departure time %q: %w", gtfsTime, err)
	}
	t := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return t.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second), nil
}

// Countdown recomputes Progress on a fixed interval and hands it to a
// callback. The callback runs on the countdown's goroutine and must not
// call Stop.
type Countdown struct {
	interval time.Duration
	now      func() time.Time
	onTick   func(Progress)

	mu      sync.Mutex
	next    time.Time
	current Progress

	reset    chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewCountdown starts a countdown to next. The first tick is delivered
// immediately.
func NewCountdown(next time.Time, interval time.Duration, now func() time.Time, onTick func(Progress)) *Countdown {
	if now == nil {
		now = time.Now
	}
	if onTick == nil {
		onTick = func(Progress) {}
	}
	c := &Countdown{
		interval: interval,
		now:      now,
		onTick:   onTick,
		next:     next,
		current:  ComputeProgress(next, now()),
		reset:    make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Countdown) run() {
	defer close(c.done)
	t := time.NewTicker(c.interval)
	defer t.Stop()

	c.emit()
	for {
		select {
		case <-c.stop:
			return
		case <-c.reset:
			t.Reset(c.interval)
			c.emit()
		case <-t.C:
			c.emit()
		}
	}
}

func (c *Countdown) emit() {
	select {
	case <-c.stop:
		return
	default:
	}
	c.mu.Lock()
	p := ComputeProgress(c.next, c.now())
	c.current = p
	c.mu.Unlock()
	c.onTick(p)
}

// Reset points the countdown at a new departure and restarts the interval.
func (c *Countdown) Reset(next time.Time) {
	c.mu.Lock()
	c.next = next
	c.current = ComputeProgress(next, c.now())
	c.mu.Unlock()
	select {
	case c.reset <- struct{}{}:
	default:
	}
}

// Current returns the most recently computed progress.
func (c *Countdown) Current() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Stop ends the countdown and waits for its goroutine. No tick is
// delivered after Stop returns. Stop is idempotent.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}
