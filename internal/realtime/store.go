package realtime

import (
	"slices"
	"sync"
	"time"
)

// Alert represents a parsed service alert.
type Alert struct {
	ID         string
	HeaderText string
	DescText   string
	RouteIDs   []string
	Effect     string // "NO_SERVICE", "REDUCED_SERVICE", "DETOUR", etc.
	Cause      string
	Start, End time.Time // zero when open-ended
}

// ActiveAt reports whether t falls inside the alert's active period.
func (a Alert) ActiveAt(t time.Time) bool {
	if !a.Start.IsZero() && t.Before(a.Start) {
		return false
	}
	if !a.End.IsZero() && !t.Before(a.End) {
		return false
	}
	return true
}

// Store holds the last fetched alerts in a thread-safe manner.
type Store struct {
	mu        sync.RWMutex
	alerts    []Alert
	fetchedAt time.Time
}

// NewStore creates an empty realtime store.
func NewStore() *Store {
	return &Store{}
}

// SetAlerts replaces all alerts.
func (s *Store) SetAlerts(alerts []Alert, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = alerts
	s.fetchedAt = at
}

// FetchedAt returns when the alerts were last replaced.
func (s *Store) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// AlertsForRoutes returns alerts affecting any of routeIDs, each at most
// once, in feed order.
func (s *Store) AlertsForRoutes(routeIDs []string) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterByRoutes(s.alerts, routeIDs)
}

// AllAlerts returns all stored alerts.
func (s *Store) AllAlerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.alerts)
}

// FilterByRoutes keeps the alerts that inform at least one of routeIDs.
func FilterByRoutes(alerts []Alert, routeIDs []string) []Alert {
	var result []Alert
	for _, a := range alerts {
		for _, r := range a.RouteIDs {
			if slices.Contains(routeIDs, r) {
				result = append(result, a)
				break
			}
		}
	}
	return result
}
