// Package realtime reads the GTFS-realtime service alerts feed shown on the
// service status page.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/google/uuid"
	"github.com/imroc/req/v3"
	"google.golang.org/protobuf/proto"
)

// Fetcher downloads the alerts feed on demand and updates the store.
type Fetcher struct {
	alertsURL string
	store     *Store
	client    *req.Client
	logger    *slog.Logger
	now       func() time.Time
}

// NewFetcher creates a GTFS-RT alerts fetcher.
func NewFetcher(alertsURL string, timeout time.Duration, store *Store, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		alertsURL: alertsURL,
		store:     store,
		client:    req.C().SetTimeout(timeout).SetUserAgent("MetroDiver/1.0"),
		logger:    logger,
		now:       time.Now,
	}
}

// Fetch downloads the feed and returns the alerts active now, preferring
// text in lang. The store is replaced on success and left alone on failure.
func (f *Fetcher) Fetch(ctx context.Context, lang string) ([]Alert, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		Get(f.alertsURL)
	if err != nil {
		f.logger.Warn("fetch alerts failed", "error", err)
		return nil, fmt.Errorf("fetch alerts: %w", err)
	}
	if !resp.IsSuccessState() {
		f.logger.Warn("alerts feed returned non-200", "status", resp.StatusCode)
		return nil, fmt.Errorf("fetch alerts: status %d", resp.StatusCode)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(resp.Bytes(), feed); err != nil {
		f.logger.Error("parse alerts protobuf", "error", err)
		return nil, fmt.Errorf("parse alerts: %w", err)
	}

	now := f.now()
	alerts := parseAlerts(feed, lang, now)
	f.store.SetAlerts(alerts, now)
	f.logger.Info("GTFS-RT alerts updated", "count", len(alerts))
	return alerts, nil
}

func parseAlerts(feed *gtfs.FeedMessage, lang string, now time.Time) []Alert {
	var alerts []Alert
	for _, entity := range feed.GetEntity() {
		a := entity.GetAlert()
		if a == nil || entity.GetIsDeleted() {
			continue
		}

		alert := Alert{
			ID:         entity.GetId(),
			HeaderText: getTranslation(a.GetHeaderText(), lang),
			DescText:   getTranslation(a.GetDescriptionText(), lang),
			Effect:     a.GetEffect().String(),
			Cause:      a.GetCause().String(),
		}

		// An alert may list several periods; keep the one covering now, or
		// skip the alert when none does.
		periods := a.GetActivePeriod()
		if len(periods) > 0 {
			active := false
			for _, p := range periods {
				cand := alert
				if s := p.GetStart(); s > 0 {
					cand.Start = time.Unix(int64(s), 0)
				}
				if e := p.GetEnd(); e > 0 {
					cand.End = time.Unix(int64(e), 0)
				}
				if cand.ActiveAt(now) {
					alert, active = cand, true
					break
				}
			}
			if !active {
				continue
			}
		}

		routeSet := make(map[string]bool)
		for _, ie := range a.GetInformedEntity() {
			if rid := ie.GetRouteId(); rid != "" && !routeSet[rid] {
				alert.RouteIDs = append(alert.RouteIDs, rid)
				routeSet[rid] = true
			}
		}

		alerts = append(alerts, alert)
	}
	return alerts
}

// getTranslation picks the plain-text translation in lang, falling back to
// English and then to the first plain-text entry. HTML variants
// ("en-html") are skipped.
func getTranslation(ts *gtfs.TranslatedString, lang string) string {
	if ts == nil {
		return ""
	}
	var first, english string
	for _, t := range ts.GetTranslation() {
		text, l := t.GetText(), strings.ToLower(t.GetLanguage())
		if text == "" || strings.HasSuffix(l, "-html") {
			continue
		}
		if l == lang {
			return text
		}
		if english == "" && (l == "en" || l == "") {
			english = text
		}
		if first == "" {
			first = text
		}
	}
	if english != "" {
		return english
	}
	return first
}

// FormatAlertEffect returns a human-readable effect description.
func FormatAlertEffect(effect string) string {
	switch effect {
	case "NO_SERVICE":
		return "No Service"
	case "REDUCED_SERVICE":
		return "Reduced Service"
	case "SIGNIFICANT_DELAYS":
		return "Significant Delays"
	case "DETOUR":
		return "Detour"
	case "ADDITIONAL_SERVICE":
		return "Additional Service"
	case "MODIFIED_SERVICE":
		return "Modified Service"
	case "STOP_MOVED":
		return "Stop Moved"
	default:
		return "Alert"
	}
}
