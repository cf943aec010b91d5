package pages

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"metrodiver/internal/prefs"
	"metrodiver/internal/realtime"
)

// AlertSource fetches current service alerts.
type AlertSource interface {
	Fetch(ctx context.Context, lang string) ([]realtime.Alert, error)
}

// Status is the service status page: the favorite-lines form and the
// alerts affecting the saved lines. Alerts writes the fetched feed into
// AlertStore, which the page reads from.
type Status struct {
	Form       *prefs.Form
	Alerts     AlertSource     // optional
	AlertStore *realtime.Store // required with Alerts
	Lang       func() string
	T          Translator
	Notify     Notifier
	Logger     *slog.Logger

	alertsErr error
}

// Enter loads the form and the alerts. The form always ends Ready or
// Failed; an alerts failure does not affect it.
func (p *Status) Enter(ctx context.Context) {
	if err := p.Form.Load(ctx); err != nil {
		p.Notify.Notify(Error, p.T.T("storageFailed"))
		return
	}
	p.refreshAlerts(ctx)
}

func (p *Status) Leave() {}

func (p *Status) Toggle(line string) {
	if _, err := p.Form.Toggle(line); err != nil {
		p.Logger.Debug("status: toggle rejected", "line", line, "error", err)
		p.Notify.Notify(Warning, err.Error())
	}
}

func (p *Status) Save(ctx context.Context) {
	if err := p.Form.Save(ctx); err != nil {
		p.Notify.Notify(Error, p.T.T("storageFailed"))
		return
	}
	p.Notify.Notify(Success, p.T.T("saved"))
	p.refreshAlerts(ctx)
}

func (p *Status) Clear(ctx context.Context) {
	if err := p.Form.Clear(ctx); err != nil {
		p.Notify.Notify(Error, p.T.T("storageFailed"))
		return
	}
	p.Notify.Notify(Success, p.T.T("cleared"))
	p.alertsErr = nil
}

// FavoriteAlerts returns the alerts of the saved lines from the last
// successful fetch.
func (p *Status) FavoriteAlerts() []realtime.Alert {
	if p.AlertStore == nil {
		return nil
	}
	return p.AlertStore.AlertsForRoutes(p.Form.Saved())
}

func (p *Status) refreshAlerts(ctx context.Context) {
	if p.Alerts == nil || len(p.Form.Saved()) == 0 {
		p.alertsErr = nil
		return
	}
	lang := "en"
	if p.Lang != nil {
		lang = p.Lang()
	}
	if _, err := p.Alerts.Fetch(ctx, lang); err != nil {
		p.Logger.Warn("status: alerts unavailable", "error", err)
		p.alertsErr = err
		return
	}
	p.alertsErr = nil
}

func (p *Status) Render(w io.Writer) {
	fmt.Fprintf(w, "== %s ==\n", p.T.T("serviceStatus"))
	v := p.Form.View()
	switch v.State {
	case prefs.Loading:
		fmt.Fprintln(w, p.T.T("loading"))
		return
	case prefs.Failed:
		fmt.Fprintln(w, p.T.T("storageFailed"))
		return
	}

	fmt.Fprintf(w, "%s:\n ", p.T.T("favoriteLines"))
	sel := make(map[string]bool, len(v.Selection))
	for _, l := range v.Selection {
		sel[l] = true
	}
	for _, l := range prefs.Lines {
		mark := " "
		if sel[l] {
			mark = "x"
		}
		fmt.Fprintf(w, " [%s]%s", mark, l)
	}
	fmt.Fprintln(w)
	if v.Dirty {
		fmt.Fprintf(w, "  [%s] [%s]\n", p.T.T("save"), p.T.T("clear"))
	} else {
		fmt.Fprintf(w, "  [%s]\n", p.T.T("clear"))
	}

	if len(v.Saved) == 0 || p.Alerts == nil {
		return
	}
	fmt.Fprintf(w, "%s:", p.T.T("serviceAlerts"))
	if p.AlertStore != nil && !p.AlertStore.FetchedAt().IsZero() {
		at := p.AlertStore.FetchedAt().Local().Format(time.TimeOnly)
		fmt.Fprintf(w, " (%s)", p.T.T("alertsUpdated", map[string]string{"time": at}))
	}
	fmt.Fprintln(w)
	if p.alertsErr != nil {
		fmt.Fprintf(w, "  %s\n", p.T.T("alertsUnavailable"))
		return
	}
	alerts := p.FavoriteAlerts()
	if len(alerts) == 0 {
		fmt.Fprintf(w, "  %s\n", p.T.T("noAlerts"))
		return
	}
	for _, a := range alerts {
		fmt.Fprintf(w, "  [%s] %s: %s\n", strings.Join(a.RouteIDs, ","), realtime.FormatAlertEffect(a.Effect), a.HeaderText)
	}
}
