package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"metrodiver/internal/config"
	"metrodiver/internal/geo"
	"metrodiver/internal/geocode"
	"metrodiver/internal/i18n"
	"metrodiver/internal/mapview"
	"metrodiver/internal/pages"
	"metrodiver/internal/realtime"
	"metrodiver/internal/shell"
)

const helpText = `commands:
  go <path>               navigate (/, /service-status, /login, /user)
  stations [text]         list stations, optionally filtered by name
  reload                  refetch stations past the cache
  select <station-id>     draw routes and open the station dialog
  close                   close the station dialog
  refresh                 reload the open station's schedule
  live on|off             redraw on every countdown tick
  locate <place>          select the station nearest to an address
  where                   street address of the selected station
  login <email> <pass>    sign in
  register <email> <pass> create an account
  resend                  resend the verification email
  logout                  sign out
  avatar <file>           upload a profile picture
  fav <line>              toggle a favorite line
  alerts                  list every alert from the last feed fetch
  save | clear            save or clear favorite lines
  lang <en|zh|es>         switch language
  geojson [file]          export the map overlay
  staticmap               print a static map image URL
  show                    redraw the screen
  quit`

type repl struct {
	ctx      context.Context
	out      io.Writer
	cfg      *config.Config
	app      *shell.Shell
	bundle   *i18n.Bundle
	home     *pages.Home
	login    *pages.Login
	profile  *pages.Profile
	status   *pages.Status
	mapView  *mapview.View
	overlay  *mapview.GeoJSONOverlay
	geocoder *geocode.Client
	alerts   *realtime.Store
	logger   *slog.Logger

	outMu  sync.Mutex
	live   atomic.Bool
	redraw chan struct{}
}

func (r *repl) run(in *bufio.Scanner) {
	for {
		fmt.Fprint(r.out, "> ")
		if !in.Scan() {
			return
		}
		if r.ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "quit" || line == "exit" {
			return
		}
		if line == "" {
			continue
		}
		r.exec(line)
	}
}

func (r *repl) render() {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	r.app.Render(r.ctx, r.out)
}

// detailChanged runs on countdown goroutines; it only queues a redraw.
func (r *repl) detailChanged() {
	if !r.live.Load() {
		return
	}
	select {
	case r.redraw <- struct{}{}:
	default:
	}
}

func (r *repl) redrawLoop() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.redraw:
			if r.app.Path() != shell.PathHome || !r.home.Detail.Snapshot().Open {
				continue
			}
			r.render()
			r.outMu.Lock()
			fmt.Fprint(r.out, "> ")
			r.outMu.Unlock()
		}
	}
}

func (r *repl) exec(line string) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	ctx := r.ctx

	switch cmd {
	case "help":
		fmt.Fprintln(r.out, helpText)
		return
	case "go":
		r.app.Navigate(ctx, arg)
	case "stations":
		r.listStations(arg)
		return
	case "select":
		r.onHome()
		r.home.Select(ctx, arg)
		r.home.Detail.Wait()
	case "close":
		r.home.CloseDetail()
	case "reload":
		r.onHome()
		r.home.Reload(ctx)
	case "refresh":
		r.home.Detail.Refresh()
		r.home.Detail.Wait()
	case "live":
		r.live.Store(arg == "on")
		return
	case "locate":
		r.onHome()
		r.home.Locate(ctx, arg)
		r.home.Detail.Wait()
	case "where":
		r.where()
	case "login":
		email, pass, _ := strings.Cut(arg, " ")
		r.app.Navigate(ctx, shell.PathLogin)
		r.login.SignIn(ctx, email, strings.TrimSpace(pass))
	case "register":
		email, pass, _ := strings.Cut(arg, " ")
		r.app.Navigate(ctx, shell.PathLogin)
		r.login.Register(ctx, email, strings.TrimSpace(pass))
	case "resend":
		r.login.Resend(ctx)
	case "logout":
		r.app.Logout(ctx)
	case "avatar":
		r.uploadAvatar(arg)
	case "fav":
		r.onStatus()
		r.status.Toggle(strings.ToUpper(arg))
	case "alerts":
		r.listAlerts()
		return
	case "save":
		r.onStatus()
		r.status.Save(ctx)
	case "clear":
		r.onStatus()
		r.status.Clear(ctx)
	case "lang":
		if !r.app.SwitchLocale(ctx, i18n.Locale(arg)) {
			fmt.Fprintf(r.out, "unsupported language %q\n", arg)
		}
		return // the shell re-renders on locale change
	case "geojson":
		r.exportGeoJSON(arg)
		return
	case "staticmap":
		r.staticMap()
		return
	case "show":
	default:
		fmt.Fprintf(r.out, "unknown command %q, try help\n", cmd)
		return
	}
	r.render()
}

func (r *repl) onHome() {
	if r.app.Path() != shell.PathHome {
		r.app.Navigate(r.ctx, shell.PathHome)
	}
}

func (r *repl) onStatus() {
	if r.app.Path() != shell.PathServiceStatus {
		r.app.Navigate(r.ctx, shell.PathServiceStatus)
	}
}

func (r *repl) listStations(filter string) {
	filter = strings.ToLower(filter)
	stations := r.mapView.Stations()
	sort.Slice(stations, func(i, j int) bool { return stations[i].Name < stations[j].Name })
	for _, s := range stations {
		if filter != "" && !strings.Contains(strings.ToLower(s.Name), filter) {
			continue
		}
		fmt.Fprintf(r.out, "%-6s %-32s %.6f,%.6f\n", s.ID, s.Name, s.Lat, s.Lng)
	}
}

func (r *repl) listAlerts() {
	at := r.alerts.FetchedAt()
	if at.IsZero() {
		fmt.Fprintln(r.out, "no alerts fetched yet; save favorite lines first")
		return
	}
	all := r.alerts.AllAlerts()
	fmt.Fprintf(r.out, "%d alerts as of %s\n", len(all), at.Format("15:04:05"))
	for _, a := range all {
		fmt.Fprintf(r.out, "  [%s] %s: %s\n", strings.Join(a.RouteIDs, ","), realtime.FormatAlertEffect(a.Effect), a.HeaderText)
	}
}

func (r *repl) where() {
	st, ok := r.mapView.Station(r.mapView.Selected())
	if !ok {
		return
	}
	addr, err := r.geocoder.Reverse(r.ctx, st.Lat, st.Lng)
	if err != nil {
		r.logger.Warn("reverse geocode failed", "station", st.ID, "error", err)
		return
	}
	fmt.Fprintf(r.out, "%s: %s\n", st.Name, addr)
}

func (r *repl) uploadAvatar(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.app.Notify(pages.Error, err.Error())
		return
	}
	if r.app.Path() != shell.PathUser {
		r.app.Navigate(r.ctx, shell.PathUser)
	}
	r.profile.UploadAvatar(r.ctx, http.DetectContentType(data), data)
}

func (r *repl) exportGeoJSON(path string) {
	data, err := json.MarshalIndent(r.overlay, "", "  ")
	if err != nil {
		r.logger.Error("encode geojson", "error", err)
		return
	}
	if path == "" {
		fmt.Fprintln(r.out, string(data))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.app.Notify(pages.Error, err.Error())
	}
}

func (r *repl) staticMap() {
	var marker *geo.LatLng
	if st, ok := r.mapView.Station(r.mapView.Selected()); ok {
		marker = &geo.LatLng{Lat: st.Lat, Lng: st.Lng}
	}
	fmt.Fprintln(r.out, mapview.StaticMapURL(r.cfg.MapsAPIKey, r.mapView.Lines(), marker, ""))
}
