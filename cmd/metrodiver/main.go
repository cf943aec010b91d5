package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"metrodiver/internal/config"
	"metrodiver/internal/detail"
	"metrodiver/internal/geocode"
	"metrodiver/internal/i18n"
	"metrodiver/internal/identity"
	"metrodiver/internal/mapview"
	"metrodiver/internal/pages"
	"metrodiver/internal/prefs"
	"metrodiver/internal/realtime"
	"metrodiver/internal/session"
	"metrodiver/internal/shell"
	"metrodiver/internal/storage"
	"metrodiver/internal/transit"
)

func main() {
	cfg := config.Load()

	// CLI flags
	configFile := flag.String("config", "", "YAML config file overriding environment values")
	flag.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "Backend API origin")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.StringVar(&cfg.Locale, "locale", cfg.Locale, "UI language (en, zh, es)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.GeometryFallback, "geometry-fallback", cfg.GeometryFallback, "Rebuild route lines from the station map when stops fail")
	command := flag.String("c", "", "Run one command and exit")
	flag.Parse()

	if *configFile != "" {
		if err := cfg.ApplyFile(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Open database. Without it the session lives in memory and the
	// favorites page reports the failure.
	var kv session.KV
	var favorites *prefs.Store
	db, err := storage.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		kv = newMemKV()
		favorites = prefs.NewStore(func() (prefs.Repo, error) {
			return storage.Open(cfg.DBPath, logger)
		}, logger)
		defer favorites.Close()
	} else {
		defer db.Close()
		kv = db
		favorites = prefs.NewStoreWithRepo(db, logger)
	}
	sess := session.NewStore(kv)

	stored, _ := sess.Locale(ctx)
	bundle := i18n.NewBundle(i18n.Detect(stored, cfg.Locale, os.Getenv("LC_ALL"), os.Getenv("LANG")))

	api := transit.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout(), cfg.CacheTTL(), logger)
	auth := identity.NewClient(cfg.IdentityURL, cfg.IdentityAPIKey, cfg.HTTPTimeout(), sess, logger)
	avatars := identity.NewAvatars(cfg.StorageURL, cfg.StorageBucket, cfg.HTTPTimeout(), sess, logger)
	geocoder := geocode.New(cfg.GeocoderURL, "MetroDiver/1.0 (transit client)", cfg.HTTPTimeout(), logger)

	var alerts pages.AlertSource
	alertStore := realtime.NewStore()
	if cfg.AlertsURL != "" {
		alerts = realtime.NewFetcher(cfg.AlertsURL, cfg.HTTPTimeout(), alertStore, logger)
	}

	overlay := mapview.NewGeoJSONOverlay()
	detailView := detail.NewView(api, logger)
	mapView := mapview.New(api, overlay, detailView, mapview.Options{GeometryFallback: cfg.GeometryFallback}, logger)
	defer mapView.Close()
	defer detailView.Close()

	app := shell.New(bundle, sess, auth, cfg.NotifyTTL(), logger)
	defer app.Close()

	home := &pages.Home{Map: mapView, Detail: detailView, Geocoder: geocoder, T: bundle, Notify: app, Logger: logger}
	login := &pages.Login{Auth: auth, Nav: app, T: bundle, Notify: app, Logger: logger}
	profile := &pages.Profile{Auth: auth, Avatars: avatars, Session: sess, T: bundle, Notify: app, Logger: logger}
	status := &pages.Status{
		Form:       prefs.NewForm(favorites, logger),
		Alerts:     alerts,
		AlertStore: alertStore,
		Lang:       func() string { return string(bundle.Locale()) },
		T:          bundle,
		Notify:     app,
		Logger:     logger,
	}
	app.Register(shell.PathHome, home)
	app.Register(shell.PathServiceStatus, status)
	app.Register(shell.PathLogin, login)
	app.Register(shell.PathUser, profile)

	r := &repl{
		ctx:      ctx,
		out:      os.Stdout,
		cfg:      cfg,
		app:      app,
		bundle:   bundle,
		home:     home,
		login:    login,
		profile:  profile,
		status:   status,
		mapView:  mapView,
		overlay:  overlay,
		geocoder: geocoder,
		alerts:   alertStore,
		redraw:   make(chan struct{}, 1),
		logger:   logger,
	}
	app.OnRender(r.render)
	detailView.OnChange(r.detailChanged)
	go r.redrawLoop()

	if err := app.Navigate(ctx, shell.PathHome); err != nil {
		logger.Error("initial navigation failed", "error", err)
	}

	if *command != "" {
		r.exec(*command)
		return
	}

	r.render()
	r.run(bufio.NewScanner(os.Stdin))
	logger.Info("shutting down")
}
