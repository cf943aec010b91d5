package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAlertsURL is the MTA subway service alerts feed (GTFS-realtime).
const DefaultAlertsURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/camsys%2Fsubway-alerts"

// Config holds application configuration from environment variables.
type Config struct {
	APIBaseURL string `yaml:"apiURL" validate:"required,url"`
	MapsAPIKey string `yaml:"mapsAPIKey"`

	IdentityURL    string `yaml:"identityURL" validate:"required,url"`
	IdentityAPIKey string `yaml:"identityAPIKey"`
	StorageURL     string `yaml:"storageURL" validate:"required,url"`
	StorageBucket  string `yaml:"storageBucket"`

	AlertsURL   string `yaml:"alertsURL" validate:"omitempty,url"`
	GeocoderURL string `yaml:"geocoderURL" validate:"omitempty,url"`

	DBPath   string `yaml:"dbPath" validate:"required"`
	Locale   string `yaml:"locale" validate:"omitempty,oneof=en zh es"`
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info warn error"`

	HTTPTimeoutSec   int  `yaml:"httpTimeoutSec" validate:"gt=0"`
	CacheTTLSec      int  `yaml:"cacheTTLSec" validate:"gte=0"`
	NotifyTTLSec     int  `yaml:"notifyTTLSec" validate:"gt=0"`
	GeometryFallback bool `yaml:"geometryFallback"` // rebuild lines from the station-route map when stops fail
}

// Load reads configuration from environment variables with defaults.
// .env and .env.local in the working directory are applied first; values
// already present in the environment win over .env, .env.local wins over both.
func Load() *Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	return &Config{
		APIBaseURL:       envStr("METRODIVER_API_URL", "http://127.0.0.1:5000"),
		MapsAPIKey:       envStr("METRODIVER_MAPS_API_KEY", ""),
		IdentityURL:      envStr("METRODIVER_IDENTITY_URL", "https://identitytoolkit.googleapis.com/v1"),
		IdentityAPIKey:   envStr("METRODIVER_IDENTITY_API_KEY", ""),
		StorageURL:       envStr("METRODIVER_STORAGE_URL", "https://firebasestorage.googleapis.com/v0"),
		StorageBucket:    envStr("METRODIVER_STORAGE_BUCKET", ""),
		AlertsURL:        envStr("METRODIVER_ALERTS_URL", DefaultAlertsURL),
		GeocoderURL:      envStr("METRODIVER_GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		DBPath:           envStr("METRODIVER_DB_PATH", "./metrodiver.db"),
		Locale:           envStr("METRODIVER_LOCALE", ""),
		LogLevel:         envStr("METRODIVER_LOG_LEVEL", "info"),
		HTTPTimeoutSec:   envInt("METRODIVER_HTTP_TIMEOUT_SEC", 10),
		CacheTTLSec:      envInt("METRODIVER_CACHE_TTL_SEC", 300),
		NotifyTTLSec:     envInt("METRODIVER_NOTIFY_TTL_SEC", 4),
		GeometryFallback: envBool("METRODIVER_GEOMETRY_FALLBACK", false),
	}
}

// ApplyFile overlays the non-zero values of a YAML file onto cfg.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.merge(file)
	return nil
}

func (c *Config) merge(o Config) {
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setStr(&c.APIBaseURL, o.APIBaseURL)
	setStr(&c.MapsAPIKey, o.MapsAPIKey)
	setStr(&c.IdentityURL, o.IdentityURL)
	setStr(&c.IdentityAPIKey, o.IdentityAPIKey)
	setStr(&c.StorageURL, o.StorageURL)
	setStr(&c.StorageBucket, o.StorageBucket)
	setStr(&c.AlertsURL, o.AlertsURL)
	setStr(&c.GeocoderURL, o.GeocoderURL)
	setStr(&c.DBPath, o.DBPath)
	setStr(&c.Locale, o.Locale)
	setStr(&c.LogLevel, o.LogLevel)
	setInt(&c.HTTPTimeoutSec, o.HTTPTimeoutSec)
	setInt(&c.CacheTTLSec, o.CacheTTLSec)
	setInt(&c.NotifyTTLSec, o.NotifyTTLSec)
	if o.GeometryFallback {
		c.GeometryFallback = true
	}
}

// Validate checks field constraints and returns the first violation.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// HTTPTimeout returns the client timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// CacheTTL returns the static reference data TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// NotifyTTL returns how long transient notifications stay visible.
func (c *Config) NotifyTTL() time.Duration {
	return time.Duration(c.NotifyTTLSec) * time.Second
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
