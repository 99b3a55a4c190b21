package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"weather-lakehouse/internal/weather"
)

// Per-environment defaults. The environment selector picks the database file
// and API port; everything else can still be overridden per variable.
var envDefaults = map[string]struct {
	SQLitePath string
	Port       string
}{
	"dev":  {"weather_data_dev.db", "8001"},
	"uat":  {"weather_data_uat.db", "8002"},
	"prod": {"weather_data.db", "8000"},
}

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// Provider selection and credentials.
	Provider          string // "openweather" or "weatherapi"
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	HTTPTimeout       time.Duration

	// Locations to track.
	Locations []weather.Location

	// FetchInterval controls how often the scheduler ingests each location.
	FetchInterval time.Duration

	// TransformInterval controls how often the orchestrator runs the
	// silver/gold/mart stages. Independent from FetchInterval.
	TransformInterval time.Duration

	// SQLite settings.
	SQLitePath        string
	SQLiteDSN         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
}

// Load reads configuration from environment with per-environment defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	defaults, ok := envDefaults[appEnv]
	if !ok {
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, uat, prod)", appEnv)
	}
	cfg.AppEnv = appEnv

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.Port = getenvDefault("PORT", defaults.Port)

	cfg.Provider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", "openweather"))
	switch cfg.Provider {
	case "openweather", "weatherapi":
	default:
		return nil, fmt.Errorf("invalid WEATHER_PROVIDER %q (allowed: openweather, weatherapi)", cfg.Provider)
	}
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Scheduler interval: default 20 minutes, matching the fetch cadence the
	// pipeline was tuned for.
	fetchInterval, err := time.ParseDuration(getenvDefault("FETCH_INTERVAL", "20m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = fetchInterval

	// Orchestrator interval: default hourly.
	transformInterval, err := time.ParseDuration(getenvDefault("TRANSFORM_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRANSFORM_INTERVAL: %w", err)
	}
	cfg.TransformInterval = transformInterval

	cfg.SQLitePath = getenvDefault("SQLITE_PATH", defaults.SQLitePath)
	cfg.SQLiteDSN = strings.TrimSpace(os.Getenv("SQLITE_DSN"))
	cfg.DBMaxOpenConns = getenvInt("DB_MAX_OPEN_CONNS", 1)
	cfg.DBMaxIdleConns = getenvInt("DB_MAX_IDLE_CONNS", 1)

	connMaxLifetime, err := time.ParseDuration(getenvDefault("DB_CONN_MAX_LIFETIME", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	cfg.DBConnMaxLifetime = connMaxLifetime

	locs, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

func loadLocations() ([]weather.Location, error) {
	city := os.Getenv("WEATHER_LOCATION_CITY")
	country := os.Getenv("WEATHER_LOCATION_COUNTRY")
	if strings.TrimSpace(city) == "" {
		return nil, nil
	}

	cities := strings.Split(city, ",")
	var countries []string
	if strings.TrimSpace(country) != "" {
		countries = strings.Split(country, ",")
		if len(cities) != len(countries) {
			return nil, fmt.Errorf("number of cities and countries must be the same")
		}
	}

	var locs []weather.Location
	for i := range cities {
		loc := weather.Location{City: strings.TrimSpace(cities[i])}
		if countries != nil {
			loc.Country = strings.TrimSpace(countries[i])
		}
		locs = append(locs, loc)
	}

	return locs, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
