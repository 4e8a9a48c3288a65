package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Sources  SourcesConfig
	Refresh  RefreshConfig
}

type AppConfig struct {
	AppName       string
	Environment   string
	HTTPPort      string
	MigrationsDir string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type SourcesConfig struct {
	// WeatherAPIBase is the gridded-forecast API root.
	WeatherAPIBase string
	// IncidentAPIBase is the structured road-incident API root; empty
	// disables the structured road path and road sources go straight to
	// content fetch.
	IncidentAPIBase string
	// DynamicHosts lists hosts whose pages need headless rendering and the
	// shorter fetch budget, comma separated.
	DynamicHosts []string
	// HeadlessFetch enables the headless browser path for dynamic hosts.
	HeadlessFetch bool
}

type RefreshConfig struct {
	WeatherThreshold time.Duration
	LandThreshold    time.Duration
	RoadThreshold    time.Duration

	FetchTimeout        time.Duration
	DynamicFetchTimeout time.Duration
	PerSourceTimeout    time.Duration
	BatchTimeout        time.Duration

	SearchRadiusKm float64
	ForceRefresh   bool
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	cfg.App = AppConfig{
		AppName:       req("APP_NAME"),
		Environment:   req("APP_ENV"),
		HTTPPort:      req("HTTP_PORT"),
		MigrationsDir: opt("MIGRATIONS_DIR"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  opt("DB_SSL_MODE"),

		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}

	cfg.Sources = SourcesConfig{
		WeatherAPIBase:  opt("WEATHER_API_BASE"),
		IncidentAPIBase: opt("INCIDENT_API_BASE"),
		DynamicHosts:    splitList(opt("DYNAMIC_FETCH_HOSTS")),
		HeadlessFetch:   optBool("HEADLESS_FETCH", false),
	}

	cfg.Refresh = RefreshConfig{
		WeatherThreshold: optDuration("WEATHER_STALENESS_THRESHOLD", 3*time.Hour),
		LandThreshold:    optDuration("LAND_STALENESS_THRESHOLD", 6*time.Hour),
		RoadThreshold:    optDuration("ROAD_STALENESS_THRESHOLD", 6*time.Hour),

		FetchTimeout:        optDuration("FETCH_TIMEOUT", 20*time.Second),
		DynamicFetchTimeout: optDuration("DYNAMIC_FETCH_TIMEOUT", 15*time.Second),
		PerSourceTimeout:    optDuration("FOREGROUND_SOURCE_TIMEOUT", 6*time.Second),
		BatchTimeout:        optDuration("FOREGROUND_BATCH_TIMEOUT", 10*time.Second),

		SearchRadiusKm: optFloat("INCIDENT_SEARCH_RADIUS_KM", 50),
		ForceRefresh:   optBool("FORCE_REFRESH", false),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

func optDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func optInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func optFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func optBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
