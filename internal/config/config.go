package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/soniCaH/kcvv-data/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	defaultCMSBaseURL   = "https://cms.kcvvelewijt.be/jsonapi"
	defaultSiteURL      = "https://www.kcvvelewijt.be"
	defaultStatsBaseURL = "https://api.kcvvelewijt.be/stats"
	defaultLogoTemplate = "https://static.belgianfootball.be/project/publiek/clublogo/%d.jpg"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	CORSAllowedOrigins []string
	AdminToken         string

	CMSBaseURL    string
	SiteURL       string
	CMSPageLimit  int
	CMSTimeout    time.Duration
	CMSMaxRetries int

	StatsBaseURL             string
	StatsLogoTemplate        string
	StatsTimeout             time.Duration
	StatsMaxRetries          int
	StatsCircuitEnabled      bool
	StatsCircuitFailureCount int
	StatsCircuitOpenTimeout  time.Duration
	StatsCircuitHalfOpenMax  int

	CacheShortTTL   time.Duration
	CacheLongTTL    time.Duration
	CacheMaxEntries int
	WarmupTeamIDs   []int64

	PprofEnabled           bool
	PprofAddr              string
	UptraceEnabled         bool
	UptraceDSN             string
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_WRITE_TIMEOUT: %w", err)
	}

	cmsPageLimit, err := getEnvAsInt("CMS_PAGE_LIMIT", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse CMS_PAGE_LIMIT: %w", err)
	}
	cmsTimeout, err := getEnvAsDuration("CMS_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse CMS_TIMEOUT: %w", err)
	}
	cmsMaxRetries, err := getEnvAsInt("CMS_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse CMS_MAX_RETRIES: %w", err)
	}

	statsTimeout, err := getEnvAsDuration("STATS_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATS_TIMEOUT: %w", err)
	}
	statsMaxRetries, err := getEnvAsInt("STATS_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATS_MAX_RETRIES: %w", err)
	}
	statsCircuitEnabled, err := strconv.ParseBool(getEnv("STATS_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATS_CIRCUIT_ENABLED: %w", err)
	}
	statsCircuitFailureCount, err := getEnvAsInt("STATS_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATS_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	statsCircuitOpenTimeout, err := getEnvAsDuration("STATS_CIRCUIT_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATS_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	statsCircuitHalfOpenMax, err := getEnvAsInt("STATS_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATS_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	cacheShortTTL, err := getEnvAsDuration("CACHE_SHORT_TTL", 2*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_SHORT_TTL: %w", err)
	}
	cacheLongTTL, err := getEnvAsDuration("CACHE_LONG_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_LONG_TTL: %w", err)
	}
	cacheMaxEntries, err := getEnvAsInt("CACHE_MAX_ENTRIES", 512)
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_MAX_ENTRIES: %w", err)
	}
	warmupTeamIDs, err := getEnvAsInt64List("WARMUP_TEAM_IDS", nil)
	if err != nil {
		return Config{}, fmt.Errorf("parse WARMUP_TEAM_IDS: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}

	return Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "kcvv-data"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		AdminToken:         strings.TrimSpace(getEnv("ADMIN_TOKEN", "")),

		CMSBaseURL:    strings.TrimRight(getEnv("CMS_BASE_URL", defaultCMSBaseURL), "/"),
		SiteURL:       strings.TrimRight(getEnv("SITE_URL", defaultSiteURL), "/"),
		CMSPageLimit:  cmsPageLimit,
		CMSTimeout:    cmsTimeout,
		CMSMaxRetries: cmsMaxRetries,

		StatsBaseURL:             strings.TrimRight(getEnv("STATS_BASE_URL", defaultStatsBaseURL), "/"),
		StatsLogoTemplate:        getEnv("STATS_LOGO_TEMPLATE", defaultLogoTemplate),
		StatsTimeout:             statsTimeout,
		StatsMaxRetries:          statsMaxRetries,
		StatsCircuitEnabled:      statsCircuitEnabled,
		StatsCircuitFailureCount: statsCircuitFailureCount,
		StatsCircuitOpenTimeout:  statsCircuitOpenTimeout,
		StatsCircuitHalfOpenMax:  statsCircuitHalfOpenMax,

		CacheShortTTL:   cacheShortTTL,
		CacheLongTTL:    cacheLongTTL,
		CacheMaxEntries: cacheMaxEntries,
		WarmupTeamIDs:   warmupTeamIDs,

		PprofEnabled:           pprofEnabled,
		PprofAddr:              getEnv("PPROF_ADDR", ":6060"),
		UptraceEnabled:         uptraceEnabled,
		UptraceDSN:             uptraceDSN,
		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: getEnv("PYROSCOPE_SERVER_ADDRESS", ""),
		PyroscopeAppName:       getEnv("PYROSCOPE_APP_NAME", "kcvv-data"),
		PyroscopeAuthToken:     getEnv("PYROSCOPE_AUTH_TOKEN", ""),

		LogLevel: parseLogLevel(getEnv("LOG_LEVEL", "info")),
	}, nil
}

func parseAppEnv(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case EnvDev:
		return EnvDev, nil
	case EnvStage:
		return EnvStage, nil
	case EnvProd:
		return EnvProd, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	return out, nil
}

func getEnvAsInt64List(key string, fallback []int64) ([]int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parts := splitAndTrim(value)
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
