package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/soniCaH/kcvv-data/internal/cms"
	"github.com/soniCaH/kcvv-data/internal/config"
	"github.com/soniCaH/kcvv-data/internal/interfaces/httpapi"
	"github.com/soniCaH/kcvv-data/internal/platform/logging"
	"github.com/soniCaH/kcvv-data/internal/platform/resilience"
	"github.com/soniCaH/kcvv-data/internal/stats"
)

// App bundles the HTTP server with the long-lived services main needs to
// reach after construction, such as the stats service for cache warmup.
type App struct {
	Server *http.Server
	Stats  *stats.Service
}

func New(cfg config.Config, logger *slog.Logger, zlog *logging.Logger) (*App, error) {
	contentClient := cms.New(cms.Config{
		BaseURL:    cfg.CMSBaseURL,
		SiteURL:    cfg.SiteURL,
		PageLimit:  cfg.CMSPageLimit,
		MaxRetries: cfg.CMSMaxRetries,
		Timeout:    cfg.CMSTimeout,
		Logger:     zlog.With("component", "cms"),
	})

	statsClient := stats.NewClient(stats.ClientConfig{
		BaseURL:      cfg.StatsBaseURL,
		LogoTemplate: cfg.StatsLogoTemplate,
		Timeout:      cfg.StatsTimeout,
		MaxRetries:   cfg.StatsMaxRetries,
		Logger:       zlog.With("component", "stats"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.StatsCircuitEnabled,
			FailureThreshold: cfg.StatsCircuitFailureCount,
			OpenTimeout:      cfg.StatsCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.StatsCircuitHalfOpenMax,
		},
	})

	statsService := stats.NewService(statsClient, stats.ServiceConfig{
		ShortTTL:   cfg.CacheShortTTL,
		LongTTL:    cfg.CacheLongTTL,
		MaxEntries: cfg.CacheMaxEntries,
		Logger:     zlog.With("component", "stats-cache"),
	})

	handler := httpapi.NewHandler(contentClient, statsService, zlog.With("component", "httpapi"))
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.AdminToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{Server: server, Stats: statsService}, nil
}
