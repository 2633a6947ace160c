package observability

import (
	"context"
	"log/slog"

	"github.com/uptrace/uptrace-go/uptrace"

	"github.com/soniCaH/kcvv-data/internal/config"
)

// InitUptrace configures the OpenTelemetry SDK against Uptrace when enabled.
// The returned shutdown function flushes pending spans and must be called on exit.
func InitUptrace(cfg config.Config, logger *slog.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.UptraceEnabled {
		logger.Info("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
		return func(context.Context) error { return nil }, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)

	logger.Info("uptrace configured",
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)

	return uptrace.Shutdown, nil
}
