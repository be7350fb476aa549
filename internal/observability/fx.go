package observability

import (
	"github.com/smallbiznis/membership/internal/config"
	"github.com/smallbiznis/membership/internal/observability/logger"
	"github.com/smallbiznis/membership/internal/observability/metrics"
	"github.com/smallbiznis/membership/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.NewLevel,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(ensureTracingProvider),
	fx.Invoke(bindRuntimeLogLevel),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

// bindRuntimeLogLevel applies log.level from the runtime config file now and on every reload.
func bindRuntimeLogLevel(holder *config.RuntimeHolder, level zap.AtomicLevel, log *zap.Logger) {
	apply := func(rc config.RuntimeConfig) {
		if rc.Log.Level == "" {
			return
		}
		if err := level.UnmarshalText([]byte(rc.Log.Level)); err != nil {
			log.Warn("ignoring invalid runtime log level", zap.String("level", rc.Log.Level), zap.Error(err))
			return
		}
		log.Info("log level applied", zap.String("level", level.String()))
	}
	apply(holder.Get())
	holder.Subscribe(apply)
}

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		Version:             cfg.Version,
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		Debug:               cfg.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: cfg.Debug(),
	}
}

func provideTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}

func provideMetricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
	}
}
