package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/datrocity/pond/internal/metrics"
	"github.com/datrocity/pond/storage"
	"github.com/datrocity/pond/storage/file"
	"github.com/datrocity/pond/storage/memory"
	"github.com/datrocity/pond/storage/redis"
	"github.com/datrocity/pond/storage/sqldb"
)

// BuildDatastore creates the configured backend and applies the enabled
// wrappers: rate limiting innermost, then metrics, then tracing.
func BuildDatastore(cfg *Config, logger *zap.Logger, reg prometheus.Registerer) (storage.Datastore, error) {
	store, err := buildBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit.Enabled {
		store = storage.NewRateLimited(store, cfg.RateLimit.OpsPerSecond, cfg.RateLimit.Burst)
	}
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector(cfg.Metrics.Namespace, reg)
		store = storage.NewInstrumented(store, collector)
	}
	if cfg.Telemetry.Enabled {
		store = storage.NewTraced(store)
	}
	return store, nil
}

func buildBackend(cfg *Config, logger *zap.Logger) (storage.Datastore, error) {
	ds := cfg.Datastore
	switch ds.Kind {
	case "memory":
		return memory.New(ds.ID), nil
	case "file":
		return file.New(ds.ID, ds.File.Path, file.WithLogger(logger))
	case "redis":
		return redis.New(ds.ID, ds.Redis)
	case "sql":
		return sqldb.New(ds.ID, ds.SQL)
	default:
		return nil, fmt.Errorf("unknown datastore kind %q", ds.Kind)
	}
}

// BuildLogger creates a zap logger from the log settings.
func BuildLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Format != "" {
		zapCfg.Encoding = cfg.Format
	}
	if cfg.Format == "console" {
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	zapCfg.DisableCaller = !cfg.EnableCaller

	return zapCfg.Build()
}
