package config

import (
	"github.com/datrocity/pond/storage/redis"
	"github.com/datrocity/pond/storage/sqldb"
)

// DefaultConfig returns a configuration usable out of the box: an
// in-memory datastore and console logging.
func DefaultConfig() *Config {
	return &Config{
		Datastore: DefaultDatastoreConfig(),
		Activity:  DefaultActivityConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
		RateLimit: DefaultRateLimitConfig(),
	}
}

// DefaultDatastoreConfig returns the default datastore settings.
func DefaultDatastoreConfig() DatastoreConfig {
	return DatastoreConfig{
		ID:   "local",
		Kind: "memory",
		File: FileConfig{Path: "./pond-data"},
		Redis: redis.Config{
			Addr:      "localhost:6379",
			DB:        0,
			PoolSize:  10,
			KeyPrefix: "pond:",
		},
		SQL: sqldb.Config{
			Driver:       "sqlite",
			DSN:          "pond.db",
			MaxOpenConns: 25,
		},
	}
}

// DefaultActivityConfig returns the default lineage settings.
func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		Location: "artifacts",
		Author:   "unknown",
		Source:   "pond",
	}
}

// DefaultLogConfig returns the default logger settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "console",
		OutputPaths:  []string{"stderr"},
		EnableCaller: false,
	}
}

// DefaultTelemetryConfig returns telemetry settings with export disabled.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "pond",
		SampleRate:   0.1,
	}
}

// DefaultMetricsConfig returns metrics settings with collection disabled.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "pond",
	}
}

// DefaultRateLimitConfig returns rate limiting settings, disabled.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:      false,
		OpsPerSecond: 100,
		Burst:        200,
	}
}
