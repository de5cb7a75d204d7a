package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "memory", cfg.Datastore.Kind)
	assert.Equal(t, "local", cfg.Datastore.ID)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pond.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
datastore:
  id: research
  kind: file
  file:
    path: /data/pond
activity:
  location: experiments
  author: ada
log:
  level: debug
rate_limit:
  enabled: true
  ops_per_second: 50
`), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "research", cfg.Datastore.ID)
	assert.Equal(t, "file", cfg.Datastore.Kind)
	assert.Equal(t, "/data/pond", cfg.Datastore.File.Path)
	assert.Equal(t, "experiments", cfg.Activity.Location)
	assert.Equal(t, "ada", cfg.Activity.Author)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 50.0, cfg.RateLimit.OpsPerSecond)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Datastore.Redis.Addr)
}

func TestMissingConfigFileFallsBackToDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/does/not/exist.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Datastore.Kind)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POND_DATASTORE_KIND", "redis")
	t.Setenv("POND_DATASTORE_ID", "shared")
	t.Setenv("POND_DATASTORE_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("POND_DATASTORE_REDIS_POOL_SIZE", "32")
	t.Setenv("POND_LOG_LEVEL", "warn")
	t.Setenv("POND_METRICS_ENABLED", "true")
	t.Setenv("POND_TELEMETRY_SAMPLE_RATE", "0.5")
	t.Setenv("POND_LOG_OUTPUT_PATHS", "stdout, stderr")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Datastore.Kind)
	assert.Equal(t, "shared", cfg.Datastore.ID)
	assert.Equal(t, "redis.internal:6379", cfg.Datastore.Redis.Addr)
	assert.Equal(t, 32, cfg.Datastore.Redis.PoolSize)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)
	assert.Equal(t, []string{"stdout", "stderr"}, cfg.Log.OutputPaths)
}

func TestEnvPrefixIsConfigurable(t *testing.T) {
	t.Setenv("RESEARCH_DATASTORE_ID", "lab")
	cfg, err := NewLoader().WithEnvPrefix("RESEARCH").Load()
	require.NoError(t, err)
	assert.Equal(t, "lab", cfg.Datastore.ID)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown kind", func(c *Config) { c.Datastore.Kind = "tape" }},
		{"empty id", func(c *Config) { c.Datastore.ID = "" }},
		{"file without path", func(c *Config) {
			c.Datastore.Kind = "file"
			c.Datastore.File.Path = ""
		}},
		{"rate limit without rate", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.OpsPerSecond = 0
		}},
		{"sample rate out of range", func(c *Config) { c.Telemetry.SampleRate = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBuildDatastoreMemoryWithWrappers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.RateLimit.Enabled = true
	cfg.Telemetry.Enabled = true

	store, err := BuildDatastore(cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Wrappers preserve the backend id.
	assert.Equal(t, "local", store.ID())
}

func TestBuildDatastoreFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Datastore.Kind = "file"
	cfg.Datastore.File.Path = t.TempDir()

	store, err := BuildDatastore(cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, "local", store.ID())
	require.NoError(t, store.Close())
}

func TestBuildDatastoreUnknownKind(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Datastore.Kind = "tape"
	_, err := BuildDatastore(cfg, zap.NewNop(), prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestBuildLogger(t *testing.T) {
	logger, err := BuildLogger(LogConfig{Level: "debug", Format: "json", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	logger.Sync()

	_, err = BuildLogger(LogConfig{Level: "chatty"})
	assert.Error(t, err)
}
