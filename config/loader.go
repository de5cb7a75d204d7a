package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/datrocity/pond/storage/redis"
	"github.com/datrocity/pond/storage/sqldb"
)

// Config is the complete pond configuration.
type Config struct {
	// Datastore selects and configures the storage backend.
	Datastore DatastoreConfig `yaml:"datastore" env:"DATASTORE"`

	// Activity holds the defaults for new activities.
	Activity ActivityConfig `yaml:"activity" env:"ACTIVITY"`

	// Log configures the zap logger.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry configures OpenTelemetry export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics configures Prometheus instrumentation of datastore ops.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// RateLimit bounds the rate of backend operations.
	RateLimit RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`
}

// DatastoreConfig selects one backend by kind.
type DatastoreConfig struct {
	// ID is the datastore identifier used in pond:// URIs.
	ID string `yaml:"id" env:"ID"`
	// Kind is one of "file", "memory", "redis", "sql".
	Kind string `yaml:"kind" env:"KIND"`
	// File configures the file backend.
	File FileConfig `yaml:"file" env:"FILE"`
	// Redis configures the redis backend.
	Redis redis.Config `yaml:"redis" env:"REDIS"`
	// SQL configures the sql backend.
	SQL sqldb.Config `yaml:"sql" env:"SQL"`
}

// FileConfig configures the file backend.
type FileConfig struct {
	// Path is the base directory holding all artifacts.
	Path string `yaml:"path" env:"PATH"`
}

// ActivityConfig holds the lineage defaults.
type ActivityConfig struct {
	// Location is the default location inside the datastore.
	Location string `yaml:"location" env:"LOCATION"`
	// Author is recorded in every written manifest.
	Author string `yaml:"author" env:"AUTHOR"`
	// Source identifies the producing script or pipeline step.
	Source string `yaml:"source" env:"SOURCE"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths are zap output paths.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// EnableCaller adds the caller annotation.
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	// Enabled turns trace export on. Off, all spans are noop.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// ServiceName identifies this process in traces.
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	// Enabled wraps the datastore with per-op counters and histograms.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// RateLimitConfig bounds backend operations.
type RateLimitConfig struct {
	// Enabled wraps the datastore with a token-bucket limiter.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OpsPerSecond is the sustained operation rate.
	OpsPerSecond float64 `yaml:"ops_per_second" env:"OPS_PER_SECOND"`
	// Burst is the token bucket size.
	Burst int `yaml:"burst" env:"BURST"`
}

// Loader loads the configuration, builder style.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the default "POND" env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "POND"}
}

// WithConfigPath sets the YAML config file path. A missing file is not an
// error; defaults and environment apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a validator run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration: defaults, then file, then environment.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// setFieldsFromEnv walks the struct recursively, overriding fields whose
// env-tagged variable is set.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" {
			// Backend configs reuse their storage package's structs, which
			// carry yaml tags only; derive the env key from those.
			if key := yamlKey(t.Field(i)); key != "" {
				envTag = strings.ToUpper(key)
			}
		}
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		value := os.Getenv(envKey)
		if value == "" {
			continue
		}
		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("set %s: %w", envKey, err)
		}
	}
	return nil
}

func yamlKey(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	if tag == "" {
		return ""
	}
	key, _, _ := strings.Cut(tag, ",")
	return key
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// MustLoad loads the configuration from path and panics on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	return cfg
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	var errs []string

	switch c.Datastore.Kind {
	case "file", "memory", "redis", "sql":
	default:
		errs = append(errs, fmt.Sprintf("unknown datastore kind %q", c.Datastore.Kind))
	}
	if c.Datastore.ID == "" {
		errs = append(errs, "datastore id must not be empty")
	}
	if c.Datastore.Kind == "file" && c.Datastore.File.Path == "" {
		errs = append(errs, "file datastore needs a path")
	}
	if c.RateLimit.Enabled && c.RateLimit.OpsPerSecond <= 0 {
		errs = append(errs, "rate limit ops_per_second must be positive")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry sample_rate must be in [0, 1]")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
