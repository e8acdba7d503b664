package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"groupagg/internal/aggregate"
	apperrors "groupagg/internal/errors"
	"groupagg/internal/loader"
)

const envPrefix = "GROUPAGG"

// Config represents the complete application configuration
type Config struct {
	Aggregation AggregationConfig `yaml:"aggregation" envconfig:"AGGREGATION"`
	Loader      LoaderConfig      `yaml:"loader" envconfig:"LOADER"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Server      ServerConfig      `yaml:"server" envconfig:"SERVER"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// AggregationConfig configures the aggregator
type AggregationConfig struct {
	Workers  int           `yaml:"workers" envconfig:"WORKERS"`
	Ordering string        `yaml:"ordering" envconfig:"ORDERING"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// LoaderConfig configures how input files become tables
type LoaderConfig struct {
	Delimiter        string   `yaml:"delimiter" envconfig:"DELIMITER"`
	StringsAsFactors bool     `yaml:"strings_as_factors" envconfig:"STRINGS_AS_FACTORS"`
	LevelOrder       string   `yaml:"level_order" envconfig:"LEVEL_ORDER"`
	NAStrings        []string `yaml:"na_strings" envconfig:"NA_STRINGS"`
	MaxUploadBytes   int64    `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int             `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	ServiceVersion string  `yaml:"service_version" envconfig:"SERVICE_VERSION"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"` // stdout or none
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration from defaults, the config file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is like Load with an explicit config file. An empty path skips
// the file.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", path)
		}
	}

	// Only variables that are set override earlier values.
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// AggregatorConfig converts the section into aggregator options.
func (a AggregationConfig) AggregatorConfig() (aggregate.Config, error) {
	ordering, err := aggregate.ParseOrdering(a.Ordering)
	if err != nil {
		return aggregate.Config{}, err
	}
	return aggregate.Config{Workers: a.Workers, Ordering: ordering}, nil
}

// Options converts the section into loader options.
func (l LoaderConfig) Options() (loader.Options, error) {
	order, err := loader.ParseLevelOrder(l.LevelOrder)
	if err != nil {
		return loader.Options{}, err
	}
	opts := loader.Options{
		StringsAsFactors: l.StringsAsFactors,
		LevelOrder:       order,
		NAStrings:        l.NAStrings,
	}
	switch d := []rune(l.Delimiter); len(d) {
	case 0:
		opts.Delimiter = ','
	case 1:
		opts.Delimiter = d[0]
	default:
		if l.Delimiter != `\t` && l.Delimiter != "tab" {
			return loader.Options{}, fmt.Errorf("delimiter must be a single character, got %q", l.Delimiter)
		}
		opts.Delimiter = '\t'
	}
	return opts, nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	if c.Aggregation.Workers < 0 {
		return fmt.Errorf("aggregation workers must not be negative: %d", c.Aggregation.Workers)
	}
	if c.Aggregation.Timeout <= 0 {
		return fmt.Errorf("aggregation timeout must be positive")
	}
	if _, err := c.Aggregation.AggregatorConfig(); err != nil {
		return err
	}

	if _, err := c.Loader.Options(); err != nil {
		return err
	}
	if c.Loader.MaxUploadBytes <= 0 {
		return fmt.Errorf("loader max upload bytes must be positive")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("unknown logging output %q", c.Logging.Output)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/groupagg.log"
	}

	switch c.Telemetry.TraceExporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("unknown trace exporter %q", c.Telemetry.TraceExporter)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry sample rate must be within [0, 1]: %v", c.Telemetry.SampleRate)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(envPrefix + "_CONFIG"); path != "" {
		return path
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Aggregation: AggregationConfig{
			Workers:  0,
			Ordering: "appearance",
			Timeout:  time.Minute,
		},
		Loader: LoaderConfig{
			Delimiter:        ",",
			StringsAsFactors: true,
			LevelOrder:       "sorted",
			MaxUploadBytes:   32 << 20, // 32MB
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/groupagg.log",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   20,
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:        true,
			ServiceName:    "groupagg",
			ServiceVersion: "dev",
			Environment:    "development",
			TraceExporter:  "none",
			SampleRate:     1.0,
			MetricsEnabled: true,
		},
	}
}
