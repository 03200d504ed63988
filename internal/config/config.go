package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Output   OutputConfig   `mapstructure:"output"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// InputConfig describes the incident table
type InputConfig struct {
	Path           string   `mapstructure:"path"`            // CSV file; a .sz suffix means snappy-framed
	DateColumn     string   `mapstructure:"date_column"`     // default: fecha_hecho
	DistrictColumn string   `mapstructure:"district_column"` // default: alcaldia_hecho
	CategoryColumn string   `mapstructure:"category_column"` // default: delito
	DateLayouts    []string `mapstructure:"date_layouts"`    // Go time layouts tried in order
	Timezone       string   `mapstructure:"timezone"`        // zone used to pick the calendar day of zoned timestamps
}

// OutputConfig describes where forecasts and diagnostics go
type OutputConfig struct {
	Path        string `mapstructure:"path"`        // CSV file; a .sz suffix means snappy-framed
	Diagnostics string `mapstructure:"diagnostics"` // stdout, stderr, none or a file path
}

// ForecastConfig holds smoothing parameters
type ForecastConfig struct {
	Method         string  `mapstructure:"method"`          // only "exponential" is registered
	SmoothingLevel float64 `mapstructure:"smoothing_level"` // fixed alpha in (0, 1]
}

// PipelineConfig controls per-pair parallelism
type PipelineConfig struct {
	Workers int `mapstructure:"workers"` // 0 = runtime.NumCPU(), 1 = sequential
}

// QueueConfig represents the optional forecast publisher
type QueueConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Type           string        `mapstructure:"type"` // nats (default), redis, kafka, memory
	URL            string        `mapstructure:"url"`
	Password       string        `mapstructure:"password"`
	Subject        string        `mapstructure:"subject"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`
	RedisStream string `mapstructure:"redis_stream"`

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
}

// DatabaseConfig represents optional Postgres persistence of runs
type DatabaseConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Schema  string        `mapstructure:"schema"`
	Tag     string        `mapstructure:"tag"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MetricsConfig represents batch metrics export
type MetricsConfig struct {
	PushURL string `mapstructure:"push_url"` // Pushgateway URL; empty disables pushing
	Job     string `mapstructure:"job"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Input.Validate(); err != nil {
		return fmt.Errorf("input config: %w", err)
	}

	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates input configuration
func (c *InputConfig) Validate() error {
	if c.DateColumn == "" || c.DistrictColumn == "" || c.CategoryColumn == "" {
		return fmt.Errorf("date_column, district_column and category_column are required")
	}

	if len(c.DateLayouts) == 0 {
		return fmt.Errorf("at least one date layout is required")
	}

	if c.Timezone != "" {
		if _, err := ParseTimezone(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone: %w", err)
		}
	}

	return nil
}

// Validate validates forecast configuration
func (c *ForecastConfig) Validate() error {
	if c.Method != "exponential" {
		return fmt.Errorf("forecast.method must be 'exponential', got %q", c.Method)
	}

	if c.SmoothingLevel <= 0 || c.SmoothingLevel > 1 {
		return fmt.Errorf("forecast.smoothing_level must be in (0, 1], got %v", c.SmoothingLevel)
	}

	return nil
}

// Validate validates pipeline configuration
func (c *PipelineConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("pipeline.workers cannot be negative")
	}
	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch strings.ToLower(c.Type) {
	case "", "nats", "redis", "memory":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("queue.kafka_brokers is required for kafka")
		}
	default:
		return fmt.Errorf("unsupported queue.type: %s (supported: nats, redis, kafka, memory)", c.Type)
	}

	if c.Subject == "" {
		return fmt.Errorf("queue.subject is required")
	}

	return nil
}

// Validate validates database configuration
func (c *DatabaseConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.URL == "" {
		return fmt.Errorf("database.url is required when database is enabled")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("database.timeout must be positive")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
