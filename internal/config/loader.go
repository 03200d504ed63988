package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultDateLayouts are tried in order when parsing the event date column.
// Slash dates without a leading year are read month first.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"01/02/2006 15:04:05",
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/crimecast")
	}

	setDefaults(v)

	v.SetEnvPrefix("CRIMECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Input defaults match the column names of the source incident dataset
	v.SetDefault("input.date_column", "fecha_hecho")
	v.SetDefault("input.district_column", "alcaldia_hecho")
	v.SetDefault("input.category_column", "delito")
	v.SetDefault("input.date_layouts", DefaultDateLayouts)

	v.SetDefault("output.path", "predicciones_delitos_todos.csv")
	v.SetDefault("output.diagnostics", "stdout")

	v.SetDefault("forecast.method", "exponential")
	v.SetDefault("forecast.smoothing_level", 0.5)

	v.SetDefault("pipeline.workers", 0)

	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.type", "nats")
	v.SetDefault("queue.url", "nats://localhost:4222")
	v.SetDefault("queue.subject", "crimecast.forecasts")
	v.SetDefault("queue.publish_timeout", "10s")
	v.SetDefault("queue.redis_stream", "crimecast")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.schema", "crimecast")
	v.SetDefault("database.timeout", "30s")

	v.SetDefault("metrics.job", "crimecast")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "stderr")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			DateColumn:     "fecha_hecho",
			DistrictColumn: "alcaldia_hecho",
			CategoryColumn: "delito",
			DateLayouts:    append([]string(nil), DefaultDateLayouts...),
		},
		Output: OutputConfig{
			Path:        "predicciones_delitos_todos.csv",
			Diagnostics: "stdout",
		},
		Forecast: ForecastConfig{
			Method:         "exponential",
			SmoothingLevel: 0.5,
		},
		Queue: QueueConfig{
			Type:           "nats",
			URL:            "nats://localhost:4222",
			Subject:        "crimecast.forecasts",
			PublishTimeout: 10 * time.Second,
			RedisStream:    "crimecast",
		},
		Database: DatabaseConfig{
			Schema:  "crimecast",
			Timeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Job: "crimecast",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}
