package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tejusbharadwaj/telemetry-resampler/internal/resample"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver            string `mapstructure:"driver"`
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Name              string `mapstructure:"name"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	SSLMode           string `mapstructure:"ssl_mode"`
	MaxConnections    int    `mapstructure:"max_connections"`
	ConnectionTimeout int    `mapstructure:"connection_timeout"`
	SchemaCacheSize   int    `mapstructure:"schema_cache_size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PipelineConfig names the raw and processed tables and tunes the resampler
type PipelineConfig struct {
	SourceTable     string        `mapstructure:"source_table"`
	TargetTable     string        `mapstructure:"target_table"`
	TimestampColumn string        `mapstructure:"timestamp_column"`
	EquipmentColumn string        `mapstructure:"equipment_column"`
	BucketWidth     time.Duration `mapstructure:"bucket_width"`
	Exclusions      []string      `mapstructure:"exclusions"`
}

// SchedulerConfig drives the optional nightly runs
type SchedulerConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Spec       string   `mapstructure:"spec"`
	Equipment  []string `mapstructure:"equipment"`
	MavgPeriod int      `mapstructure:"mavg_period"`
}

// DSN builds a key/value connection string understood by both lib/pq and pgx.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
		d.ConnectionTimeout,
	)
}

// ResampleConfig maps the pipeline settings onto the engine configuration.
func (p PipelineConfig) ResampleConfig() resample.Config {
	return resample.Config{
		Exclusions:  p.Exclusions,
		BucketWidth: p.BucketWidth,
		TimeColumn:  p.TimestampColumn,
	}
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	expandedData := os.ExpandEnv(string(data))

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal([]byte(expandedData), &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if err := v.MergeConfigMap(rawConfig); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}
	if c.Pipeline.SourceTable == "" || c.Pipeline.TargetTable == "" {
		return fmt.Errorf("pipeline source_table and target_table are required")
	}
	if c.Pipeline.BucketWidth <= 0 {
		return fmt.Errorf("pipeline bucket_width must be positive")
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.Spec == "" {
			return fmt.Errorf("scheduler spec is required when enabled")
		}
		if len(c.Scheduler.Equipment) == 0 {
			return fmt.Errorf("scheduler equipment list is empty")
		}
		if c.Scheduler.MavgPeriod <= 0 {
			return fmt.Errorf("scheduler mavg_period must be positive")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.connection_timeout", 5)
	v.SetDefault("database.schema_cache_size", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("pipeline.source_table", "RAW_DATA")
	v.SetDefault("pipeline.target_table", "PROC_DATA")
	v.SetDefault("pipeline.timestamp_column", resample.DefaultTimeColumn)
	v.SetDefault("pipeline.equipment_column", "engine_number")
	v.SetDefault("pipeline.bucket_width", resample.DefaultBucketWidth.String())
	v.SetDefault("pipeline.exclusions", resample.DefaultExclusions)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.spec", "0 1 * * *")
	v.SetDefault("scheduler.mavg_period", 5)
}
