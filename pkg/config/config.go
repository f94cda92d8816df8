package config

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Config is the top-level configuration. Tags cover YAML files, JSON
// output and viper's mapstructure decoding.
type Config struct {
	// Name identifies the run in logs and metrics
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version" mapstructure:"version"`

	CSV     CSVConfig     `yaml:"csv" json:"csv" mapstructure:"csv"`
	Excel   ExcelConfig   `yaml:"excel" json:"excel" mapstructure:"excel"`
	JSON    JSONConfig    `yaml:"json" json:"json" mapstructure:"json"`
	Parquet ParquetConfig `yaml:"parquet" json:"parquet" mapstructure:"parquet"`
	SQL     SQLConfig     `yaml:"sql" json:"sql" mapstructure:"sql"`

	// Observability settings for logging, metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// LogEncoding selects json or console output
	LogEncoding string `yaml:"log_encoding" json:"log_encoding" mapstructure:"log_encoding"`
	// EnableMetrics activates prometheus collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics" mapstructure:"enable_metrics"`
	// MetricsFile is where the CLI writes a prometheus text snapshot
	MetricsFile string `yaml:"metrics_file" json:"metrics_file" mapstructure:"metrics_file"`
	// EnableTracing activates span export
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
}

// NewDefaultConfig creates a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Name:    "datascope",
		Version: "1.0.0",
		CSV: CSVConfig{
			Delimiter: ",",
			HasHeader: true,
		},
		JSON: JSONConfig{
			Orient: "auto",
		},
		Parquet: ParquetConfig{
			Compression: "snappy",
		},
		SQL: SQLConfig{
			Timeout:      30 * time.Second,
			MaxOpenConns: 1,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogEncoding:       "console",
			EnableMetrics:     true,
			EnableTracing:     false,
			TracingSampleRate: 1.0,
		},
	}
}

// Validate checks that values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(c.CSV.Delimiter) != 1 {
		return fmt.Errorf("csv.delimiter must be a single character, got %q", c.CSV.Delimiter)
	}
	if c.CSV.Comment != "" && utf8.RuneCountInString(c.CSV.Comment) != 1 {
		return fmt.Errorf("csv.comment must be a single character, got %q", c.CSV.Comment)
	}
	if c.CSV.SkipRows < 0 {
		return fmt.Errorf("csv.skip_rows cannot be negative")
	}
	if !c.JSON.validOrient() {
		return fmt.Errorf("json.orient %q is not one of auto, columns, records, split, values, lines", c.JSON.Orient)
	}
	if !c.Parquet.validCompression() {
		return fmt.Errorf("parquet.compression %q is not one of none, snappy, gzip, zstd", c.Parquet.Compression)
	}
	if c.SQL.Timeout < 0 {
		return fmt.Errorf("sql.timeout cannot be negative")
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("observability.tracing_sample_rate must be within [0, 1]")
	}
	return nil
}
