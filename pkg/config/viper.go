package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. DATASCOPE_CSV_DELIMITER
const EnvPrefix = "DATASCOPE"

// LoadViper resolves the configuration through viper: defaults, then the
// optional file at path, then DATASCOPE_* environment variables, then any
// flags already bound to v. ${VAR_NAME} references in the file are replaced
// with environment values before parsing.
func LoadViper(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v, NewDefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := readFile(v, path); err != nil {
			return nil, err
		}
	}

	cfg := NewDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("name", d.Name)
	v.SetDefault("version", d.Version)

	v.SetDefault("csv.delimiter", d.CSV.Delimiter)
	v.SetDefault("csv.comment", d.CSV.Comment)
	v.SetDefault("csv.skip_rows", d.CSV.SkipRows)
	v.SetDefault("csv.has_header", d.CSV.HasHeader)
	v.SetDefault("csv.null_values", d.CSV.NullValues)
	v.SetDefault("csv.trim_spaces", d.CSV.TrimSpaces)

	v.SetDefault("excel.sheet", d.Excel.Sheet)
	v.SetDefault("excel.null_values", d.Excel.NullValues)

	v.SetDefault("json.orient", d.JSON.Orient)

	v.SetDefault("parquet.compression", d.Parquet.Compression)

	v.SetDefault("sql.driver", d.SQL.Driver)
	v.SetDefault("sql.connection", d.SQL.Connection)
	v.SetDefault("sql.timeout", d.SQL.Timeout)
	v.SetDefault("sql.max_open_conns", d.SQL.MaxOpenConns)

	v.SetDefault("observability.log_level", d.Observability.LogLevel)
	v.SetDefault("observability.log_encoding", d.Observability.LogEncoding)
	v.SetDefault("observability.enable_metrics", d.Observability.EnableMetrics)
	v.SetDefault("observability.metrics_file", d.Observability.MetricsFile)
	v.SetDefault("observability.enable_tracing", d.Observability.EnableTracing)
	v.SetDefault("observability.tracing_sample_rate", d.Observability.TracingSampleRate)
}
