package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty name", mutate: func(c *Config) { c.Name = "" }, wantErr: "name is required"},
		{name: "long delimiter", mutate: func(c *Config) { c.CSV.Delimiter = "||" }, wantErr: "csv.delimiter"},
		{name: "negative skip", mutate: func(c *Config) { c.CSV.SkipRows = -1 }, wantErr: "skip_rows"},
		{name: "bad orient", mutate: func(c *Config) { c.JSON.Orient = "table" }, wantErr: "json.orient"},
		{name: "bad compression", mutate: func(c *Config) { c.Parquet.Compression = "brotli" }, wantErr: "parquet.compression"},
		{name: "bad sample rate", mutate: func(c *Config) { c.Observability.TracingSampleRate = 2 }, wantErr: "tracing_sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadViperSubstitutesEnv(t *testing.T) {
	t.Setenv("DS_TEST_DSN", "postgres://u:p@db/sales")
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: nightly
csv:
  delimiter: ";"
sql:
  connection: ${DS_TEST_DSN}
  timeout: 5s
`), 0o600))

	cfg, err := LoadViper(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "nightly", cfg.Name)
	assert.Equal(t, ';', cfg.CSV.DelimiterRune())
	assert.True(t, cfg.CSV.HasHeader, "defaults survive partial files")
	assert.Equal(t, "postgres://u:p@db/sales", cfg.SQL.Connection)
	assert.Equal(t, 5*time.Second, cfg.SQL.Timeout)
}

func TestLoadViperMissingFile(t *testing.T) {
	_, err := LoadViper(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := NewDefaultConfig()
	cfg.Excel.Sheet = "Data"
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadViper(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "Data", loaded.Excel.Sheet)
	assert.Equal(t, cfg.SQL, loaded.SQL)
	assert.Equal(t, cfg.Observability, loaded.Observability)
}

func TestLoadViperEnvOverride(t *testing.T) {
	t.Setenv("DATASCOPE_CSV_DELIMITER", "|")
	t.Setenv("DATASCOPE_OBSERVABILITY_LOG_LEVEL", "debug")

	cfg, err := LoadViper(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "|", cfg.CSV.Delimiter)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.SQL.Timeout)
}

func TestLoadViperFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("json:\n  orient: records\n"), 0o600))

	cfg, err := LoadViper(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "records", cfg.JSON.Orient)
}

func TestLoadViperSubstitutedDelimiter(t *testing.T) {
	t.Setenv("DS_TEST_DELIM", "|")
	path := filepath.Join(t.TempDir(), "datascope.conf")
	require.NoError(t, os.WriteFile(path, []byte("csv:\n  delimiter: \"${DS_TEST_DELIM}\"\n"), 0o600))

	cfg, err := LoadViper(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, '|', cfg.CSV.DelimiterRune())

	t.Setenv("DS_TEST_DELIM", "")
	_, err = LoadViper(viper.New(), path)
	require.Error(t, err, "an empty variable leaves an empty delimiter")
	assert.Contains(t, err.Error(), "csv.delimiter")
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("DS_A", "x")
	assert.Equal(t, "x-${unterminated", substituteEnvVars("${DS_A}-${unterminated"))
	assert.Equal(t, "-", substituteEnvVars("${DS_UNSET_VAR}-"))
}
