package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/errors"
	"github.com/ajitpratap0/datascope/pkg/formats"
	"github.com/ajitpratap0/datascope/pkg/json"
	"github.com/ajitpratap0/datascope/pkg/table"
)

// execute runs the CLI with args and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var traces bytes.Buffer
	a := &app{viper: viper.New(), traceOut: &traces}
	root := newRootCmd(a)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()
	if closeErr := a.close(context.Background()); err == nil {
		err = closeErr
	}
	return out.String(), err
}

func writeFixture(t *testing.T, name string, tbl *table.Table) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	format := filepath.Ext(name)[1:]
	w, ok := formats.WriterFor(format, config.NewDefaultConfig())
	require.True(t, ok)
	require.NoError(t, w.Write(context.Background(), path, tbl))
	return path
}

func fixture() *table.Table {
	return table.MustNew(
		table.NewColumn("A", table.Int64, []interface{}{int64(1), int64(2), int64(3), int64(4), int64(5)}),
		table.NewColumn("B", table.Float64, []interface{}{1.1, 2.2, 3.3, 4.4, nil}),
		table.NewColumn("C", table.Object, []interface{}{"a", "b", "c", "a", "b"}),
	)
}

func TestVersionAndFormats(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "datascope v"+version)

	out, err = execute(t, "formats")
	require.NoError(t, err)
	for _, f := range []string{"csv", "xlsx", "json", "parquet"} {
		assert.Contains(t, out, "  - "+f+"\n")
	}
}

func TestValidateReportsDiagnostics(t *testing.T) {
	path := writeFixture(t, "data.csv", fixture())

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(csv): 5 rows x 3 columns")
	assert.Contains(t, out, "Warning: The DataFrame contains missing values")
}

func TestValidateErrors(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "data.txt"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedFormat))

	_, err = execute(t, "validate", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("a,b\n"), 0o600))
	_, err = execute(t, "validate", empty)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEmptyDataset))
}

func TestProfileJSON(t *testing.T) {
	path := writeFixture(t, "data.parquet", fixture())

	out, err := execute(t, "profile", path)
	require.NoError(t, err)

	var report struct {
		Diagnostics []map[string]interface{} `json:"diagnostics"`
		Profile     map[string]interface{}   `json:"profile"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, "missing_values", report.Diagnostics[0]["code"])

	prof := report.Profile
	for _, key := range []string{"basic_info", "summary_stats", "missing_values", "unique_values", "data_types", "correlations"} {
		assert.Contains(t, prof, key)
	}
}

func TestProfileText(t *testing.T) {
	path := writeFixture(t, "data.json", fixture())

	out, err := execute(t, "profile", "--format", "text", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: The DataFrame contains missing values")
	assert.Contains(t, out, "== summary_stats")

	_, err = execute(t, "profile", "--format", "yaml", path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestConvert(t *testing.T) {
	in := writeFixture(t, "data.xlsx", fixture())
	out := filepath.Join(t.TempDir(), "data.parquet")

	stdout, err := execute(t, "convert", in, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote")

	got, err := formats.NewParquetReader().Read(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, got.ColumnNames())
	assert.Equal(t, 5, got.NumRows())

	gz := filepath.Join(t.TempDir(), "data.csv.gz")
	_, err = execute(t, "convert", out, gz)
	require.Error(t, err, "compression suffixes need --compressed")
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedFormat))

	_, err = execute(t, "--compressed", "convert", out, gz)
	require.NoError(t, err)
	stdout, err = execute(t, "--compressed", "validate", gz)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(csv): 5 rows x 3 columns")

	_, err = execute(t, "validate", gz)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedFormat))
	assert.Contains(t, err.Error(), "Unsupported file format: gz")

	_, err = execute(t, "convert", in, filepath.Join(t.TempDir(), "data.avro"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedFormat))
}

func TestSQLRejectsBadConnection(t *testing.T) {
	_, err := execute(t, "sql", "--connection", "ftp://nowhere", "--query", "SELECT 1")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSQL))

	_, err = execute(t, "sql", "--connection", "ftp://nowhere")
	assert.Error(t, err)
}

func TestConfigInitAndLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "datascope.yaml")

	out, err := execute(t, "config", "init", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, cfgPath)

	path := writeFixture(t, "data.csv", fixture())
	_, err = execute(t, "--config", cfgPath, "validate", path)
	assert.NoError(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("csv:\n  delimiter: \"\"\n"), 0o600))
	_, err = execute(t, "--config", bad, "validate", path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestMetricsFile(t *testing.T) {
	path := writeFixture(t, "data.csv", fixture())
	metricsPath := filepath.Join(t.TempDir(), "metrics.prom")

	_, err := execute(t, "--metrics-file", metricsPath, "validate", path)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `datascope_files_ingested_total{format="csv",status="success"} 1`)
	assert.Contains(t, string(data), "datascope_diagnostics_total")
}

func TestTraceFlag(t *testing.T) {
	path := writeFixture(t, "data.csv", fixture())
	_, err := execute(t, "--trace", "validate", path)
	assert.NoError(t, err)
}
