package formats

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/errors"
	"github.com/ajitpratap0/datascope/pkg/table"
)

func sampleTable() *table.Table {
	return table.MustNew(
		table.NewColumn("A", table.Int64, []interface{}{int64(1), int64(2), int64(3), int64(4), int64(5)}),
		table.NewColumn("B", table.Float64, []interface{}{1.1, 2.2, 3.3, 4.4, nil}),
		table.NewColumn("C", table.Object, []interface{}{"a", "b", "c", "a", "b"}),
		table.NewColumn("D", table.Bool, []interface{}{true, false, true, true, false}),
	)
}

func assertSameTable(t *testing.T, want, got *table.Table) {
	t.Helper()
	require.Equal(t, want.ColumnNames(), got.ColumnNames())
	require.Equal(t, want.NumRows(), got.NumRows())
	for i, col := range want.Columns() {
		other := got.ColumnAt(i)
		assert.Equal(t, col.DType(), other.DType(), "dtype of %s", col.Name())
		assert.Equal(t, col.Values(), other.Values(), "values of %s", col.Name())
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRoundTripAllFormats(t *testing.T) {
	cfg := config.NewDefaultConfig()
	ctx := context.Background()

	for _, format := range []string{"csv", "xlsx", "json", "parquet"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sample."+format)

			w, ok := WriterFor(format, cfg)
			require.True(t, ok)
			require.NoError(t, w.Write(ctx, path, sampleTable()))

			r, ok := ReaderFor(format, cfg)
			require.True(t, ok)
			got, err := r.Read(ctx, path)
			require.NoError(t, err)

			assertSameTable(t, sampleTable(), got)
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	_, ok := ReaderFor("txt", config.NewDefaultConfig())
	assert.False(t, ok)
	_, ok = WriterFor("sql", config.NewDefaultConfig())
	assert.False(t, ok)
}

func TestMissingFileIsIOError(t *testing.T) {
	cfg := config.NewDefaultConfig()
	missing := filepath.Join(t.TempDir(), "nope")

	for _, format := range []string{"csv", "xlsx", "json", "parquet"} {
		t.Run(format, func(t *testing.T) {
			r, _ := ReaderFor(format, cfg)
			_, err := r.Read(context.Background(), missing+"."+format)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeIO), "got %v", err)
		})
	}
}

func TestMalformedFileIsParseError(t *testing.T) {
	cfg := config.NewDefaultConfig()
	tests := []struct {
		format  string
		content string
	}{
		{"parquet", "definitely not parquet"},
		{"xlsx", "not a zip archive"},
		{"json", `{"A": [1, 2`},
		{"csv", ""},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			path := writeFile(t, "bad."+tt.format, tt.content)
			r, _ := ReaderFor(tt.format, cfg)
			_, err := r.Read(context.Background(), path)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeParse), "got %v", err)
		})
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeFile(t, "a.csv", "A\n1\n")
	_, err := NewCSVReader(config.NewDefaultConfig().CSV).Read(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompressedRoundTrip(t *testing.T) {
	cfg := config.NewDefaultConfig()
	ctx := context.Background()

	for _, format := range []string{"csv", "xlsx", "json", "parquet"} {
		for _, suffix := range []string{".gz", ".zst", ".lz4", ".sz", ".s2"} {
			t.Run(format+suffix, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "sample."+format+suffix)

				w, _ := WriterFor(format, cfg)
				require.NoError(t, w.Write(ctx, path, sampleTable()))

				r, _ := ReaderFor(format, cfg)
				got, err := r.Read(ctx, path)
				require.NoError(t, err)
				assertSameTable(t, sampleTable(), got)
			})
		}
	}
}

func TestCorruptCompressedInputIsParseError(t *testing.T) {
	cfg := config.NewDefaultConfig()
	for _, format := range []string{"csv", "xlsx", "json", "parquet"} {
		path := writeFile(t, "bad."+format+".gz", "this is not gzip")
		r, _ := ReaderFor(format, cfg)
		_, err := r.Read(context.Background(), path)
		require.Error(t, err, format)
		assert.True(t, errors.IsType(err, errors.ErrorTypeParse), format)
	}
}
