package sqlsource

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/errors"
	"github.com/ajitpratap0/datascope/pkg/table"
)

// fakeRows replays a fixed result set
type fakeRows struct {
	columns []string
	data    [][]interface{}
	pos     int
	err     error
}

func (r *fakeRows) Columns() ([]string, error) { return r.columns, nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	row := r.data[r.pos-1]
	for i := range dest {
		*(dest[i].(*interface{})) = row[i]
	}
	return nil
}

func (r *fakeRows) Err() error { return r.err }

func TestFromRowsTypedValues(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := &fakeRows{
		columns: []string{"id", "score", "name", "active", "seen"},
		data: [][]interface{}{
			{int64(1), 1.5, "ann", true, ts},
			{int64(2), nil, "bob", false, nil},
		},
	}

	tbl, err := FromRows(rows)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())

	want := map[string]table.DType{
		"id": table.Int64, "score": table.Float64, "name": table.Object,
		"active": table.Bool, "seen": table.Object,
	}
	for name, dtype := range want {
		col, ok := tbl.Column(name)
		require.True(t, ok)
		assert.Equal(t, dtype, col.DType(), name)
	}
	seen, _ := tbl.Column("seen")
	assert.Equal(t, "2024-03-01T12:00:00Z", seen.Value(0))
}

func TestFromRowsTextProtocol(t *testing.T) {
	rows := &fakeRows{
		columns: []string{"n", "label"},
		data: [][]interface{}{
			{[]byte("10"), []byte("x")},
			{[]byte("20"), nil},
		},
	}

	tbl, err := FromRows(rows)
	require.NoError(t, err)

	n, _ := tbl.Column("n")
	assert.Equal(t, table.Int64, n.DType())
	assert.Equal(t, []interface{}{int64(10), int64(20)}, n.Values())

	label, _ := tbl.Column("label")
	assert.Equal(t, []interface{}{"x", nil}, label.Values())
}

func TestFromRowsPropagatesErrors(t *testing.T) {
	rows := &fakeRows{columns: []string{"a"}, err: stderrors.New("broken pipe")}
	_, err := FromRows(rows)
	assert.ErrorContains(t, err, "broken pipe")
}

func TestParseConnection(t *testing.T) {
	tests := []struct {
		in     string
		driver string
		dsn    string
	}{
		{"postgres://u:p@localhost:5432/db?sslmode=disable", DriverPostgres, "postgres://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql://localhost/db", DriverPostgres, "postgresql://localhost/db"},
		{"mysql://u:p@db.local/shop", DriverMySQL, "u:p@tcp(db.local:3306)/shop"},
		{"driver=postgres;host=localhost dbname=x", DriverPostgres, "host=localhost dbname=x"},
		{"DRIVER=mysql;u@tcp(h:1)/d", DriverMySQL, "u@tcp(h:1)/d"},
	}
	for _, tt := range tests {
		got, err := ParseConnection(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.driver, got.Driver, tt.in)
		assert.Equal(t, tt.dsn, got.DSN, tt.in)
	}
}

func TestParseConnectionRejects(t *testing.T) {
	for _, in := range []string{"", "sqlite://file.db", "driver=oracle;x", "driver=pgx", "just words"} {
		_, err := ParseConnection(in)
		require.Error(t, err, in)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), in)
	}
}

func TestDBExecutorBadConnection(t *testing.T) {
	exec := NewDBExecutor(config.SQLConfig{}, nil)
	_, err := exec.Query(context.Background(), "SELECT 1", "ftp://nowhere")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
