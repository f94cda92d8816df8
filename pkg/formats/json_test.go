package formats

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/table"
)

func TestJSONReaderOrients(t *testing.T) {
	tests := []struct {
		name    string
		orient  string
		content string
	}{
		{"columns", OrientAuto, `{"A":{"0":1,"1":2},"B":{"0":"x","1":null}}`},
		{"dict of lists", OrientAuto, `{"A":[1,2],"B":["x",null]}`},
		{"records", OrientAuto, `[{"A":1,"B":"x"},{"A":2}]`},
		{"split", OrientAuto, `{"columns":["A","B"],"index":[0,1],"data":[[1,"x"],[2,null]]}`},
		{"lines", OrientLines, "{\"A\":1,\"B\":\"x\"}\n{\"A\":2,\"B\":null}\n"},
		{"lines detected", OrientAuto, "{\"A\":1,\"B\":\"x\"}\n{\"A\":2,\"B\":null}\n"},
		{"explicit records", OrientRecords, `[{"A":1,"B":"x"},{"A":2,"B":null}]`},
		{"explicit split", OrientSplit, `{"columns":["A","B"],"data":[[1,"x"],[2]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "data.json", tt.content)
			tbl, err := NewJSONReader(config.JSONConfig{Orient: tt.orient}).Read(context.Background(), path)
			require.NoError(t, err)

			require.Equal(t, []string{"A", "B"}, tbl.ColumnNames())
			a, _ := tbl.Column("A")
			assert.Equal(t, table.Int64, a.DType())
			assert.Equal(t, []interface{}{int64(1), int64(2)}, a.Values())
			b, _ := tbl.Column("B")
			assert.Equal(t, []interface{}{"x", nil}, b.Values())
		})
	}
}

func TestJSONReaderValuesOrient(t *testing.T) {
	path := writeFile(t, "v.json", `[[1,2.5],[3,true]]`)
	tbl, err := NewJSONReader(config.JSONConfig{}).Read(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1"}, tbl.ColumnNames())
	second, _ := tbl.Column("1")
	assert.Equal(t, table.Object, second.DType())
}

func TestJSONReaderNestedValuesBecomeText(t *testing.T) {
	path := writeFile(t, "n.json", `[{"A":{"k":[1,2]}},{"A":null}]`)
	tbl, err := NewJSONReader(config.JSONConfig{}).Read(context.Background(), path)
	require.NoError(t, err)

	a, _ := tbl.Column("A")
	assert.Equal(t, []interface{}{`{"k":[1,2]}`, nil}, a.Values())
}

func TestJSONReaderEmptyDocuments(t *testing.T) {
	for _, content := range []string{`{}`, `[]`} {
		path := writeFile(t, "e.json", content)
		tbl, err := NewJSONReader(config.JSONConfig{}).Read(context.Background(), path)
		require.NoError(t, err)
		assert.True(t, tbl.Empty())
	}
}

func TestJSONReaderRejectsBadShapes(t *testing.T) {
	tests := []string{
		`{"A":1,"B":2}`,
		`{"A":[1,2],"B":[1]}`,
		`"scalar"`,
	}
	for _, content := range tests {
		path := writeFile(t, "bad.json", content)
		_, err := NewJSONReader(config.JSONConfig{}).Read(context.Background(), path)
		assert.Error(t, err, content)
	}
}

func TestJSONWriterOrientsRoundTrip(t *testing.T) {
	for _, orient := range []string{OrientColumns, OrientRecords, OrientSplit, OrientLines} {
		t.Run(orient, func(t *testing.T) {
			cfg := config.JSONConfig{Orient: orient}
			path := filepath.Join(t.TempDir(), "out.json")
			require.NoError(t, NewJSONWriter(cfg).Write(context.Background(), path, sampleTable()))

			got, err := NewJSONReader(cfg).Read(context.Background(), path)
			require.NoError(t, err)
			assertSameTable(t, sampleTable(), got)
		})
	}
}
