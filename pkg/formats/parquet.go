package formats

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/table"
)

// ParquetReader reads parquet files through the arrow table reader
type ParquetReader struct {
	pool memory.Allocator
}

// NewParquetReader creates a parquet reader
func NewParquetReader() *ParquetReader {
	return &ParquetReader{pool: memory.NewGoAllocator()}
}

// Read loads the whole file as an arrow table and converts each column.
func (r *ParquetReader) Read(ctx context.Context, path string) (*table.Table, error) {
	src, closeSrc, err := openSeekable(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = closeSrc()
	}()

	fr, err := file.NewParquetReader(src)
	if err != nil {
		return nil, parseError(err, path, "parquet")
	}

	arrowReader, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{}, r.pool)
	if err != nil {
		return nil, parseError(err, path, "parquet")
	}

	tbl, err := arrowReader.ReadTable(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, parseError(err, path, "parquet")
	}
	defer tbl.Release()

	schema := tbl.Schema()
	names := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		names[i] = field.Name
	}
	names = table.UniqueNames(names)

	columns := make([]*table.Column, tbl.NumCols())
	for i := range columns {
		col := tbl.Column(i)
		values := make([]interface{}, 0, tbl.NumRows())
		for _, chunk := range col.Data().Chunks() {
			for j := 0; j < chunk.Len(); j++ {
				values = append(values, extractValue(chunk, j))
			}
		}
		if len(values) == 0 {
			columns[i] = table.NewColumn(names[i], dtypeForArrow(col.DataType()), values)
			continue
		}
		columns[i] = table.FromValues(names[i], values)
	}

	return buildTable(path, "parquet", columns)
}

// extractValue converts one arrow cell into a table cell. Temporal values
// become ISO-8601 strings; nested and exotic types use arrow's rendering.
func extractValue(arr arrow.Array, index int) interface{} {
	if arr.IsNull(index) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(index)
	case *array.Int8:
		return a.Value(index)
	case *array.Int16:
		return a.Value(index)
	case *array.Int32:
		return a.Value(index)
	case *array.Int64:
		return a.Value(index)
	case *array.Uint8:
		return a.Value(index)
	case *array.Uint16:
		return a.Value(index)
	case *array.Uint32:
		return a.Value(index)
	case *array.Uint64:
		return a.Value(index)
	case *array.Float32:
		return a.Value(index)
	case *array.Float64:
		return a.Value(index)
	case *array.String:
		return a.Value(index)
	case *array.LargeString:
		return a.Value(index)
	case *array.Binary:
		return string(a.Value(index))
	case *array.Date32:
		return a.Value(index).ToTime().Format("2006-01-02")
	case *array.Date64:
		return a.Value(index).ToTime().Format("2006-01-02")
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(index).ToTime(unit).UTC().Format(time.RFC3339Nano)
	default:
		return arr.ValueStr(index)
	}
}

func dtypeForArrow(dt arrow.DataType) table.DType {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return table.Int64
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return table.Float64
	case arrow.BOOL:
		return table.Bool
	default:
		return table.Object
	}
}

// ParquetWriter writes a table as a single row group
type ParquetWriter struct {
	compression compress.Compression
}

// NewParquetWriter creates a parquet writer using the configured codec
func NewParquetWriter(cfg config.ParquetConfig) *ParquetWriter {
	return &ParquetWriter{compression: codecFor(cfg.Compression)}
}

func codecFor(name string) compress.Compression {
	switch name {
	case "none":
		return compress.Codecs.Uncompressed
	case "gzip":
		return compress.Codecs.Gzip
	case "zstd":
		return compress.Codecs.Zstd
	default:
		return compress.Codecs.Snappy
	}
}

// Write serializes t to path
func (w *ParquetWriter) Write(ctx context.Context, path string, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fields := make([]arrow.Field, t.NumColumns())
	for i, col := range t.Columns() {
		fields[i] = arrow.Field{Name: col.Name(), Type: arrowType(col.DType()), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	pool := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	for i, col := range t.Columns() {
		for j := 0; j < col.Len(); j++ {
			if err := appendValue(builder.Field(i), col.Value(j)); err != nil {
				return writeError(fmt.Errorf("column %s: %w", col.Name(), err), path, "parquet")
			}
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(w.compression))
	fw, err := pqarrow.NewFileWriter(schema, &buf, props, pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(pool)))
	if err != nil {
		return writeError(err, path, "parquet")
	}
	if err := fw.Write(record); err != nil {
		_ = fw.Close()
		return writeError(err, path, "parquet")
	}
	if err := fw.Close(); err != nil {
		return writeError(err, path, "parquet")
	}

	if err := writeOutput(path, writeBytes(buf.Bytes())); err != nil {
		return writeError(err, path, "parquet")
	}
	return nil
}

func arrowType(d table.DType) arrow.DataType {
	switch d {
	case table.Int64:
		return arrow.PrimitiveTypes.Int64
	case table.Float64:
		return arrow.PrimitiveTypes.Float64
	case table.Bool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func appendValue(b array.Builder, value interface{}) error {
	if value == nil {
		b.AppendNull()
		return nil
	}

	switch builder := b.(type) {
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		builder.Append(v)
	case *array.Int64Builder:
		v, ok := value.(int64)
		if !ok {
			return fmt.Errorf("expected int64, got %T", value)
		}
		builder.Append(v)
	case *array.Float64Builder:
		switch v := value.(type) {
		case float64:
			builder.Append(v)
		case int64:
			builder.Append(float64(v))
		default:
			return fmt.Errorf("expected float64, got %T", value)
		}
	case *array.StringBuilder:
		if v, ok := value.(string); ok {
			builder.Append(v)
		} else {
			builder.Append(FormatCell(value))
		}
	default:
		return fmt.Errorf("unsupported builder type: %T", b)
	}
	return nil
}
