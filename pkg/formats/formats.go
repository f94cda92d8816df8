// Package formats reads and writes tables in the supported file formats.
//
// Each format has a Reader that parses a file into a *table.Table and a
// Writer that serializes a table back to disk:
//
//   - csv: encoding/csv with configurable delimiter, comments and null tokens
//   - xlsx: excelize, one worksheet per table, first row is the header
//   - json: goccy/go-json token decoding of the common data-frame layouts
//   - parquet: arrow-go pqarrow
//
// A path ending in a compression suffix (.gz, .zst, .lz4, .sz, .s2) is
// decompressed on read and compressed on write.
//
// Readers never return a bare library error. Failures to open or stat the
// file are *errors.Error of type io; content the parser rejects is type
// parse. The original error is kept as the cause.
package formats

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"

	"github.com/ajitpratap0/datascope/pkg/compression"
	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/errors"
	"github.com/ajitpratap0/datascope/pkg/table"
)

// Reader parses a file into a table
type Reader interface {
	Read(ctx context.Context, path string) (*table.Table, error)
}

// Writer serializes a table to a file
type Writer interface {
	Write(ctx context.Context, path string, t *table.Table) error
}

// ReaderFunc adapts a function to the Reader interface
type ReaderFunc func(ctx context.Context, path string) (*table.Table, error)

// Read calls f(ctx, path)
func (f ReaderFunc) Read(ctx context.Context, path string) (*table.Table, error) {
	return f(ctx, path)
}

// openFile opens path for reading, returning an io error on failure.
// Compressed files are decompressed as they are read.
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // G304: reading caller-chosen paths is the point
	if err != nil {
		return nil, ioError(err, path)
	}

	algo, _ := compression.FromPath(path)
	if algo == compression.None {
		return f, nil
	}
	r, err := compression.NewReader(bufio.NewReader(f), algo)
	if err != nil {
		_ = f.Close()
		return nil, parseError(err, path, string(algo))
	}
	return &decompressingFile{ReadCloser: r, file: f}, nil
}

type decompressingFile struct {
	io.ReadCloser
	file *os.File
}

func (d *decompressingFile) Close() error {
	err := d.ReadCloser.Close()
	if ferr := d.file.Close(); err == nil {
		err = ferr
	}
	return err
}

// openSeekable returns random access to the decompressed content of path.
// Plain files are used directly; compressed ones are inflated into memory.
func openSeekable(path string) (interface {
	io.ReaderAt
	io.ReadSeeker
}, func() error, error) {
	rc, err := openFile(path)
	if err != nil {
		return nil, nil, err
	}
	if f, ok := rc.(*os.File); ok {
		return f, f.Close, nil
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		algo, _ := compression.FromPath(path)
		return nil, nil, parseError(err, path, string(algo))
	}
	return bytes.NewReader(data), func() error { return nil }, nil
}

// writeOutput creates path and hands write a destination, compressing
// through it when path carries a compression suffix.
func writeOutput(path string, write func(io.Writer) error) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return err
	}

	algo, _ := compression.FromPath(path)
	cw, err := compression.NewWriter(f, algo, compression.Default)
	if err != nil {
		_ = f.Close()
		return err
	}

	bw := bufio.NewWriter(cw)
	if err := write(bw); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func ioError(err error, path string) error {
	return errors.Wrap(err, errors.ErrorTypeIO, "failed to open file").WithDetail("path", path)
}

func parseError(err error, path, format string) error {
	return errors.Wrap(err, errors.ErrorTypeParse, "failed to parse "+format).
		WithDetail("path", path).
		WithDetail("format", format)
}

// writeError wraps a failure to produce an output file.
func writeError(err error, path, format string) error {
	return errors.Wrap(err, errors.ErrorTypeIO, "failed to write "+format).WithDetail("path", path)
}

// buildTable assembles a table and reports inconsistencies as parse errors.
func buildTable(path, format string, columns []*table.Column) (*table.Table, error) {
	t, err := table.New(columns...)
	if err != nil {
		return nil, parseError(err, path, format)
	}
	return t, nil
}

// ReaderFor returns the reader for a format name (csv, xlsx, json, parquet)
func ReaderFor(format string, cfg *config.Config) (Reader, bool) {
	switch format {
	case "csv":
		return NewCSVReader(cfg.CSV), true
	case "xlsx":
		return NewExcelReader(cfg.Excel), true
	case "json":
		return NewJSONReader(cfg.JSON), true
	case "parquet":
		return NewParquetReader(), true
	}
	return nil, false
}

// WriterFor returns the writer for a format name
func WriterFor(format string, cfg *config.Config) (Writer, bool) {
	switch format {
	case "csv":
		return NewCSVWriter(cfg.CSV), true
	case "xlsx":
		return NewExcelWriter(cfg.Excel), true
	case "json":
		return NewJSONWriter(cfg.JSON), true
	case "parquet":
		return NewParquetWriter(cfg.Parquet), true
	}
	return nil, false
}

func writeBytes(data []byte) func(io.Writer) error {
	return func(out io.Writer) error {
		_, err := out.Write(data)
		return err
	}
}
