package ingest

import (
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/datascope/pkg/compression"
	"github.com/ajitpratap0/datascope/pkg/errors"
)

// Format is a file format tag
type Format string

const (
	// FormatCSV is delimited text
	FormatCSV Format = "csv"
	// FormatXLSX is an Excel workbook
	FormatXLSX Format = "xlsx"
	// FormatJSON is a JSON document or JSON Lines file
	FormatJSON Format = "json"
	// FormatParquet is an Apache Parquet file
	FormatParquet Format = "parquet"
	// FormatSQL is reserved for database sources; files never carry it.
	// Reading it through Read fails with a not_implemented error.
	FormatSQL Format = "sql"
)

// SupportedFormats lists the file formats with a registered reader
func SupportedFormats() []Format {
	return []Format{FormatCSV, FormatXLSX, FormatJSON, FormatParquet}
}

func (f Format) String() string { return string(f) }

// Supported reports whether f is a readable file format
func (f Format) Supported() bool {
	switch f {
	case FormatCSV, FormatXLSX, FormatJSON, FormatParquet:
		return true
	}
	return false
}

// DetectFormat returns the format named by path's last extension, compared
// case-insensitively. Leading dots of the base name do not start an
// extension, so ".csv" has none. data.csv.gz is reported as the
// unsupported format "gz"; see DetectFormatCompressed.
func DetectFormat(path string) (Format, error) {
	return formatOf(path, path)
}

// DetectFormatCompressed is DetectFormat for inputs that may carry a
// compression suffix: data.csv.gz is csv and events.json.zst is json.
func DetectFormatCompressed(path string) (Format, error) {
	_, inner := compression.FromPath(path)
	return formatOf(inner, path)
}

func formatOf(name, path string) (Format, error) {
	ext := extension(name)
	format := Format(ext)
	if !format.Supported() {
		return "", errors.Newf(errors.ErrorTypeUnsupportedFormat, "Unsupported file format: %s", ext).
			WithDetail("path", path)
	}
	return format, nil
}

// extension returns the lowercased text after the last dot of the base
// name, ignoring leading dots.
func extension(path string) string {
	base := strings.TrimLeft(filepath.Base(path), ".")
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
}
