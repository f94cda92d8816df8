package formats

import (
	"bufio"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/table"
)

const utf8BOM = "\ufeff"

// CSVReader reads delimited text files
type CSVReader struct {
	cfg      config.CSVConfig
	inferrer *table.Inferrer
}

// NewCSVReader creates a CSV reader
func NewCSVReader(cfg config.CSVConfig) *CSVReader {
	return &CSVReader{
		cfg:      cfg,
		inferrer: table.NewInferrer(cfg.NullValues),
	}
}

// Read parses the file at path. Rows shorter than the header are padded
// with missing cells; rows longer than the header are a parse error.
func (r *CSVReader) Read(ctx context.Context, path string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReader(f))
	reader.Comma = r.cfg.DelimiterRune()
	reader.Comment = r.cfg.CommentRune()
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = r.cfg.TrimSpaces

	records, err := reader.ReadAll()
	if err != nil {
		return nil, parseError(err, path, "csv")
	}

	if r.cfg.SkipRows > 0 {
		if r.cfg.SkipRows >= len(records) {
			records = nil
		} else {
			records = records[r.cfg.SkipRows:]
		}
	}

	if len(records) == 0 {
		return nil, parseError(stderrors.New("no columns to parse from file"), path, "csv")
	}

	var header []string
	if r.cfg.HasHeader {
		header = records[0]
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
		records = records[1:]
	} else {
		header = make([]string, len(records[0]))
		for i := range header {
			header[i] = strconv.Itoa(i)
		}
	}
	header = table.UniqueNames(header)

	cells := make([][]string, len(header))
	for i := range cells {
		cells[i] = make([]string, len(records))
	}
	for rowIdx, record := range records {
		if len(record) > len(header) {
			return nil, parseError(
				fmt.Errorf("expected %d fields in line %d, saw %d", len(header), rowIdx+2, len(record)),
				path, "csv")
		}
		for colIdx := range header {
			if colIdx < len(record) {
				cells[colIdx][rowIdx] = r.trim(record[colIdx])
			}
		}
	}

	columns := make([]*table.Column, len(header))
	for i, name := range header {
		columns[i] = r.inferrer.FromStrings(name, cells[i])
	}

	return buildTable(path, "csv", columns)
}

func (r *CSVReader) trim(cell string) string {
	if r.cfg.TrimSpaces {
		return strings.TrimSpace(cell)
	}
	return cell
}

// CSVWriter writes delimited text files
type CSVWriter struct {
	cfg config.CSVConfig
}

// NewCSVWriter creates a CSV writer
func NewCSVWriter(cfg config.CSVConfig) *CSVWriter {
	return &CSVWriter{cfg: cfg}
}

// Write serializes t with a header row. Missing cells are written empty.
func (w *CSVWriter) Write(ctx context.Context, path string, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeOutput(path, func(out io.Writer) error { return w.encode(out, t) }); err != nil {
		return writeError(err, path, "csv")
	}
	return nil
}

func (w *CSVWriter) encode(out io.Writer, t *table.Table) error {
	cw := csv.NewWriter(out)
	cw.Comma = w.cfg.DelimiterRune()

	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}

	record := make([]string, t.NumColumns())
	for i := 0; i < t.NumRows(); i++ {
		for j, v := range t.Row(i) {
			record[j] = FormatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatCell renders a cell as text so that reading it back infers the
// same type: floats always carry a decimal point or exponent and booleans
// are spelled True/False.
func FormatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
