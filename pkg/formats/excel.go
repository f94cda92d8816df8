package formats

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/table"
)

// ExcelReader reads one worksheet of an .xlsx workbook
type ExcelReader struct {
	cfg      config.ExcelConfig
	inferrer *table.Inferrer
}

// NewExcelReader creates a workbook reader
func NewExcelReader(cfg config.ExcelConfig) *ExcelReader {
	return &ExcelReader{
		cfg:      cfg,
		inferrer: table.NewInferrer(cfg.NullValues),
	}
}

// Read parses the configured sheet, or the first sheet when none is set.
// Leading empty rows are skipped and the next row is the header.
func (r *ExcelReader) Read(ctx context.Context, path string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wb, err := excelize.OpenReader(f)
	if err != nil {
		return nil, parseError(err, path, "xlsx")
	}
	defer func() {
		_ = wb.Close()
	}()

	sheet := r.cfg.Sheet
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, parseError(stderrors.New("no sheets found in workbook"), path, "xlsx")
		}
		sheet = sheets[0]
	}

	iter, err := wb.Rows(sheet)
	if err != nil {
		return nil, parseError(fmt.Errorf("sheet %s: %w", sheet, err), path, "xlsx")
	}
	defer func() {
		_ = iter.Close()
	}()

	// Raw values keep numbers at full precision instead of the cell's
	// display format.
	var (
		header  []string
		rows    [][]string
		rowNums []int
	)
	for rowNum := 1; iter.Next(); rowNum++ {
		row, err := iter.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, parseError(fmt.Errorf("sheet %s: %w", sheet, err), path, "xlsx")
		}
		if header == nil {
			if len(row) == 0 {
				continue
			}
			header = row
			continue
		}
		rows = append(rows, row)
		rowNums = append(rowNums, rowNum)
	}
	if err := iter.Error(); err != nil {
		return nil, parseError(err, path, "xlsx")
	}

	if header == nil {
		return nil, parseError(fmt.Errorf("sheet %s is empty", sheet), path, "xlsx")
	}
	if err := restoreBools(wb, sheet, rows, rowNums); err != nil {
		return nil, parseError(fmt.Errorf("sheet %s: %w", sheet, err), path, "xlsx")
	}

	// Cells to the right of the header get generated names.
	for _, row := range rows {
		for len(header) < len(row) {
			header = append(header, "")
		}
	}
	header = table.UniqueNames(header)

	columns := make([]*table.Column, len(header))
	for colIdx, name := range header {
		cells := make([]string, len(rows))
		for rowIdx, row := range rows {
			if colIdx < len(row) {
				cells[rowIdx] = row[colIdx]
			}
		}
		columns[colIdx] = r.inferrer.FromStrings(name, cells)
	}

	return buildTable(path, "xlsx", columns)
}

// restoreBools rewrites boolean cells, which raw reads return as 0 and 1,
// to TRUE and FALSE. Only the cell type tells them apart from numbers.
func restoreBools(wb *excelize.File, sheet string, rows [][]string, rowNums []int) error {
	for i, row := range rows {
		for j, v := range row {
			if v != "0" && v != "1" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, rowNums[i])
			if err != nil {
				return err
			}
			typ, err := wb.GetCellType(sheet, cell)
			if err != nil {
				return err
			}
			if typ != excelize.CellTypeBool {
				continue
			}
			if v == "1" {
				row[j] = "TRUE"
			} else {
				row[j] = "FALSE"
			}
		}
	}
	return nil
}

// ExcelWriter writes a table to a single-sheet workbook
type ExcelWriter struct {
	sheet string
}

// NewExcelWriter creates a workbook writer. An empty sheet name selects
// the excelize default.
func NewExcelWriter(cfg config.ExcelConfig) *ExcelWriter {
	return &ExcelWriter{sheet: cfg.Sheet}
}

// Write saves t with the column names in the first row
func (w *ExcelWriter) Write(ctx context.Context, path string, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := excelize.NewFile()
	defer func() {
		_ = wb.Close()
	}()

	sheet := wb.GetSheetName(0)
	if w.sheet != "" && w.sheet != sheet {
		if err := wb.SetSheetName(sheet, w.sheet); err != nil {
			return writeError(err, path, "xlsx")
		}
		sheet = w.sheet
	}

	header := make([]interface{}, t.NumColumns())
	for i, name := range t.ColumnNames() {
		header[i] = name
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return writeError(err, path, "xlsx")
	}

	for i := 0; i < t.NumRows(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return writeError(err, path, "xlsx")
		}
		row := t.Row(i)
		for j, v := range row {
			if v == nil {
				row[j] = ""
			}
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return writeError(err, path, "xlsx")
		}
	}

	err := writeOutput(path, func(out io.Writer) error {
		_, err := wb.WriteTo(out)
		return err
	})
	if err != nil {
		return writeError(err, path, "xlsx")
	}
	return nil
}
