// Package table provides the in-memory rectangular dataset that format
// readers produce and the validator and profiler consume.
//
// A Table is an ordered set of equally long, named columns. Each column holds
// a single inferred DType (int64, float64, bool or object) and may contain
// missing cells. Tables are not copied between components: the caller that
// ingests a file owns the table and profilers only borrow it.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ajitpratap0/datascope/pkg/errors"
)

// Table is an in-memory dataset with named, typed columns
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates a table from columns. Columns must have unique names and equal
// lengths.
func New(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, col := range columns {
		if _, dup := t.index[col.Name()]; dup {
			return nil, errors.Newf(errors.ErrorTypeValidation, "duplicate column name %q", col.Name())
		}
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q has %d rows, expected %d", col.Name(), col.Len(), t.rows)
		}
		t.index[col.Name()] = i
		t.columns = append(t.columns, col)
	}

	return t, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns
func (t *Table) NumColumns() int { return len(t.columns) }

// Empty reports whether the table has no rows
func (t *Table) Empty() bool { return t.rows == 0 }

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name()
	}
	return names
}

// Columns returns the columns in order
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnAt returns the i-th column
func (t *Table) ColumnAt(i int) *Column { return t.columns[i] }

// Row returns the cells of row i in column order
func (t *Table) Row(i int) []interface{} {
	row := make([]interface{}, len(t.columns))
	for j, col := range t.columns {
		row[j] = col.Value(i)
	}
	return row
}

// HasNulls reports whether any cell in any column is missing
func (t *Table) HasNulls() bool {
	for _, col := range t.columns {
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				return true
			}
		}
	}
	return false
}

// NullCount returns the number of missing cells across the table
func (t *Table) NullCount() int {
	n := 0
	for _, col := range t.columns {
		n += col.NullCount()
	}
	return n
}

// DuplicateRowCount counts rows that are identical to an earlier row.
// Missing cells compare equal to each other.
func (t *Table) DuplicateRowCount() int {
	if len(t.columns) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, t.rows)
	dups := 0
	var sb strings.Builder
	for i := 0; i < t.rows; i++ {
		sb.Reset()
		for _, col := range t.columns {
			sb.WriteString(cellKey(col.Value(i)))
			sb.WriteByte(0x1f)
		}
		key := sb.String()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// MemoryUsage returns the approximate deep memory footprint in bytes
func (t *Table) MemoryUsage() int64 {
	var total int64
	for _, col := range t.columns {
		total += col.memoryUsage()
	}
	return total
}

// cellKey encodes a cell so that equal values of the same kind produce equal
// keys and strings cannot collide with separators.
func cellKey(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "n"
	case int64:
		return "i" + strconv.FormatInt(x, 10)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return "i" + strconv.FormatInt(int64(x), 10)
		}
		return "f" + strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "bt"
		}
		return "bf"
	case string:
		return "s" + strconv.Itoa(len(x)) + ":" + x
	default:
		s := fmt.Sprintf("%v", x)
		return "o" + strconv.Itoa(len(s)) + ":" + s
	}
}
