package table

import (
	"math"
)

// DType is the single inferred type of every cell in a column.
type DType string

const (
	// Int64 holds int64 values
	Int64 DType = "int64"
	// Float64 holds float64 values; NaN is treated as missing
	Float64 DType = "float64"
	// Bool holds bool values and never contains missing cells
	Bool DType = "bool"
	// Object holds strings or mixed values
	Object DType = "object"
)

// IsNumeric reports whether the type takes part in summary statistics and
// correlations. Booleans are deliberately not numeric.
func (d DType) IsNumeric() bool {
	return d == Int64 || d == Float64
}

// Column is a named, typed sequence of cells. A nil cell is missing.
//
// Cell representation by type:
//   - Int64: int64
//   - Float64: float64
//   - Bool: bool
//   - Object: string, or any scalar when the column mixes types
type Column struct {
	name   string
	dtype  DType
	values []interface{}
}

// NewColumn creates a column. Values must already match dtype; NaN floats
// are normalized to nil.
func NewColumn(name string, dtype DType, values []interface{}) *Column {
	normalized := make([]interface{}, len(values))
	for i, v := range values {
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			continue
		}
		normalized[i] = v
	}
	return &Column{name: name, dtype: dtype, values: normalized}
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// DType returns the column type
func (c *Column) DType() DType { return c.dtype }

// Len returns the number of cells
func (c *Column) Len() int { return len(c.values) }

// Value returns the cell at row i, nil when missing
func (c *Column) Value(i int) interface{} { return c.values[i] }

// IsNull reports whether the cell at row i is missing
func (c *Column) IsNull(i int) bool { return c.values[i] == nil }

// Values returns a copy of the cells
func (c *Column) Values() []interface{} {
	out := make([]interface{}, len(c.values))
	copy(out, c.values)
	return out
}

// NullCount returns the number of missing cells
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.values {
		if v == nil {
			n++
		}
	}
	return n
}

// Float returns the cell at row i as float64. ok is false for missing cells
// and for cells of non-numeric columns.
func (c *Column) Float(i int) (float64, bool) {
	switch v := c.values[i].(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// DistinctCount returns the number of distinct non-missing values.
func (c *Column) DistinctCount() int {
	seen := make(map[string]struct{}, len(c.values))
	for _, v := range c.values {
		if v == nil {
			continue
		}
		seen[cellKey(v)] = struct{}{}
	}
	return len(seen)
}

// memoryUsage approximates the deep size of the column in bytes: fixed-width
// storage for typed columns, string headers plus content for object columns,
// and a validity bitmap.
func (c *Column) memoryUsage() int64 {
	n := int64(len(c.values))
	bitmap := (n + 7) / 8

	switch c.dtype {
	case Int64, Float64:
		return 8*n + bitmap
	case Bool:
		return n + bitmap
	}

	var total int64
	for _, v := range c.values {
		switch s := v.(type) {
		case nil:
			total += 8
		case string:
			total += 16 + int64(len(s))
		default:
			total += 16
		}
	}
	return total + bitmap
}
