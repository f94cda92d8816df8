package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultNullValues are the cell spellings read as missing by text readers
var DefaultNullValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Inferrer converts raw cells into typed columns.
//
// Text cells (CSV, spreadsheets) go through FromStrings; already-decoded
// values (JSON, SQL, parquet) go through FromValues. Both apply the same
// promotion rules:
//   - every present value is an integer: int64, or float64 when cells are missing
//   - every present value is a number: float64
//   - every value is a boolean and none is missing: bool
//   - anything else: object
type Inferrer struct {
	nulls map[string]struct{}
}

// NewInferrer creates an inferrer that treats nullValues as missing cells.
// A nil slice selects DefaultNullValues.
func NewInferrer(nullValues []string) *Inferrer {
	if nullValues == nil {
		nullValues = DefaultNullValues
	}
	nulls := make(map[string]struct{}, len(nullValues))
	for _, v := range nullValues {
		nulls[v] = struct{}{}
	}
	return &Inferrer{nulls: nulls}
}

// IsNull reports whether a text cell spells a missing value
func (in *Inferrer) IsNull(cell string) bool {
	_, ok := in.nulls[cell]
	return ok
}

// FromStrings infers a column from text cells
func (in *Inferrer) FromStrings(name string, cells []string) *Column {
	text := make([]*string, len(cells))
	for i := range cells {
		if !in.IsNull(cells[i]) {
			text[i] = &cells[i]
		}
	}
	return FromText(name, text)
}

// FromText infers a column from text cells where nil marks a missing cell.
// No spelling is treated as missing, which suits database text protocols.
func FromText(name string, cells []*string) *Column {
	values := make([]interface{}, len(cells))
	for i, cell := range cells {
		if cell != nil {
			values[i] = parseScalar(*cell)
		}
	}

	col := FromValues(name, values)
	if col.DType() != Object || allBool(col.values) {
		return col
	}

	// Text columns keep the cells as written.
	for i, cell := range cells {
		if cell != nil {
			values[i] = *cell
		}
	}
	return NewColumn(name, Object, values)
}

func allBool(values []interface{}) bool {
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := v.(bool); !ok {
			return false
		}
	}
	return true
}

// FromValues infers a column from decoded values. Supported scalars are nil,
// bool, the Go integer and float kinds, and string; anything else is kept
// as its formatted string in an object column.
func FromValues(name string, raw []interface{}) *Column {
	values := make([]interface{}, len(raw))
	var ints, floats, bools, nulls int

	for i, v := range raw {
		norm := normalizeScalar(v)
		values[i] = norm
		switch x := norm.(type) {
		case nil:
			nulls++
		case int64:
			ints++
		case float64:
			if math.IsNaN(x) {
				values[i] = nil
				nulls++
			} else {
				floats++
			}
		case bool:
			bools++
		}
	}

	present := len(values) - nulls
	switch {
	case len(values) == 0:
		return NewColumn(name, Object, values)
	case present == 0:
		return NewColumn(name, Float64, values)
	case ints == present && nulls == 0:
		return NewColumn(name, Int64, values)
	case ints+floats == present:
		for i, v := range values {
			if n, ok := v.(int64); ok {
				values[i] = float64(n)
			}
		}
		return NewColumn(name, Float64, values)
	case bools == present && nulls == 0:
		return NewColumn(name, Bool, values)
	default:
		return NewColumn(name, Object, values)
	}
}

// parseScalar reads a text cell as int64, float64, bool or string.
func parseScalar(cell string) interface{} {
	trimmed := strings.TrimSpace(cell)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if looksNumeric(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	}
	switch trimmed {
	case "True", "true", "TRUE":
		return true
	case "False", "false", "FALSE":
		return false
	}
	return cell
}

// looksNumeric rejects spellings ParseFloat accepts but text readers should
// keep as strings, such as hex floats and digit separators.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(strings.TrimLeft(s, "+-"))
	switch lower {
	case "inf", "infinity":
		return true
	}
	for _, r := range lower {
		if (r < '0' || r > '9') && r != '.' && r != 'e' && r != '+' && r != '-' {
			return false
		}
	}
	return true
}

// normalizeScalar maps Go scalar kinds onto the cell representation.
func normalizeScalar(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, string, int64, float64:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x)
		}
		return float64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return float64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// UniqueNames makes header names unique the way data-frame readers do:
// blank names become "Unnamed: i" and repeats get ".1", ".2", ... suffixes.
func UniqueNames(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]int, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for {
			if _, taken := used[candidate]; !taken {
				break
			}
			used[name]++
			candidate = name + "." + strconv.Itoa(used[name])
		}
		used[candidate] = 0
		out[i] = candidate
	}
	return out
}
