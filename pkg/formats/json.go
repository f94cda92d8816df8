package formats

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/ajitpratap0/datascope/pkg/config"
	"github.com/ajitpratap0/datascope/pkg/json"
	"github.com/ajitpratap0/datascope/pkg/table"
)

// JSON document layouts
const (
	OrientAuto    = "auto"
	OrientColumns = "columns"
	OrientRecords = "records"
	OrientSplit   = "split"
	OrientValues  = "values"
	OrientLines   = "lines"
)

// JSONReader reads JSON documents laid out in one of the data-frame orients:
//
//	columns  {"A":{"0":1,"1":2},"B":{"0":3,"1":4}}
//	         {"A":[1,2],"B":[3,4]} (dict of lists)
//	records  [{"A":1,"B":3},{"A":2,"B":4}]
//	split    {"columns":["A","B"],"index":[0,1],"data":[[1,3],[2,4]]}
//	values   [[1,3],[2,4]]
//	lines    one record object per line
//
// In auto mode the layout is detected from the document shape.
type JSONReader struct {
	orient string
}

// NewJSONReader creates a JSON reader
func NewJSONReader(cfg config.JSONConfig) *JSONReader {
	orient := cfg.Orient
	if orient == "" {
		orient = OrientAuto
	}
	return &JSONReader{orient: orient}
}

// Read parses the document at path
func (r *JSONReader) Read(ctx context.Context, path string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReader(f))
	var docs []interface{}
	for {
		v, err := decodeValue(dec)
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err, path, "json")
		}
		docs = append(docs, v)
	}
	if len(docs) == 0 {
		return nil, parseError(stderrors.New("no JSON value found"), path, "json")
	}

	columns, err := r.columns(docs)
	if err != nil {
		return nil, parseError(err, path, "json")
	}
	return buildTable(path, "json", columns)
}

func (r *JSONReader) columns(docs []interface{}) ([]*table.Column, error) {
	if r.orient == OrientLines || (r.orient == OrientAuto && len(docs) > 1) {
		return fromRecords(docs)
	}
	if len(docs) > 1 {
		return nil, fmt.Errorf("trailing data after %s document", r.orient)
	}
	doc := docs[0]

	switch r.orient {
	case OrientAuto:
		return fromAuto(doc)
	case OrientColumns:
		return fromColumns(doc)
	case OrientRecords:
		items, ok := doc.([]interface{})
		if !ok {
			return nil, stderrors.New("records orient expects an array of objects")
		}
		return fromRecords(items)
	case OrientSplit:
		obj, ok := doc.(*orderedObject)
		if !ok {
			return nil, stderrors.New("split orient expects an object")
		}
		return fromSplit(obj)
	case OrientValues:
		items, ok := doc.([]interface{})
		if !ok {
			return nil, stderrors.New("values orient expects an array of arrays")
		}
		return fromRows(items)
	default:
		return nil, fmt.Errorf("unknown orient %q", r.orient)
	}
}

// orderedObject is a decoded JSON object that remembers key order.
type orderedObject struct {
	keys   []string
	values map[string]interface{}
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &orderedObject{values: make(map[string]interface{})}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, unexpectedEOF(err)
				}
				if _, seen := obj.values[key]; !seen {
					obj.keys = append(obj.keys, key)
				}
				obj.values[key] = v
			}
			if _, err := dec.Token(); err != nil {
				return nil, unexpectedEOF(err)
			}
			return obj, nil
		case '[':
			arr := make([]interface{}, 0)
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, unexpectedEOF(err)
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, unexpectedEOF(err)
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		return numberValue(t), nil
	default:
		return t, nil
	}
}

// unexpectedEOF turns an EOF inside a value into a real error so the
// top-level loop does not mistake it for end of input.
func unexpectedEOF(err error) error {
	if stderrors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func numberValue(n json.Number) interface{} {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(string(n), 64); err == nil {
		return f
	}
	return string(n)
}

// cellValue flattens nested documents into their compact JSON text.
func cellValue(v interface{}) interface{} {
	switch v.(type) {
	case *orderedObject, []interface{}:
		var buf bytes.Buffer
		if err := writeNested(&buf, v); err != nil {
			return fmt.Sprintf("%v", v)
		}
		return buf.String()
	default:
		return v
	}
}

func writeNested(buf *bytes.Buffer, v interface{}) error {
	switch x := v.(type) {
	case *orderedObject:
		buf.WriteByte('{')
		for i, k := range x.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeNested(buf, x.values[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNested(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		return writeCell(buf, x)
	}
}

func fromAuto(doc interface{}) ([]*table.Column, error) {
	switch x := doc.(type) {
	case []interface{}:
		if len(x) == 0 {
			return nil, nil
		}
		if _, ok := x[0].(*orderedObject); ok {
			return fromRecords(x)
		}
		return fromRows(x)
	case *orderedObject:
		if isSplit(x) {
			return fromSplit(x)
		}
		return fromColumns(x)
	default:
		return nil, fmt.Errorf("top-level JSON value is %T, expected object or array", doc)
	}
}

func isSplit(obj *orderedObject) bool {
	cols, hasCols := obj.values["columns"].([]interface{})
	_, hasData := obj.values["data"].([]interface{})
	if !hasCols || !hasData {
		return false
	}
	for _, c := range cols {
		if _, nested := c.(*orderedObject); nested {
			return false
		}
	}
	for k := range obj.values {
		if k != "columns" && k != "data" && k != "index" {
			return false
		}
	}
	return true
}

// fromColumns handles {"col": {"idx": v}} and {"col": [v, ...]}.
func fromColumns(doc interface{}) ([]*table.Column, error) {
	obj, ok := doc.(*orderedObject)
	if !ok {
		return nil, stderrors.New("columns orient expects an object")
	}
	if len(obj.keys) == 0 {
		return nil, nil
	}

	var objects, arrays int
	for _, k := range obj.keys {
		switch obj.values[k].(type) {
		case *orderedObject:
			objects++
		case []interface{}:
			arrays++
		}
	}

	switch {
	case arrays == len(obj.keys):
		rows := -1
		columns := make([]*table.Column, len(obj.keys))
		for i, k := range obj.keys {
			list := obj.values[k].([]interface{})
			if rows >= 0 && len(list) != rows {
				return nil, fmt.Errorf("column %q has %d values, expected %d", k, len(list), rows)
			}
			rows = len(list)
			columns[i] = columnFrom(k, list)
		}
		return columns, nil

	case objects == len(obj.keys):
		var index []string
		seen := make(map[string]struct{})
		for _, k := range obj.keys {
			for _, idx := range obj.values[k].(*orderedObject).keys {
				if _, dup := seen[idx]; !dup {
					seen[idx] = struct{}{}
					index = append(index, idx)
				}
			}
		}
		columns := make([]*table.Column, len(obj.keys))
		for i, k := range obj.keys {
			inner := obj.values[k].(*orderedObject)
			values := make([]interface{}, len(index))
			for j, idx := range index {
				values[j] = inner.values[idx]
			}
			columns[i] = columnFrom(k, values)
		}
		return columns, nil

	case objects == 0 && arrays == 0:
		return nil, stderrors.New("all scalar values need an index")
	default:
		return nil, stderrors.New("mixed object and array columns")
	}
}

func fromRecords(items []interface{}) ([]*table.Column, error) {
	var names []string
	seen := make(map[string]struct{})
	records := make([]*orderedObject, len(items))
	for i, item := range items {
		rec, ok := item.(*orderedObject)
		if !ok {
			return nil, fmt.Errorf("record %d is not an object", i)
		}
		records[i] = rec
		for _, k := range rec.keys {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				names = append(names, k)
			}
		}
	}

	columns := make([]*table.Column, len(names))
	for i, name := range names {
		values := make([]interface{}, len(records))
		for j, rec := range records {
			values[j] = rec.values[name]
		}
		columns[i] = columnFrom(name, values)
	}
	return columns, nil
}

// fromRows handles arrays of rows; scalar items form a single column.
func fromRows(items []interface{}) ([]*table.Column, error) {
	rows := make([][]interface{}, len(items))
	width := 0
	for i, item := range items {
		switch x := item.(type) {
		case []interface{}:
			rows[i] = x
		case *orderedObject:
			return nil, fmt.Errorf("row %d is an object", i)
		default:
			rows[i] = []interface{}{x}
		}
		if len(rows[i]) > width {
			width = len(rows[i])
		}
	}

	names := make([]string, width)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return columnsFromRows(names, rows)
}

func fromSplit(obj *orderedObject) ([]*table.Column, error) {
	rawCols, ok := obj.values["columns"].([]interface{})
	if !ok {
		return nil, stderrors.New(`split orient requires a "columns" array`)
	}
	rawData, ok := obj.values["data"].([]interface{})
	if !ok {
		return nil, stderrors.New(`split orient requires a "data" array`)
	}

	names := make([]string, len(rawCols))
	for i, c := range rawCols {
		names[i] = fmt.Sprintf("%v", c)
	}
	names = table.UniqueNames(names)

	rows := make([][]interface{}, len(rawData))
	for i, item := range rawData {
		row, ok := item.([]interface{})
		if !ok {
			return nil, fmt.Errorf("data row %d is not an array", i)
		}
		if len(row) > len(names) {
			return nil, fmt.Errorf("data row %d has %d values for %d columns", i, len(row), len(names))
		}
		rows[i] = row
	}
	return columnsFromRows(names, rows)
}

func columnsFromRows(names []string, rows [][]interface{}) ([]*table.Column, error) {
	columns := make([]*table.Column, len(names))
	for c, name := range names {
		values := make([]interface{}, len(rows))
		for r, row := range rows {
			if c < len(row) {
				values[r] = row[c]
			}
		}
		columns[c] = columnFrom(name, values)
	}
	return columns, nil
}

func columnFrom(name string, raw []interface{}) *table.Column {
	values := make([]interface{}, len(raw))
	for i, v := range raw {
		values[i] = cellValue(v)
	}
	return table.FromValues(name, values)
}

// JSONWriter writes a table in one of the JSON orients
type JSONWriter struct {
	orient string
}

// NewJSONWriter creates a JSON writer. Auto selects the columns orient.
func NewJSONWriter(cfg config.JSONConfig) *JSONWriter {
	orient := cfg.Orient
	if orient == "" || orient == OrientAuto {
		orient = OrientColumns
	}
	return &JSONWriter{orient: orient}
}

// Write serializes t to path
func (w *JSONWriter) Write(ctx context.Context, path string, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := w.encode(&buf, t); err != nil {
		return writeError(err, path, "json")
	}
	if err := writeOutput(path, writeBytes(buf.Bytes())); err != nil {
		return writeError(err, path, "json")
	}
	return nil
}

func (w *JSONWriter) encode(buf *bytes.Buffer, t *table.Table) error {
	names := t.ColumnNames()

	switch w.orient {
	case OrientColumns:
		buf.WriteByte('{')
		for c, col := range t.Columns() {
			if c > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, names[c]); err != nil {
				return err
			}
			buf.WriteString(":{")
			for i := 0; i < col.Len(); i++ {
				if i > 0 {
					buf.WriteByte(',')
				}
				buf.WriteString(`"` + strconv.Itoa(i) + `":`)
				if err := writeCell(buf, col.Value(i)); err != nil {
					return err
				}
			}
			buf.WriteByte('}')
		}
		buf.WriteByte('}')

	case OrientRecords, OrientLines:
		sep := byte(',')
		if w.orient == OrientRecords {
			buf.WriteByte('[')
		} else {
			sep = '\n'
		}
		for i := 0; i < t.NumRows(); i++ {
			if i > 0 {
				buf.WriteByte(sep)
			}
			if err := writeRecord(buf, names, t.Row(i)); err != nil {
				return err
			}
		}
		if w.orient == OrientRecords {
			buf.WriteByte(']')
		}

	case OrientSplit:
		buf.WriteString(`{"columns":`)
		if err := writeStrings(buf, names); err != nil {
			return err
		}
		buf.WriteString(`,"index":[`)
		for i := 0; i < t.NumRows(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Itoa(i))
		}
		buf.WriteString(`],"data":`)
		if err := writeRows(buf, t); err != nil {
			return err
		}
		buf.WriteByte('}')

	case OrientValues:
		if err := writeRows(buf, t); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown orient %q", w.orient)
	}

	buf.WriteByte('\n')
	return nil
}

func writeRecord(buf *bytes.Buffer, names []string, row []interface{}) error {
	buf.WriteByte('{')
	for j, v := range row {
		if j > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, names[j]); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeCell(buf, v); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeRows(buf *bytes.Buffer, t *table.Table) error {
	buf.WriteByte('[')
	for i := 0; i < t.NumRows(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('[')
		for j, v := range t.Row(i) {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeCell(buf, v); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(']')
	return nil
}

func writeStrings(buf *bytes.Buffer, items []string) error {
	buf.WriteByte('[')
	for i, s := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, s); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// writeCell encodes one cell. Floats keep a decimal point so they read back
// as floats; NaN and infinities become null.
func writeCell(buf *bytes.Buffer, v interface{}) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			buf.WriteString("null")
		} else {
			buf.WriteString(formatFloat(x))
		}
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case string:
		return writeString(buf, x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
