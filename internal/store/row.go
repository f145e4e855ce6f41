package store

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Row is one result row: column values keyed by name, in select-list order.
type Row struct {
	columns []string
	values  map[string]any
}

// NewRow builds a Row from parallel column and value slices. When a column
// name repeats (e.g. "id" from both sides of a join) the last value wins and
// the column keeps its first position.
func NewRow(columns []string, values []any) Row {
	r := Row{
		columns: make([]string, 0, len(columns)),
		values:  make(map[string]any, len(columns)),
	}
	for i, col := range columns {
		if _, seen := r.values[col]; !seen {
			r.columns = append(r.columns, col)
		}
		var v any
		if i < len(values) {
			v = values[i]
		}
		r.values[col] = v
	}
	return r
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Get returns the value of col and whether the row has that column.
func (r Row) Get(col string) (any, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Value returns the value of col, or nil.
func (r Row) Value(col string) any {
	return r.values[col]
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.columns)
}

// Map returns a copy of the row as a plain map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// MarshalJSON encodes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
