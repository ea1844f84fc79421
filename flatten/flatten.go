// Package flatten turns semi-structured catalog records into flat rows. Which
// fields end up in which column, and how, is described by a Schema, so MARC
// JSON and the enhanced export format share a single code path.
package flatten

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"
)

// ErrInvalidRecordShape is returned, when a record is not a mapping.
var ErrInvalidRecordShape = errors.New("invalid record shape")

// Cell is a single value of a row. Valid is false for null.
type Cell struct {
	Value string
	Valid bool
}

// String returns the value, or the empty string for null.
func (c Cell) String() string {
	return c.Value
}

var null = Cell{}

func valid(s string) Cell { return Cell{Value: s, Valid: true} }

// Row is a flattened record. It holds one cell per schema column, in schema
// order.
type Row struct {
	schema *Schema
	cells  []Cell
}

// Columns returns the column names of the row.
func (r Row) Columns() []string {
	return r.schema.ColumnNames()
}

// Cells returns the cells in column order.
func (r Row) Cells() []Cell {
	return r.cells
}

// Get returns the cell for a column name and whether the column exists.
func (r Row) Get(name string) (Cell, bool) {
	for i, col := range r.schema.Columns {
		if col.Name == name {
			return r.cells[i], true
		}
	}
	return null, false
}

// Strings returns the row as a string slice, null cells become empty strings.
func (r Row) Strings() []string {
	result := make([]string, len(r.cells))
	for i, c := range r.cells {
		result[i] = c.Value
	}
	return result
}

// Flatten applies a schema to a single record. Missing or oddly shaped fields
// never fail; they resolve to null or the empty string, depending on the
// rule. The only error is a record, that is not a mapping at all.
func Flatten(record any, s *Schema) (Row, error) {
	m, ok := record.(map[string]any)
	if !ok {
		return Row{}, fmt.Errorf("%w: got %T", ErrInvalidRecordShape, record)
	}
	row := Row{schema: s, cells: make([]Cell, len(s.Columns))}
	for i, col := range s.Columns {
		row.cells[i] = extract(m, col, s.delimiter())
	}
	return row, nil
}

func extract(m map[string]any, col Column, delim string) Cell {
	v, ok := m[col.Field]
	switch col.Rule {
	case RuleDirect:
		if !ok || v == nil {
			return null
		}
		return valid(stringify(v))
	case RuleSubfield:
		sub, ok := v.(map[string]any)
		if !ok {
			return null
		}
		w, ok := sub[col.Subfield]
		if !ok || w == nil {
			return null
		}
		return valid(stringify(w))
	case RuleFirst:
		list, ok := v.([]any)
		if !ok || len(list) == 0 || list[0] == nil {
			return null
		}
		return valid(stringify(list[0]))
	case RuleJoined:
		var list []any
		switch t := v.(type) {
		case []any:
			list = t
		case map[string]any:
			list = []any{t}
		default:
			return valid("")
		}
		parts := make([]string, len(list))
		for j, elem := range list {
			sub, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			if w, ok := sub[col.Subfield]; ok && w != nil {
				parts[j] = stringify(w)
			}
		}
		return valid(strings.Join(parts, delim))
	}
	return null
}

// stringify renders a decoded JSON value as a cell value. Nested values are
// kept as compact JSON.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return fmt.Sprintf("%v", t)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	}
}

// Decode parses a single JSON record, keeping numbers as json.Number, so ids
// survive unchanged.
func Decode(p []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(p))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
