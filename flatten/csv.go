package flatten

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// Writer writes rows of a single schema as CSV. The header is written once,
// before the first row.
type Writer struct {
	schema  *Schema
	w       *csv.Writer
	started bool
	// Clean, if set, is applied to every cell value before writing.
	Clean func(string) string
}

// NewWriter returns a CSV writer for rows of the given schema.
func NewWriter(w io.Writer, s *Schema) *Writer {
	return &Writer{schema: s, w: csv.NewWriter(w)}
}

// WriteHeader writes the header, if it has not been written yet.
func (w *Writer) WriteHeader() error {
	if w.started {
		return nil
	}
	w.started = true
	return w.w.Write(w.schema.ColumnNames())
}

// Write writes a single row.
func (w *Writer) Write(row Row) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if row.schema != w.schema {
		return fmt.Errorf("row schema %q does not match writer schema %q",
			row.schema.Name, w.schema.Name)
	}
	return w.w.Write(w.record(row))
}

// Flush flushes buffered data and reports any write error.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

func (w *Writer) record(row Row) []string {
	rec := row.Strings()
	if w.Clean != nil {
		for i, v := range rec {
			rec[i] = w.Clean(v)
		}
	}
	return rec
}

// EncodeRow encodes a single row as a CSV line, without header; used when
// rows are produced in parallel and concatenated later.
func EncodeRow(row Row, clean func(string) string) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	rec := row.Strings()
	if clean != nil {
		for i, v := range rec {
			rec[i] = clean(v)
		}
	}
	if err := cw.Write(rec); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
