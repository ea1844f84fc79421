package input

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/buger/jsonparser"
	"github.com/segmentio/encoding/json"
)

// Formats of record sources.
const (
	// FormatMARC is a single document with a "records" object, mapping record
	// identifiers to records.
	FormatMARC = "marc"
	// FormatArray is a single JSON array of records.
	FormatArray = "array"
	// FormatJSONL is one record per line.
	FormatJSONL = "jsonl"
	// FormatObject is a single JSON value, possibly spanning several lines,
	// taken as one record.
	FormatObject = "object"
	// FormatAuto guesses one of the above from the data.
	FormatAuto = "auto"
)

var (
	ErrNoRecords     = errors.New(`document has no "records" object`)
	ErrUnknownFormat = errors.New("unknown format")
)

const maxLineSize = 1 << 26 // 64MB

var bNewline = []byte("\n")

// Records reads records in the given format from r and writes them to w, one
// compact JSON value per line, in document order. It returns the number of
// records written.
func Records(r io.Reader, format string, w io.Writer) (int, error) {
	switch format {
	case FormatJSONL:
		return copyLines(r, w)
	case FormatMARC, FormatArray, FormatObject, FormatAuto:
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if format == FormatAuto {
		format = Detect(data)
		if format == FormatJSONL {
			return copyLines(bytes.NewReader(data), w)
		}
	}
	var (
		n   int
		buf bytes.Buffer
	)
	emit := func(value []byte, dataType jsonparser.ValueType) error {
		buf.Reset()
		if dataType == jsonparser.String {
			// jsonparser strips the quotes of string values.
			value = append(append([]byte{'"'}, value...), '"')
		}
		if err := json.Compact(&buf, value); err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
		buf.Write(bNewline)
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
		n++
		return nil
	}
	switch format {
	case FormatObject:
		err = emit(bytes.TrimSpace(data), jsonparser.Object)
	case FormatMARC:
		if _, dt, _, err := jsonparser.Get(data, "records"); err != nil || dt != jsonparser.Object {
			return 0, ErrNoRecords
		}
		err = jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, offset int) error {
			return emit(value, dataType)
		}, "records")
	case FormatArray:
		var cbErr error
		_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, e error) {
			if cbErr != nil {
				return
			}
			if e != nil {
				cbErr = e
				return
			}
			cbErr = emit(value, dataType)
		})
		if err == nil {
			err = cbErr
		}
	}
	return n, err
}

// Detect guesses the format of a buffer: an array, a document with a records
// object, any other single document or line delimited JSON.
func Detect(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return FormatArray
	}
	// Several lines of JSON do not form a single valid value.
	if !json.Valid(trimmed) {
		return FormatJSONL
	}
	if _, dt, _, err := jsonparser.Get(trimmed, "records"); err == nil && dt == jsonparser.Object {
		return FormatMARC
	}
	return FormatObject
}

func copyLines(r io.Reader, w io.Writer) (int, error) {
	br := bufio.NewReader(r)
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 1<<16), maxLineSize)
	var n int
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if _, err := w.Write(line); err != nil {
			return n, err
		}
		if _, err := w.Write(bNewline); err != nil {
			return n, err
		}
		n++
	}
	return n, scanner.Err()
}
