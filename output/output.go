// Package output creates output files, compressed by file extension.
package output

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"
)

type file struct {
	*bufio.Writer
	closers []io.Closer
}

// Close flushes buffered data and closes the compressor and then the file.
func (f *file) Close() error {
	errs := []error{f.Flush()}
	for _, c := range f.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Create returns a writer for a name. An empty name or "-" is stdout, which
// is never compressed. Names ending in .gz or .zst get compressed.
func Create(name string) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return &file{Writer: bufio.NewWriter(os.Stdout)}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	w, err := Wrap(f, name)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// Wrap compresses writes to w according to the extension of name. Closing
// the result closes w as well.
func Wrap(w io.WriteCloser, name string) (io.WriteCloser, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		zw := gzip.NewWriter(w)
		return &file{Writer: bufio.NewWriter(zw), closers: []io.Closer{zw, w}}, nil
	case ".zst":
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return &file{Writer: bufio.NewWriter(zw), closers: []io.Closer{zw, w}}, nil
	default:
		return &file{Writer: bufio.NewWriter(w), closers: []io.Closer{w}}, nil
	}
}
