// Package input opens record sources and turns the various JSON layouts
// into a stream of one record per line.
//
// A name may be "-" for stdin, a local path, an http(s) URL or a zip archive
// member in the form archive.zip#member.json. Zip archives and index pages
// expand to their members. Files ending in .gz or .zst are
// decompressed on the fly.
package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"
	"github.com/sethgrid/pester"
)

var ErrNoMembers = errors.New("no matching archive members")

// DefaultMaxRetries for fetching URLs.
var DefaultMaxRetries = 3

// multiCloser closes a stack of closers in reverse order.
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

var recordExtensions = []string{".json", ".jsonl", ".ndjson", ".json.gz", ".json.zst"}

func hasRecordExt(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range recordExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Expand turns a zip archive name without member into one name per JSON
// member, sorted by member name. A URL ending in a slash is taken to be an
// index page and expands to the record files it links to. Other names are
// returned as is.
func Expand(ctx context.Context, name string) ([]string, error) {
	if isURL(name) {
		if strings.HasSuffix(name, "/") {
			return Listing(ctx, name)
		}
		return []string{name}, nil
	}
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		return []string{name}, nil
	}
	zr, err := zip.OpenReader(name)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !hasRecordExt(f.Name) {
			continue
		}
		names = append(names, name+"#"+f.Name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMembers, name)
	}
	sort.Strings(names)
	return names, nil
}

// Open returns a reader for a name, see package documentation.
func Open(ctx context.Context, name string) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch {
	case name == "-":
		return io.NopCloser(os.Stdin), nil
	case isURL(name):
		rc, err = fetch(ctx, name)
	case strings.Contains(name, ".zip#"):
		rc, err = openMember(name)
	default:
		rc, err = os.Open(name)
	}
	if err != nil {
		return nil, err
	}
	return decompress(rc, name)
}

func fetch(ctx context.Context, link string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	client := pester.New()
	client.MaxRetries = DefaultMaxRetries
	client.Backoff = pester.ExponentialBackoff
	client.Timeout = 5 * time.Minute
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %s", link, resp.Status)
	}
	return resp.Body, nil
}

func openMember(name string) (io.ReadCloser, error) {
	i := strings.Index(name, ".zip#")
	archive, member := name[:i+4], name[i+5:]
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.Name != member {
			continue
		}
		r, err := f.Open()
		if err != nil {
			zr.Close()
			return nil, err
		}
		return &multiCloser{Reader: r, closers: []io.Closer{zr, r}}, nil
	}
	zr.Close()
	return nil, fmt.Errorf("%w: %s", ErrNoMembers, name)
}

// decompress wraps a reader according to the file extension of the name.
func decompress(rc io.ReadCloser, name string) (io.ReadCloser, error) {
	if isURL(name) {
		if i := strings.IndexAny(name, "?#"); i > 0 {
			name = name[:i]
		}
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".gz":
		zr, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, err
		}
		return &multiCloser{Reader: zr, closers: []io.Closer{rc, zr}}, nil
	case ".zst":
		zr, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, err
		}
		zrc := zr.IOReadCloser()
		return &multiCloser{Reader: zrc, closers: []io.Closer{rc, zrc}}, nil
	default:
		return rc, nil
	}
}
