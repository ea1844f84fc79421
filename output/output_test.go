package output

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/miku/bibkit/input"
)

func TestCreateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	payload := "id,title\n17,Roma barocca\n"
	for _, name := range []string{"out.csv", "out.csv.gz", "out.csv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			w, err := Create(path)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := io.WriteString(w, payload); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}
			r, err := input.Open(context.Background(), path)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			b, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != payload {
				t.Errorf("want %q, but got %q", payload, string(b))
			}
		})
	}
}
