package flatten

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/encoding/json"
)

func cellsOf(row Row) map[string]Cell {
	result := make(map[string]Cell)
	for i, name := range row.Columns() {
		result[name] = row.Cells()[i]
	}
	return result
}

func TestFlattenMARCAuthor(t *testing.T) {
	record := map[string]any{
		"100": map[string]any{"a": "Vasari, Giorgio"},
	}
	row, err := Flatten(record, &MARC21)
	if err != nil {
		t.Fatal(err)
	}
	for name, cell := range cellsOf(row) {
		if name == "author_person" {
			if want := valid("Vasari, Giorgio"); cell != want {
				t.Errorf("want %v, but got %v", want, cell)
			}
			continue
		}
		if cell.Valid {
			t.Errorf("%s: want null, but got %q", name, cell.Value)
		}
	}
}

func TestFlattenRules(t *testing.T) {
	var cases = []struct {
		help   string
		record map[string]any
		column string
		want   Cell
	}{
		{"joined list", map[string]any{"authors": []any{
			map[string]any{"name": "A"},
			map[string]any{"name": "B"},
		}}, "authors", valid("A|B")},
		{"empty list", map[string]any{"authors": []any{}}, "authors", valid("")},
		{"absent joined", map[string]any{}, "authors", valid("")},
		{"null joined", map[string]any{"authors": nil}, "authors", valid("")},
		{"element without key", map[string]any{"authors": []any{
			map[string]any{"name": "A"},
			map[string]any{"role": "editor"},
			map[string]any{"name": "C"},
		}}, "authors", valid("A||C")},
		{"element not a mapping", map[string]any{"subjects": []any{
			"loose", map[string]any{"word": "Rome"},
		}}, "subjects", valid("|Rome")},
		{"single mapping", map[string]any{"types": map[string]any{"type": "book"}}, "types", valid("book")},
		{"first of list", map[string]any{"lang": []any{"ita", "ger"}}, "lang", valid("ita")},
		{"first of empty list", map[string]any{"lang": []any{}}, "lang", null},
		{"first absent", map[string]any{}, "lang", null},
		{"first not a list", map[string]any{"lang": "ita"}, "lang", null},
		{"direct number", map[string]any{"id": json.Number("990001")}, "id", valid("990001")},
		{"direct float", map[string]any{"year": 1550.0}, "year", valid("1550")},
		{"direct absent", map[string]any{}, "title", null},
		{"direct null", map[string]any{"title": nil}, "title", null},
	}
	for _, c := range cases {
		t.Run(c.help, func(t *testing.T) {
			row, err := Flatten(c.record, &Export)
			if err != nil {
				t.Fatal(err)
			}
			got, ok := row.Get(c.column)
			if !ok {
				t.Fatalf("missing column %s", c.column)
			}
			if got != c.want {
				t.Errorf("want %#v, but got %#v", c.want, got)
			}
		})
	}
}

func TestFlattenSubfield(t *testing.T) {
	var cases = []struct {
		help  string
		value any
		want  Cell
	}{
		{"mapping", map[string]any{"a": "Roma"}, valid("Roma")},
		{"mapping without key", map[string]any{"b": "x"}, null},
		{"scalar", "Roma", null},
		{"list", []any{map[string]any{"a": "Roma"}}, null},
		{"nested value", map[string]any{"a": []any{"x", "y"}}, valid(`["x","y"]`)},
	}
	for _, c := range cases {
		t.Run(c.help, func(t *testing.T) {
			row, err := Flatten(map[string]any{"264": c.value}, &MARC21)
			if err != nil {
				t.Fatal(err)
			}
			got, _ := row.Get("publication")
			if got != c.want {
				t.Errorf("want %#v, but got %#v", c.want, got)
			}
		})
	}
}

func TestFlattenInvalidShape(t *testing.T) {
	for _, record := range []any{nil, "x", []any{}, json.Number("1")} {
		_, err := Flatten(record, &MARC21)
		if !errors.Is(err, ErrInvalidRecordShape) {
			t.Errorf("%v: want ErrInvalidRecordShape, but got %v", record, err)
		}
	}
}

func TestFlattenColumnsStable(t *testing.T) {
	records := []map[string]any{
		{},
		{"001": "1", "245": map[string]any{"a": "Le vite"}},
		{"999": "unrelated", "650": []any{"x"}},
	}
	want := MARC21.ColumnNames()
	for _, record := range records {
		row, err := Flatten(record, &MARC21)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, row.Columns()); diff != "" {
			t.Errorf("columns mismatch (-want +got):\n%s", diff)
		}
		if len(row.Cells()) != len(want) {
			t.Errorf("want %d cells, but got %d", len(want), len(row.Cells()))
		}
	}
}

func TestFlattenIdempotent(t *testing.T) {
	record := map[string]any{
		"authors": []any{map[string]any{"name": "A"}},
		"lang":    []any{"ita"},
	}
	a, err := Flatten(record, &Export)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Flatten(record, &Export)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a.Cells(), b.Cells()); diff != "" {
		t.Errorf("rows differ (-first +second):\n%s", diff)
	}
}

func TestFlattenCustomDelimiter(t *testing.T) {
	s := &Schema{
		Name:      "custom",
		Delimiter: "; ",
		Columns:   []Column{{Name: "who", Field: "authors", Rule: RuleJoined, Subfield: "name"}},
	}
	row, err := Flatten(map[string]any{"authors": []any{
		map[string]any{"name": "A"}, map[string]any{"name": "B"},
	}}, s)
	if err != nil {
		t.Fatal(err)
	}
	if got := row.Strings()[0]; got != "A; B" {
		t.Errorf("want %q, but got %q", "A; B", got)
	}
}

func TestDecode(t *testing.T) {
	v, err := Decode([]byte(`{"001": 12345678901234567890, "245": {"a": "Titolo"}}`))
	if err != nil {
		t.Fatal(err)
	}
	row, err := Flatten(v, &MARC21)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := row.Get("id"); got.Value != "12345678901234567890" {
		t.Errorf("want exact id, but got %q", got.Value)
	}
}

func TestFlattenKeepsMarkup(t *testing.T) {
	v, err := Decode([]byte(`{"049": ["Rome & Florence <x>"]}`))
	if err != nil {
		t.Fatal(err)
	}
	row, err := Flatten(v, &MARC21)
	if err != nil {
		t.Fatal(err)
	}
	want := `["Rome & Florence <x>"]`
	if got, _ := row.Get("holdings"); got.Value != want {
		t.Errorf("want %q, but got %q", want, got.Value)
	}
}

// TestFlattenGolden flattens each record of testdata/<schema>-*.input (one
// JSON record per line) and compares the CSV output to a golden file.
func TestFlattenGolden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.input"))
	if err != nil {
		t.Fatal(err)
	}
	for _, path := range paths {
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		t.Run(name, func(t *testing.T) {
			schemaName := strings.SplitN(name, "-", 2)[0]
			s, err := LoadSchema(schemaName)
			if err != nil {
				t.Fatal(err)
			}
			b, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			w := NewWriter(&buf, s)
			if err := w.WriteHeader(); err != nil {
				t.Fatal(err)
			}
			for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
				v, err := Decode([]byte(line))
				if err != nil {
					t.Fatal(err)
				}
				row, err := Flatten(v, s)
				if err != nil {
					t.Fatal(err)
				}
				if err := w.Write(row); err != nil {
					t.Fatal(err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatal(err)
			}
			goldenfile := filepath.Join("testdata", name+".golden")
			want, err := os.ReadFile(goldenfile)
			if err != nil {
				if os.IsNotExist(err) {
					if err := os.WriteFile(goldenfile, buf.Bytes(), 0644); err != nil {
						t.Fatal(err)
					}
					t.Logf("created golden file: %s", goldenfile)
					return
				}
				t.Fatal(err)
			}
			if diff := cmp.Diff(string(want), buf.String()); diff != "" {
				t.Errorf("%s: CSV mismatch (-want +got):\n%s", name, diff)
			}
		})
	}
}
