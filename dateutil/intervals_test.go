package dateutil

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestYearly(t *testing.T) {
	start := time.Date(2013, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC)
	ivs := Yearly(start, end)
	if len(ivs) != 3 {
		t.Fatalf("want 3 intervals, but got %d: %v", len(ivs), ivs)
	}
	if !ivs[0].Start.Equal(start) {
		t.Errorf("want first interval to start at %v, but got %v", start, ivs[0].Start)
	}
	if got := ivs[1].Start; !got.Equal(time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("want second interval at beginning of 2014, but got %v", got)
	}
	if Yearly(end, start) != nil {
		t.Errorf("want nil for reversed interval")
	}
}

func TestParseSpan(t *testing.T) {
	iv, err := ParseSpan("2013-01-01 2023-12-31")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2013, 2014, 2015, 2016, 2017, 2018, 2019, 2020, 2021, 2022, 2023}
	if diff := cmp.Diff(want, iv.Years()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	for _, s := range []string{"", "2013-01-01", "2023-01-01 2013-01-01", "x y"} {
		if _, err := ParseSpan(s); err == nil {
			t.Errorf("%q: want error", s)
		}
	}
}

func TestYearOf(t *testing.T) {
	var cases = []struct {
		value string
		year  int
	}{
		{"2017-05-03", 2017},
		{"2019-11-30T10:00:00Z", 2019},
		{" 2021-01-02 ", 2021},
		{"2013", 2013},
		{" 2023 ", 2023},
	}
	for _, c := range cases {
		got, err := YearOf(c.value)
		if err != nil {
			t.Fatalf("%s: %v", c.value, err)
		}
		if got != c.year {
			t.Errorf("%s: want %d, but got %d", c.value, c.year, got)
		}
	}
	for _, s := range []string{"", "yesterday", "20x3"} {
		if _, err := YearOf(s); err == nil {
			t.Errorf("%q: want error", s)
		}
	}
}
