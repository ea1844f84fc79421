// Package dateutil provides interval handling and lenient date parsing, used
// to derive the canonical year range of a loan dataset.
package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/now"
)

// Interval groups start and end.
type Interval struct {
	Start time.Time
	End   time.Time
}

// String renders an interval.
func (iv Interval) String() string {
	return fmt.Sprintf("%s %s", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}

// Validate checks if the interval is valid (end after start)
func (iv Interval) Validate() error {
	if iv.End.Before(iv.Start) {
		return fmt.Errorf("invalid interval: end %v before start %v", iv.End, iv.Start)
	}
	return nil
}

type (
	// PadFunc allows to move a given time back and forth.
	PadFunc func(t time.Time) time.Time
	// IntervalFunc takes a start and endtime and returns a number of
	// intervals.
	IntervalFunc func(s, e time.Time) []Interval
)

var (
	Yearly = makeIntervalFunc(padLYear, padRYear)

	padLYear = func(t time.Time) time.Time { return now.With(t).BeginningOfYear() }
	padRYear = func(t time.Time) time.Time { return now.With(t).EndOfYear() }
)

func Parse(value string) (time.Time, error) {
	return dateparse.ParseStrict(value)
}

// YearOf returns the year of a date string in any format dateparse
// understands, including a bare year like "2013".
func YearOf(value string) (int, error) {
	value = strings.TrimSpace(value)
	if len(value) == 4 {
		if y, err := strconv.Atoi(value); err == nil {
			return y, nil
		}
	}
	t, err := Parse(value)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

// Years returns each year touched by the interval, in order.
func (iv Interval) Years() []int {
	var years []int
	for _, y := range Yearly(iv.Start, iv.End.Add(time.Second)) {
		years = append(years, y.Start.Year())
	}
	return years
}

// ParseSpan parses a span like "2013-01-01 2023-12-31" into an interval. The
// two dates are separated by whitespace.
func ParseSpan(s string) (Interval, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Interval{}, fmt.Errorf("span must consist of two dates, got %q", s)
	}
	start, err := Parse(fields[0])
	if err != nil {
		return Interval{}, err
	}
	end, err := Parse(fields[1])
	if err != nil {
		return Interval{}, err
	}
	iv := Interval{Start: start, End: end}
	return iv, iv.Validate()
}

// makeIntervalFunc is a helper to create intervals, e.g. yearly ones.
// Given two shiftFuncs (to mark the beginning of an interval and the end), we
// return a function, that will allow us to generate intervals.
func makeIntervalFunc(padLeft, padRight PadFunc) IntervalFunc {
	return func(start, end time.Time) (result []Interval) {
		if end.Before(start) || end.Equal(start) {
			return
		}
		end = end.Add(-1 * time.Second)
		var (
			l time.Time = start
			r time.Time
		)
		for {
			r = padRight(l)
			result = append(result, Interval{l, r})
			l = padLeft(r.Add(1 * time.Second))
			if l.After(end) {
				break
			}
		}
		return result
	}
}
