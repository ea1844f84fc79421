// Package aggregate merges per record year distributions, e.g. loans per
// year, into totals over a canonical range of years.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"
)

// Canonical range of years covered by the loan data.
const (
	DefaultStart = 2013
	DefaultEnd   = 2023
)

var (
	ErrInvalidYearKey = errors.New("invalid year key")
	ErrInvalidCount   = errors.New("invalid count")
)

// YearCounts maps a year to a count.
type YearCounts map[int]float64

// Range returns a map with every year in [start, end] set to zero.
func Range(start, end int) YearCounts {
	result := make(YearCounts)
	for y := start; y <= end; y++ {
		result[y] = 0
	}
	return result
}

// Sum seeds the canonical range with zeros and adds up all counts per year.
// Years outside the range are added as they appear.
func Sum(maps []YearCounts, start, end int) YearCounts {
	result := Range(start, end)
	for _, m := range maps {
		for y, v := range m {
			result[y] += v
		}
	}
	return result
}

// SumRaw is like Sum, but for loosely typed input, e.g. decoded JSON, where
// keys are strings and counts may be of any numeric type.
func SumRaw(maps []map[string]any, start, end int) (YearCounts, error) {
	typed := make([]YearCounts, 0, len(maps))
	for i, m := range maps {
		yc, err := FromRaw(m)
		if err != nil {
			return nil, fmt.Errorf("map %d: %w", i, err)
		}
		typed = append(typed, yc)
	}
	return Sum(typed, start, end), nil
}

// FromRaw converts a loosely typed map into YearCounts.
func FromRaw(m map[string]any) (YearCounts, error) {
	result := make(YearCounts, len(m))
	for k, v := range m {
		year, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidYearKey, k)
		}
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", year, err)
		}
		result[year] += f
	}
	return result, nil
}

func toFloat(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		g, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidCount, t)
		}
		f = g
	default:
		return 0, fmt.Errorf("%w: %v (%T)", ErrInvalidCount, v, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCount, f)
	}
	return f, nil
}

// Years returns the years in ascending order.
func (yc YearCounts) Years() []int {
	years := make([]int, 0, len(yc))
	for y := range yc {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Total sums the counts over all years, in year order.
func (yc YearCounts) Total() float64 {
	var total float64
	for _, y := range yc.Years() {
		total += yc[y]
	}
	return total
}

// Normalize returns the share of each year in the total. All zero input
// stays zero.
func (yc YearCounts) Normalize() YearCounts {
	result := make(YearCounts, len(yc))
	total := yc.Total()
	for y, v := range yc {
		if total == 0 {
			result[y] = 0
		} else {
			result[y] = v / total
		}
	}
	return result
}

// MarshalJSON writes years as object keys in ascending order.
func (yc YearCounts) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("{")
	for i, y := range yc.Years() {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `"%d":%s`, y, strconv.FormatFloat(yc[y], 'f', -1, 64))
	}
	sb.WriteString("}")
	return []byte(sb.String()), nil
}
