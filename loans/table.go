// Package loans reads a table of library loan records and prepares
// aggregates for visualization: per cluster year totals and subject counts.
//
// The table is a CSV file with a header. Columns holding dicts or lists are
// Python literals, as written by pandas.
package loans

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/miku/bibkit/aggregate"
	"github.com/miku/bibkit/pylit"
)

// NoCluster is the label of records, that belong to no cluster.
const NoCluster = -1

var ErrMissingColumn = errors.New("missing column")

// Record is a single row of the loan table.
type Record struct {
	CallNumber string
	Subject    string
	Cluster    int
	X, Y       float64
	// YearlyFrequency holds loans per year.
	YearlyFrequency aggregate.YearCounts
	// YearlyFrequencyNorm holds the share of loans per year.
	YearlyFrequencyNorm aggregate.YearCounts
	Users               []string
	UsersWeighed        map[string]float64
}

// ReadTable reads all records from a loan table. Only call_number is
// required; missing optional columns leave the zero value, except cluster,
// which defaults to NoCluster.
func ReadTable(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int)
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	if _, ok := index["call_number"]; !ok {
		return nil, fmt.Errorf("%w: call_number", ErrMissingColumn)
	}
	var (
		records []Record
		line    = 1
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		get := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		record, err := parseRecord(get)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRecord(get func(string) string) (Record, error) {
	var (
		record = Record{
			CallNumber: get("call_number"),
			Cluster:    NoCluster,
		}
		err error
	)
	record.Subject = Subject(record.CallNumber)
	if v := get("cluster"); v != "" {
		if record.Cluster, err = parseLabel(v); err != nil {
			return record, fmt.Errorf("cluster: %w", err)
		}
	}
	if v := get("x"); v != "" {
		if record.X, err = strconv.ParseFloat(v, 64); err != nil {
			return record, fmt.Errorf("x: %w", err)
		}
	}
	if v := get("y"); v != "" {
		if record.Y, err = strconv.ParseFloat(v, 64); err != nil {
			return record, fmt.Errorf("y: %w", err)
		}
	}
	if record.YearlyFrequency, err = parseYearCounts(get("yearly_frequency")); err != nil {
		return record, fmt.Errorf("yearly_frequency: %w", err)
	}
	if record.YearlyFrequencyNorm, err = parseYearCounts(get("yearly_frequency_norm")); err != nil {
		return record, fmt.Errorf("yearly_frequency_norm: %w", err)
	}
	if record.Users, err = parseUsers(get("users")); err != nil {
		return record, fmt.Errorf("users: %w", err)
	}
	if record.UsersWeighed, err = parseWeights(get("users_weighed")); err != nil {
		return record, fmt.Errorf("users_weighed: %w", err)
	}
	return record, nil
}

// parseLabel parses a cluster label; pandas may write integer labels as
// floats, e.g. "3.0".
func parseLabel(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	switch {
	case math.IsInf(f, 0) || math.IsNaN(f):
		return 0, fmt.Errorf("invalid label %v", f)
	case f != math.Trunc(f):
		return 0, fmt.Errorf("fractional label %v", f)
	case f < math.MinInt32 || f > math.MaxInt32:
		return 0, fmt.Errorf("label out of range: %v", f)
	}
	return int(f), nil
}

func parseYearCounts(s string) (aggregate.YearCounts, error) {
	m, err := pylit.ParseDict(s)
	if err != nil {
		return nil, err
	}
	return aggregate.FromRaw(m)
}

// parseUsers accepts a list, tuple or set of user ids, or a dict keyed by
// user id. Dict keys are returned sorted.
func parseUsers(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := pylit.Parse(s)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		users := make([]string, 0, len(t))
		for k := range t {
			users = append(users, k)
		}
		sort.Strings(users)
		return users, nil
	case []any:
		users := make([]string, len(t))
		for i, u := range t {
			switch w := u.(type) {
			case string:
				users[i] = w
			case int64:
				users[i] = strconv.FormatInt(w, 10)
			default:
				users[i] = fmt.Sprintf("%v", w)
			}
		}
		return users, nil
	default:
		return nil, fmt.Errorf("%w: want collection of users, got %T", pylit.ErrSyntax, v)
	}
}

func parseWeights(s string) (map[string]float64, error) {
	m, err := pylit.ParseDict(s)
	if err != nil {
		return nil, err
	}
	result := make(map[string]float64, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case int64:
			result[k] = float64(t)
		case float64:
			result[k] = t
		default:
			return nil, fmt.Errorf("weight of %s is not numeric: %v", k, v)
		}
	}
	return result, nil
}
