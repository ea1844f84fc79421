package loans

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/miku/bibkit/aggregate"
)

// Clusters returns the distinct cluster labels in ascending order.
func Clusters(records []Record) []int {
	seen := make(map[int]bool)
	var labels []int
	for _, r := range records {
		if !seen[r.Cluster] {
			seen[r.Cluster] = true
			labels = append(labels, r.Cluster)
		}
	}
	sort.Ints(labels)
	return labels
}

// SumByCluster sums the yearly loan frequencies of all records of a cluster.
// Each cluster total covers at least the years from start to end.
func SumByCluster(records []Record, start, end int) map[int]aggregate.YearCounts {
	groups := make(map[int][]aggregate.YearCounts)
	for _, r := range records {
		groups[r.Cluster] = append(groups[r.Cluster], r.YearlyFrequency)
	}
	result := make(map[int]aggregate.YearCounts, len(groups))
	for label, maps := range groups {
		result[label] = aggregate.Sum(maps, start, end)
	}
	return result
}

// SubjectsByCluster counts records per subject category for each cluster.
func SubjectsByCluster(records []Record) map[int]map[string]int {
	result := make(map[int]map[string]int)
	for _, r := range records {
		if result[r.Cluster] == nil {
			result[r.Cluster] = make(map[string]int)
		}
		result[r.Cluster][r.Subject]++
	}
	return result
}

// Centroids returns the mean position of the members of each cluster, where
// a cluster label is placed on a scatter plot. Records without a cluster are
// left out.
func Centroids(records []Record) map[int][2]float64 {
	var (
		sums   = make(map[int][2]float64)
		counts = make(map[int]int)
	)
	for _, r := range records {
		if r.Cluster == NoCluster {
			continue
		}
		s := sums[r.Cluster]
		sums[r.Cluster] = [2]float64{s[0] + r.X, s[1] + r.Y}
		counts[r.Cluster]++
	}
	result := make(map[int][2]float64, len(sums))
	for label, s := range sums {
		n := float64(counts[label])
		result[label] = [2]float64{s[0] / n, s[1] / n}
	}
	return result
}

func sortedLabels[V any](m map[int]V) []int {
	labels := make([]int, 0, len(m))
	for k := range m {
		labels = append(labels, k)
	}
	sort.Ints(labels)
	return labels
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteYearMatrix writes a cluster by year table, suitable for a heatmap.
// Years are the union over all clusters; missing cells are zero.
func WriteYearMatrix(w io.Writer, byCluster map[int]aggregate.YearCounts) error {
	union := make(aggregate.YearCounts)
	for _, yc := range byCluster {
		for y := range yc {
			union[y] = 0
		}
	}
	years := union.Years()
	cw := csv.NewWriter(w)
	header := []string{"cluster"}
	for _, y := range years {
		header = append(header, strconv.Itoa(y))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, label := range sortedLabels(byCluster) {
		row := []string{strconv.Itoa(label)}
		for _, y := range years {
			row = append(row, formatFloat(byCluster[label][y]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSubjectMatrix writes a cluster by subject table with all subject
// categories in scheme order.
func WriteSubjectMatrix(w io.Writer, byCluster map[int]map[string]int) error {
	subjects := SubjectNames()
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"cluster"}, subjects...)); err != nil {
		return err
	}
	for _, label := range sortedLabels(byCluster) {
		row := []string{strconv.Itoa(label)}
		for _, s := range subjects {
			row = append(row, strconv.Itoa(byCluster[label][s]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
