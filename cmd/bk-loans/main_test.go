package main

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/miku/bibkit/aggregate"
	"github.com/miku/bibkit/loans"
	"github.com/segmentio/encoding/json"
)

func TestWriteSummaries(t *testing.T) {
	records := []loans.Record{
		{CallNumber: "Dg 150", Subject: "Italy", Cluster: 0, X: 1, Y: 2,
			YearlyFrequency: aggregate.YearCounts{2014: 2}},
		{CallNumber: "Dg 151", Subject: "Italy", Cluster: 0, X: 3, Y: -2,
			YearlyFrequency: aggregate.YearCounts{2015: 1}},
		{CallNumber: "Zs 1", Subject: "Periodicals", Cluster: loans.NoCluster, X: 9, Y: 9},
	}
	var buf bytes.Buffer
	if err := writeSummaries(&buf, records, loans.SumByCluster(records, 2014, 2015)); err != nil {
		t.Fatal(err)
	}
	var got []struct {
		Cluster  int         `json:"cluster"`
		Records  int         `json:"records"`
		Total    float64     `json:"total"`
		Centroid *[2]float64 `json:"centroid"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 summaries, but got %d: %s", len(got), buf.String())
	}
	if got[0].Cluster != loans.NoCluster || got[0].Centroid != nil {
		t.Errorf("want noise first and without centroid, but got %+v", got[0])
	}
	if got[1].Centroid == nil {
		t.Fatalf("want centroid for cluster 0")
	}
	if diff := cmp.Diff([2]float64{2, 0}, *got[1].Centroid); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if got[1].Records != 2 || got[1].Total != 3 {
		t.Errorf("want 2 records and total 3, but got %+v", got[1])
	}
}
