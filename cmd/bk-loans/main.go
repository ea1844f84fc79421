// CLI to summarize a clustered loan table per cluster, as input for heatmaps.
//
// $ bk-loans -m years loans.csv > years.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/miku/bibkit"
	"github.com/miku/bibkit/aggregate"
	"github.com/miku/bibkit/config"
	"github.com/miku/bibkit/dateutil"
	"github.com/miku/bibkit/input"
	"github.com/miku/bibkit/loans"
	"github.com/miku/bibkit/output"
	"github.com/segmentio/encoding/json"
	log "github.com/sirupsen/logrus"
)

var (
	configFile  = flag.String("c", "", "config file (default $BIBKIT_CONFIG or "+config.DefaultPath+")")
	startYear   = flag.String("start", "", "first year of the canonical range, a year or a date")
	endYear     = flag.String("end", "", "last year of the canonical range, a year or a date")
	span        = flag.String("span", "", `canonical range as two dates, e.g. "2013-01-01 2023-12-31"`)
	mode        = flag.String("m", "years", "output: years (cluster x year), subjects (cluster x subject) or json")
	normalized  = flag.Bool("norm", false, "sum the normalized yearly frequencies instead of raw loans")
	share       = flag.Bool("share", false, "report the share of each year in the cluster total")
	outputFile  = flag.String("o", "", "output file, compressed if it ends in .gz or .zst (default stdout)")
	verbose     = flag.Bool("verbose", false, "verbose output")
	showVersion = flag.Bool("version", false, "show version")
)

var help = `bk-loans sums loan frequencies per cluster

Reads a loan table with call_number, cluster, yearly_frequency and related
columns and writes tables suitable for heatmaps. Each cluster total covers
at least the canonical year range, with zeros for years without loans.

Examples:

    $ bk-loans -m years loans.csv > years.csv
    $ bk-loans -m subjects -o subjects.csv loans.csv.gz
    $ bk-loans -span "2015-01-01 2020-12-31" -m json loans.csv
    $ bk-loans -start 2015 -end 2020-06-30 loans.csv

Usage:

`

// summary of a single cluster.
type summary struct {
	Cluster  int                  `json:"cluster"`
	Records  int                  `json:"records"`
	Total    float64              `json:"total"`
	Years    aggregate.YearCounts `json:"years"`
	Subjects map[string]int       `json:"subjects"`
	// Centroid is the mean x and y of the members, absent for noise.
	Centroid *[2]float64 `json:"centroid,omitempty"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, help)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Println(bibkit.Version)
		os.Exit(0)
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *span != "" {
		iv, err := dateutil.ParseSpan(*span)
		if err != nil {
			log.Fatal(err)
		}
		years := iv.Years()
		cfg.Start, cfg.End = years[0], years[len(years)-1]
	}
	if *startYear != "" {
		if cfg.Start, err = dateutil.YearOf(*startYear); err != nil {
			log.Fatalf("start: %v", err)
		}
	}
	if *endYear != "" {
		if cfg.End, err = dateutil.YearOf(*endYear); err != nil {
			log.Fatalf("end: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	input.DefaultMaxRetries = cfg.MaxRetries
	rc, err := input.Open(context.Background(), flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	records, err := loans.ReadTable(rc)
	rc.Close()
	if err != nil {
		log.Fatal(err)
	}
	if *normalized {
		for i := range records {
			records[i].YearlyFrequency = records[i].YearlyFrequencyNorm
		}
	}
	byCluster := loans.SumByCluster(records, cfg.Start, cfg.End)
	if *share {
		for label, yc := range byCluster {
			byCluster[label] = yc.Normalize()
		}
	}
	log.WithFields(log.Fields{
		"records":  len(records),
		"clusters": len(byCluster),
		"start":    cfg.Start,
		"end":      cfg.End,
	}).Debug("read loan table")
	w, err := output.Create(*outputFile)
	if err != nil {
		log.Fatal(err)
	}
	switch *mode {
	case "years":
		err = loans.WriteYearMatrix(w, byCluster)
	case "subjects":
		err = loans.WriteSubjectMatrix(w, loans.SubjectsByCluster(records))
	case "json":
		err = writeSummaries(w, records, byCluster)
	default:
		err = fmt.Errorf("unknown mode: %s", *mode)
	}
	if err != nil {
		w.Close()
		log.Fatal(err)
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}
}

func writeSummaries(w io.Writer, records []loans.Record, byCluster map[int]aggregate.YearCounts) error {
	var (
		subjects  = loans.SubjectsByCluster(records)
		centroids = loans.Centroids(records)
		counts    = make(map[int]int)
		result    []summary
	)
	for _, r := range records {
		counts[r.Cluster]++
	}
	for _, label := range loans.Clusters(records) {
		s := summary{
			Cluster:  label,
			Records:  counts[label],
			Total:    byCluster[label].Total(),
			Years:    byCluster[label],
			Subjects: subjects[label],
		}
		if c, ok := centroids[label]; ok {
			s.Centroid = &c
		}
		result = append(result, s)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
