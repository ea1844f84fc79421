// CLI to flatten bibliographic JSON records into CSV, one row per record.
//
// $ bk-flatten -s export -o records.csv.zst export-1.json export-2.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/miku/bibkit"
	"github.com/miku/bibkit/config"
	"github.com/miku/bibkit/flatten"
	"github.com/miku/bibkit/input"
	"github.com/miku/bibkit/normal"
	"github.com/miku/bibkit/output"
	"github.com/miku/bibkit/pproc/record"
	log "github.com/sirupsen/logrus"
)

var (
	configFile  = flag.String("c", "", "config file (default $BIBKIT_CONFIG or "+config.DefaultPath+")")
	schemaName  = flag.String("s", "", fmt.Sprintf("schema, one of %s or a YAML file", strings.Join(flatten.Builtin(), ", ")))
	format      = flag.String("f", "", "input format: auto, marc, array, jsonl, object")
	delimiter   = flag.String("d", "", "delimiter for joined values, overrides the schema")
	outputFile  = flag.String("o", "", "output file, compressed if it ends in .gz or .zst (default stdout)")
	numWorkers  = flag.Int("w", 0, "number of workers (default one per CPU)")
	batchSize   = flag.Int("b", 0, "records per batch")
	strict      = flag.Bool("strict", false, "abort on records of invalid shape, instead of skipping them")
	clean       = flag.Bool("clean", false, "replace newlines and tabs in cells, collapse whitespace and strip trailing ISBD punctuation (, : / ; =)")
	listSchemas = flag.Bool("l", false, "list built-in schemas and their columns")
	verbose     = flag.Bool("verbose", false, "verbose output")
	showVersion = flag.Bool("version", false, "show version")
)

var help = `bk-flatten turns catalog records into CSV, one row per record

Inputs can be local files, http(s) URLs, index pages (URLs ending in a
slash) or zip archives, optionally compressed with gzip or zstd. Without
inputs, stdin is read. All rows go to a single output, with a single header.

Examples:

    $ bk-flatten -s marc21 hertziana-marc.json.gz > marc.csv
    $ bk-flatten -s export -o export.csv.zst export.zip
    $ curl -s https://example.org/records.json | bk-flatten -f array -clean

Usage:

`

// counter tracks records per input.
type counter struct {
	written atomic.Int64
	skipped atomic.Int64
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
	if *listSchemas {
		for _, name := range flatten.Builtin() {
			s, _ := flatten.LoadSchema(name)
			fmt.Printf("%s\t%s\n", name, strings.Join(s.ColumnNames(), ","))
		}
		os.Exit(0)
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	input.DefaultMaxRetries = cfg.MaxRetries
	schema, err := flatten.LoadSchema(cfg.Schema)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Delimiter != "" {
		s := *schema
		s.Delimiter = cfg.Delimiter
		schema = &s
	}
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"-"}
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	var names []string
	for _, arg := range args {
		expanded, err := input.Expand(ctx, arg)
		if err != nil {
			log.Fatal(err)
		}
		names = append(names, expanded...)
	}
	w, err := output.Create(*outputFile)
	if err != nil {
		log.Fatal(err)
	}
	hw := flatten.NewWriter(w, schema)
	if err := hw.WriteHeader(); err != nil {
		log.Fatal(err)
	}
	if err := hw.Flush(); err != nil {
		log.Fatal(err)
	}
	var (
		started  = time.Now()
		cleaner  func(string) string
		total    counter
		numInput int
	)
	if cfg.Clean {
		cleaner = normal.Cell.Normalize
	}
	for _, name := range names {
		var c counter
		if err := flattenInput(ctx, name, schema, cfg, cleaner, w, &c); err != nil {
			w.Close()
			log.Fatal(err)
		}
		log.WithFields(log.Fields{
			"input":   name,
			"written": c.written.Load(),
			"skipped": c.skipped.Load(),
		}).Debug("input done")
		total.written.Add(c.written.Load())
		total.skipped.Add(c.skipped.Load())
		numInput++
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}
	log.WithFields(log.Fields{
		"schema":  schema.Name,
		"inputs":  numInput,
		"elapsed": time.Since(started).Round(time.Millisecond),
	}).Infof("%d rows written, %d records skipped", total.written.Load(), total.skipped.Load())
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			cfg.Schema = *schemaName
		case "f":
			cfg.Format = *format
		case "d":
			cfg.Delimiter = *delimiter
		case "w":
			cfg.Workers = *numWorkers
		case "b":
			cfg.BatchSize = *batchSize
		case "strict":
			cfg.Strict = *strict
		case "clean":
			cfg.Clean = *clean
		}
	})
}

// abbrev shortens a record for log output.
func abbrev(p []byte) string {
	const maxLen = 64
	if len(p) <= maxLen {
		return string(p)
	}
	return string(p[:maxLen]) + "..."
}

// flattenInput streams the records of a single input through the flattener
// and writes CSV rows to w, in input order.
func flattenInput(ctx context.Context, name string, schema *flatten.Schema, cfg *config.Config,
	cleaner func(string) string, w io.Writer, c *counter) error {
	rc, err := input.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	pr, pw := io.Pipe()
	done := make(chan int, 1)
	go func() {
		n, err := input.Records(rc, cfg.Format, pw)
		pw.CloseWithError(err)
		done <- n
	}()
	proc := record.NewProcessor(func(p []byte) ([]byte, error) {
		v, err := flatten.Decode(p)
		if err != nil {
			return nil, err
		}
		row, err := flatten.Flatten(v, schema)
		switch {
		case errors.Is(err, flatten.ErrInvalidRecordShape) && !cfg.Strict:
			log.WithFields(log.Fields{
				"input":  name,
				"record": abbrev(p),
			}).Warn("skipping record")
			c.skipped.Add(1)
			return nil, nil
		case err != nil:
			return nil, fmt.Errorf("%w: %s", err, abbrev(p))
		}
		c.written.Add(1)
		return flatten.EncodeRow(row, cleaner)
	}, record.WithWorkers(cfg.Workers), record.WithBatchSize(cfg.BatchSize))
	err = proc.Process(ctx, pr, w)
	pr.CloseWithError(err)
	n := <-done
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.WithFields(log.Fields{"input": name, "records": n}).Debug("read records")
	return nil
}
