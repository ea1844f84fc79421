// Package record processes a stream of records in parallel, while keeping
// the output in input order.
package record

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize     = 1000
	defaultMaxBufferSize = 1 << 16 // initial scan buffer
	defaultMaxTokenSize  = 1 << 26 // 64MB, hard limit for a single record
)

// ProcessFunc transforms a single token. A nil result drops the token.
type ProcessFunc func([]byte) ([]byte, error)

// ProcessorOption allows configuration of the Processor
type ProcessorOption func(*Processor)

// WithWorkers sets the number of worker goroutines
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.numWorkers = n
		}
	}
}

// WithBatchSize sets the number of tokens handed to a worker at once.
func WithBatchSize(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithMaxTokenSize sets the maximum token size for the splitter
func WithMaxTokenSize(size int) ProcessorOption {
	return func(p *Processor) {
		if size > 0 {
			p.maxTokenSize = size
		}
	}
}

func WithSplitFunc(f bufio.SplitFunc) ProcessorOption {
	return func(p *Processor) {
		if f != nil {
			p.splitFunc = f
		}
	}
}

// Processor handles parallel processing of records, delineated by a
// bufio.SplitFunc. Tokens are grouped into numbered batches; results are
// written in the order of the batches, so output order equals input order,
// regardless of the number of workers.
type Processor struct {
	splitFunc    bufio.SplitFunc
	processFunc  ProcessFunc
	numWorkers   int
	batchSize    int
	maxTokenSize int
}

// NewProcessor creates a new Processor that by default splits on lines.
func NewProcessor(processFunc ProcessFunc, opts ...ProcessorOption) *Processor {
	p := &Processor{
		splitFunc:    bufio.ScanLines,
		processFunc:  processFunc,
		numWorkers:   runtime.NumCPU(),
		batchSize:    defaultBatchSize,
		maxTokenSize: defaultMaxTokenSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Split sets the split function. By default we split on lines.
func (p *Processor) Split(f bufio.SplitFunc) {
	p.splitFunc = f
}

type batch struct {
	seq    int
	tokens [][]byte
	result []byte
}

// Process reads from r, processes batches in parallel and writes results to
// w. The first error stops processing and is returned.
func (p *Processor) Process(ctx context.Context, r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	scanner.Split(p.splitFunc)
	scanner.Buffer(make([]byte, 0, min(defaultMaxBufferSize, p.maxTokenSize)), p.maxTokenSize)
	var (
		work    = make(chan batch, p.numWorkers*2)
		results = make(chan batch, p.numWorkers*2)
		wg      sync.WaitGroup
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(work)
		var (
			seq    int
			tokens [][]byte
		)
		send := func() error {
			select {
			case work <- batch{seq: seq, tokens: tokens}:
				seq++
				tokens = nil
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		for scanner.Scan() {
			token := scanner.Bytes()
			data := make([]byte, len(token))
			copy(data, token)
			tokens = append(tokens, data)
			if len(tokens) < p.batchSize {
				continue
			}
			if err := send(); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		if len(tokens) > 0 {
			return send()
		}
		return nil
	})
	wg.Add(p.numWorkers)
	for i := 0; i < p.numWorkers; i++ {
		g.Go(func() error {
			defer wg.Done()
			for b := range work {
				var buf bytes.Buffer
				for _, token := range b.tokens {
					result, err := p.processFunc(token)
					if err != nil {
						return err
					}
					buf.Write(result)
				}
				b.tokens, b.result = nil, buf.Bytes()
				select {
				case results <- b:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	g.Go(func() error {
		var (
			next    int
			pending = make(map[int][]byte)
		)
		for b := range results {
			pending[b.seq] = b.result
			for {
				data, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if _, err := bw.Write(data); err != nil {
					return err
				}
			}
		}
		return bw.Flush()
	})
	return g.Wait()
}
