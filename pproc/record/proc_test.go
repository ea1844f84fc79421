package record

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"
)

func numbers(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d\n", i)
	}
	return sb.String()
}

func TestProcessKeepsOrder(t *testing.T) {
	input := numbers(500)
	for _, workers := range []int{1, 2, 7, 16} {
		for _, size := range []int{1, 3, 100, 1000} {
			t.Run(fmt.Sprintf("w=%d,b=%d", workers, size), func(t *testing.T) {
				proc := NewProcessor(func(p []byte) ([]byte, error) {
					v, err := strconv.Atoi(string(p))
					if err != nil {
						return nil, err
					}
					// Later tokens finish earlier.
					time.Sleep(time.Duration(500-v) * time.Microsecond / 10)
					return append(p, '\n'), nil
				}, WithWorkers(workers), WithBatchSize(size))
				var buf bytes.Buffer
				if err := proc.Process(context.Background(), strings.NewReader(input), &buf); err != nil {
					t.Fatal(err)
				}
				if buf.String() != input {
					t.Errorf("output out of order")
				}
			})
		}
	}
}

func TestProcessSkipsNil(t *testing.T) {
	proc := NewProcessor(func(p []byte) ([]byte, error) {
		if bytes.HasPrefix(p, []byte("#")) {
			return nil, nil
		}
		return append(bytes.ToUpper(p), '\n'), nil
	}, WithWorkers(3), WithBatchSize(2))
	var buf bytes.Buffer
	err := proc.Process(context.Background(), strings.NewReader("a\n#b\nc\n#d\ne"), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if want := "A\nC\nE\n"; buf.String() != want {
		t.Errorf("want %q, but got %q", want, buf.String())
	}
}

func TestProcessError(t *testing.T) {
	errBoom := errors.New("boom")
	proc := NewProcessor(func(p []byte) ([]byte, error) {
		if string(p) == "250" {
			return nil, errBoom
		}
		return p, nil
	}, WithWorkers(4), WithBatchSize(10))
	var buf bytes.Buffer
	err := proc.Process(context.Background(), strings.NewReader(numbers(10000)), &buf)
	if !errors.Is(err, errBoom) {
		t.Errorf("want errBoom, but got %v", err)
	}
}

func TestProcessSplitFunc(t *testing.T) {
	proc := NewProcessor(func(p []byte) ([]byte, error) {
		return append(p, ';'), nil
	}, WithSplitFunc(bufio.ScanWords), WithWorkers(2), WithBatchSize(1))
	var buf bytes.Buffer
	err := proc.Process(context.Background(), strings.NewReader("x  y\tz\n"), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if want := "x;y;z;"; buf.String() != want {
		t.Errorf("want %q, but got %q", want, buf.String())
	}
}

func TestProcessMaxTokenSize(t *testing.T) {
	proc := NewProcessor(func(p []byte) ([]byte, error) { return p, nil }, WithMaxTokenSize(8))
	err := proc.Process(context.Background(), strings.NewReader(strings.Repeat("x", 64)+"\n"), &bytes.Buffer{})
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Errorf("want ErrTooLong, but got %v", err)
	}
}

func TestProcessEmpty(t *testing.T) {
	proc := NewProcessor(func(p []byte) ([]byte, error) { return p, nil })
	var buf bytes.Buffer
	if err := proc.Process(context.Background(), strings.NewReader(""), &buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("want empty output, but got %q", buf.String())
	}
}

func TestProcessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := NewProcessor(func(p []byte) ([]byte, error) { return p, nil }, WithBatchSize(1), WithWorkers(1))
	err := proc.Process(ctx, strings.NewReader(numbers(10000)), &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, but got %v", err)
	}
}
