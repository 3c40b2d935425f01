// Package loaders provides batch sinks for the engine.
package loaders

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/batchline/batchline"
)

// Writer renders each row of a batch as one tab-separated line on an
// io.Writer. Byte values are printed as text.
type Writer struct {
	out io.Writer
}

// NewStdout creates a Writer on standard output.
func NewStdout() *Writer { return &Writer{out: os.Stdout} }

// NewWriter creates a Writer on the given output.
func NewWriter(out io.Writer) *Writer { return &Writer{out: out} }

func (w *Writer) Load(ctx context.Context, batch *batchline.Batch) error {
	for i := 0; i < batch.NumRows(); i++ {
		row := batch.Row(i)
		parts := make([]string, len(row))
		for j, v := range row {
			switch x := v.(type) {
			case []byte:
				parts[j] = string(x)
			case string:
				parts[j] = x
			default:
				parts[j] = fmt.Sprintf("%v", x)
			}
		}
		if _, err := fmt.Fprintln(w.out, strings.Join(parts, "\t")); err != nil {
			return fmt.Errorf("loaders: write row %d: %w", i, err)
		}
	}
	return nil
}

func (w *Writer) Close(ctx context.Context) error { return nil }
