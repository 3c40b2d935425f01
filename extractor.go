package batchline

import (
	"context"
	"errors"
)

// ErrSourceDrained is returned by an Extractor whose content is exhausted.
// The engine treats it as a normal end of the run, not a failure.
var ErrSourceDrained = errors.New("batchline: source drained")

// Extractor is the source-side collaborator: per pipeline tick it produces
// one batch. To be compatible with the byte- and text-level stage variants,
// the batch's first column must be text- or bytes-typed; that is the only
// requirement this package places on a source.
type Extractor interface {
	Extract(ctx context.Context) (*Batch, error)
	Close(ctx context.Context) error
}

// Fixed is a fixed-content test source: it yields the same single-column
// text batch on every tick until Remaining ticks are used up, then reports
// ErrSourceDrained.
type Fixed struct {
	batch     *Batch
	remaining int
}

// NewFixed creates a fixed source producing the given lines under the given
// field name. ticks bounds how many batches it yields; ticks <= 0 means
// unbounded.
func NewFixed(field string, lines []string, ticks int) *Fixed {
	rows := make([]Row, len(lines))
	for i, l := range lines {
		rows[i] = Row{l}
	}
	if ticks <= 0 {
		ticks = -1
	}
	return &Fixed{
		batch:     MustNewBatch(Schema{Fields: []Field{{Name: field, Type: TypeText}}}, rows),
		remaining: ticks,
	}
}

func (f *Fixed) Extract(ctx context.Context) (*Batch, error) {
	if f.remaining == 0 {
		return nil, ErrSourceDrained
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return f.batch, nil
}

func (f *Fixed) Close(ctx context.Context) error { return nil }
