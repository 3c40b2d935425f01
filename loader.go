package batchline

import "context"

// Loader is the sink-side collaborator: it consumes the batch produced by
// the last stage of a pipeline.
type Loader interface {
	Load(ctx context.Context, batch *Batch) error
	Close(ctx context.Context) error
}

// Discard is a loader that drops every batch.
type Discard struct{}

func (Discard) Load(context.Context, *Batch) error { return nil }

func (Discard) Close(context.Context) error { return nil }
