package batchline

import (
	"context"
	"log/slog"
)

// Transformer is the contract a pipeline author implements to supply a
// custom stage. The engine owns the lifecycle: Init is called once, then a
// strictly sequential series of Transform calls, then Close exactly once.
// A single instance is never called concurrently with itself, but many
// instances run concurrently across a pipeline, so any state an
// implementation keeps must be private to the instance.
type Transformer interface {
	// Init performs optional one-time setup, e.g. opening a connection.
	Init(ctx context.Context, cfg StageConfig, log *slog.Logger) error

	// Transform consumes the current batch and returns the batch handed to
	// the next stage. It must not mutate the input batch and must not
	// retain it past the call.
	Transform(ctx context.Context, batch *Batch, cfg StageConfig, log *slog.Logger) (*Batch, error)

	// Close performs optional one-time teardown. It runs after the last
	// Transform call on both normal shutdown and stage replacement.
	Close(ctx context.Context, cfg StageConfig, log *slog.Logger) error
}

// Base provides no-op Init and Close so that stages which only transform
// can embed it and implement a single method.
type Base struct{}

func (Base) Init(context.Context, StageConfig, *slog.Logger) error { return nil }

func (Base) Close(context.Context, StageConfig, *slog.Logger) error { return nil }

// TransformerFunc adapts a plain function to the Transformer interface with
// no-op Init and Close.
type TransformerFunc func(ctx context.Context, batch *Batch, cfg StageConfig, log *slog.Logger) (*Batch, error)

func (f TransformerFunc) Init(context.Context, StageConfig, *slog.Logger) error { return nil }

func (f TransformerFunc) Transform(ctx context.Context, batch *Batch, cfg StageConfig, log *slog.Logger) (*Batch, error) {
	return f(ctx, batch, cfg, log)
}

func (f TransformerFunc) Close(context.Context, StageConfig, *slog.Logger) error { return nil }
