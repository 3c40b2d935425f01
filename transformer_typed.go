package batchline

import (
	"context"
	"log/slog"
)

// The typed variants let an author declare a precisely typed configuration
// while the engine only holds the generic StageConfig handle. Extraction
// goes through ConfigAs, so a config supplied under the wrong kind surfaces
// as ConfigKindMismatchError instead of an unchecked cast.

// TypedTransformer is the full-batch contract with a concrete config type.
type TypedTransformer[T StageConfig] interface {
	Init(ctx context.Context, cfg T, log *slog.Logger) error
	Transform(ctx context.Context, batch *Batch, cfg T, log *slog.Logger) (*Batch, error)
	Close(ctx context.Context, cfg T, log *slog.Logger) error
}

// FromTyped lifts a TypedTransformer into the generic Transformer contract.
func FromTyped[T StageConfig](t TypedTransformer[T]) Transformer {
	return &typedStage[T]{inner: t}
}

type typedStage[T StageConfig] struct {
	inner TypedTransformer[T]
}

func (s *typedStage[T]) Init(ctx context.Context, cfg StageConfig, log *slog.Logger) error {
	typed, err := ConfigAs[T](cfg)
	if err != nil {
		return err
	}
	return s.inner.Init(ctx, typed, log)
}

func (s *typedStage[T]) Transform(ctx context.Context, batch *Batch, cfg StageConfig, log *slog.Logger) (*Batch, error) {
	typed, err := ConfigAs[T](cfg)
	if err != nil {
		return nil, err
	}
	return s.inner.Transform(ctx, batch, typed, log)
}

func (s *typedStage[T]) Close(ctx context.Context, cfg StageConfig, log *slog.Logger) error {
	typed, err := ConfigAs[T](cfg)
	if err != nil {
		return err
	}
	return s.inner.Close(ctx, typed, log)
}

// TypedByteTransformer is the byte-record contract with a concrete config
// type; the narrowest, most convenient layer of the hierarchy.
type TypedByteTransformer[T StageConfig] interface {
	Init(ctx context.Context, cfg T, log *slog.Logger) error
	TransformBytes(ctx context.Context, records [][]byte, cfg T, log *slog.Logger) ([][]byte, error)
	Close(ctx context.Context, cfg T, log *slog.Logger) error
}

// FromTypedBytes lifts a TypedByteTransformer into the generic Transformer
// contract, composing the config extraction with the byte adapter.
func FromTypedBytes[T StageConfig](t TypedByteTransformer[T]) Transformer {
	return FromBytes(&typedByteStage[T]{inner: t})
}

type typedByteStage[T StageConfig] struct {
	inner TypedByteTransformer[T]
}

func (s *typedByteStage[T]) Init(ctx context.Context, cfg StageConfig, log *slog.Logger) error {
	typed, err := ConfigAs[T](cfg)
	if err != nil {
		return err
	}
	return s.inner.Init(ctx, typed, log)
}

func (s *typedByteStage[T]) TransformBytes(ctx context.Context, records [][]byte, cfg StageConfig, log *slog.Logger) ([][]byte, error) {
	typed, err := ConfigAs[T](cfg)
	if err != nil {
		return nil, err
	}
	return s.inner.TransformBytes(ctx, records, typed, log)
}

func (s *typedByteStage[T]) Close(ctx context.Context, cfg StageConfig, log *slog.Logger) error {
	typed, err := ConfigAs[T](cfg)
	if err != nil {
		return err
	}
	return s.inner.Close(ctx, typed, log)
}

// TypedTextTransformer is the text-record contract with a concrete config
// type.
type TypedTextTransformer[T StageConfig] interface {
	Init(ctx context.Context, cfg T, log *slog.Logger) error
	TransformText(ctx context.Context, records []string, cfg T, log *slog.Logger) ([]string, error)
	Close(ctx context.Context, cfg T, log *slog.Logger) error
}

// FromTypedText lifts a TypedTextTransformer into the generic Transformer
// contract.
func FromTypedText[T StageConfig](t TypedTextTransformer[T]) Transformer {
	return FromText(&typedTextStage[T]{inner: t})
}

type typedTextStage[T StageConfig] struct {
	inner TypedTextTransformer[T]
}

func (s *typedTextStage[T]) Init(ctx context.Context, cfg StageConfig, log *slog.Logger) error {
	typed, err := ConfigAs[T](cfg)
	if err != nil {
		return err
	}
	return s.inner.Init(ctx, typed, log)
}

func (s *typedTextStage[T]) TransformText(ctx context.Context, records []string, cfg StageConfig, log *slog.Logger) ([]string, error) {
	typed, err := ConfigAs[T](cfg)
	if err != nil {
		return nil, err
	}
	return s.inner.TransformText(ctx, records, typed, log)
}

func (s *typedTextStage[T]) Close(ctx context.Context, cfg StageConfig, log *slog.Logger) error {
	typed, err := ConfigAs[T](cfg)
	if err != nil {
		return err
	}
	return s.inner.Close(ctx, typed, log)
}
