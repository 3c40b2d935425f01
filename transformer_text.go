package batchline

import (
	"context"
	"log/slog"
)

// TextTransformer is the text-record stage contract, symmetric to
// ByteTransformer: the first column is adapted to UTF-8 text records, with
// bytes-typed columns decoded strictly before the implementation runs.
type TextTransformer interface {
	Init(ctx context.Context, cfg StageConfig, log *slog.Logger) error
	TransformText(ctx context.Context, records []string, cfg StageConfig, log *slog.Logger) ([]string, error)
	Close(ctx context.Context, cfg StageConfig, log *slog.Logger) error
}

// TextTransformerFunc adapts a plain function to TextTransformer.
type TextTransformerFunc func(ctx context.Context, records []string, cfg StageConfig, log *slog.Logger) ([]string, error)

func (f TextTransformerFunc) Init(context.Context, StageConfig, *slog.Logger) error { return nil }

func (f TextTransformerFunc) TransformText(ctx context.Context, records []string, cfg StageConfig, log *slog.Logger) ([]string, error) {
	return f(ctx, records, cfg, log)
}

func (f TextTransformerFunc) Close(context.Context, StageConfig, *slog.Logger) error { return nil }

// FromText lifts a TextTransformer into the full Transformer contract via
// the type adapter, mirroring FromBytes.
func FromText(t TextTransformer) Transformer {
	return &textStage{inner: t}
}

type textStage struct {
	inner TextTransformer
}

func (s *textStage) Init(ctx context.Context, cfg StageConfig, log *slog.Logger) error {
	return s.inner.Init(ctx, cfg, log)
}

func (s *textStage) Transform(ctx context.Context, batch *Batch, cfg StageConfig, log *slog.Logger) (*Batch, error) {
	it, err := TextRecords(batch)
	if err != nil {
		return nil, err
	}
	records, err := CollectText(it)
	if err != nil {
		return nil, err
	}
	out, err := s.inner.TransformText(ctx, records, cfg, log)
	if err != nil {
		return nil, err
	}
	return recordBatch(batch, TypeText, func(i int) any { return out[i] }, len(out))
}

func (s *textStage) Close(ctx context.Context, cfg StageConfig, log *slog.Logger) error {
	return s.inner.Close(ctx, cfg, log)
}
