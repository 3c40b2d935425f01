package batchline

import (
	"context"
	"log/slog"
	"maps"
)

// ByteTransformer is the byte-record stage contract: instead of a full
// batch, the implementation receives the batch's first column adapted to a
// flat sequence of raw byte records. Authors who only care about byte
// payloads never touch the batch type.
type ByteTransformer interface {
	Init(ctx context.Context, cfg StageConfig, log *slog.Logger) error
	TransformBytes(ctx context.Context, records [][]byte, cfg StageConfig, log *slog.Logger) ([][]byte, error)
	Close(ctx context.Context, cfg StageConfig, log *slog.Logger) error
}

// ByteTransformerFunc adapts a plain function to ByteTransformer.
type ByteTransformerFunc func(ctx context.Context, records [][]byte, cfg StageConfig, log *slog.Logger) ([][]byte, error)

func (f ByteTransformerFunc) Init(context.Context, StageConfig, *slog.Logger) error { return nil }

func (f ByteTransformerFunc) TransformBytes(ctx context.Context, records [][]byte, cfg StageConfig, log *slog.Logger) ([][]byte, error) {
	return f(ctx, records, cfg, log)
}

func (f ByteTransformerFunc) Close(context.Context, StageConfig, *slog.Logger) error { return nil }

// FromBytes lifts a ByteTransformer into the full Transformer contract by
// running the type adapter in front of it. If the batch's first column is
// neither text- nor bytes-typed, Transform fails with InvalidSchemaError
// before any record reaches the implementation.
func FromBytes(t ByteTransformer) Transformer {
	return &byteStage{inner: t}
}

type byteStage struct {
	inner ByteTransformer
}

func (s *byteStage) Init(ctx context.Context, cfg StageConfig, log *slog.Logger) error {
	return s.inner.Init(ctx, cfg, log)
}

func (s *byteStage) Transform(ctx context.Context, batch *Batch, cfg StageConfig, log *slog.Logger) (*Batch, error) {
	it, err := ByteRecords(batch)
	if err != nil {
		return nil, err
	}
	records, err := CollectBytes(it)
	if err != nil {
		return nil, err
	}
	out, err := s.inner.TransformBytes(ctx, records, cfg, log)
	if err != nil {
		return nil, err
	}
	return recordBatch(batch, TypeBytes, func(i int) any { return out[i] }, len(out))
}

func (s *byteStage) Close(ctx context.Context, cfg StageConfig, log *slog.Logger) error {
	return s.inner.Close(ctx, cfg, log)
}

// recordBatch wraps a transformed record sequence back into a single-column
// batch, preserving the input's first field name and metadata so downstream
// stages keep a stable contract. The metadata map is copied; the output
// schema must not alias the input batch.
func recordBatch(in *Batch, typ FieldType, value func(i int) any, n int) (*Batch, error) {
	first := in.Schema().Fields[0]
	schema := Schema{Fields: []Field{{Name: first.Name, Type: typ, Metadata: maps.Clone(first.Metadata)}}}
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = Row{value(i)}
	}
	return NewBatch(schema, rows)
}
