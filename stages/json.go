package stages

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/bcicen/jstream"

	"github.com/batchline/batchline"
)

// NewJSON creates the json-stage: each incoming byte record is parsed as
// one JSON document and emitted as a row of a single object-typed column.
func NewJSON() batchline.Transformer {
	return batchline.FromTyped[batchline.JSONStageConfig](&jsonStage{})
}

type jsonStage struct{}

func (s *jsonStage) Init(ctx context.Context, cfg batchline.JSONStageConfig, log *slog.Logger) error {
	return nil
}

func (s *jsonStage) Transform(ctx context.Context, batch *batchline.Batch, cfg batchline.JSONStageConfig, log *slog.Logger) (*batchline.Batch, error) {
	it, err := batchline.ByteRecords(batch)
	if err != nil {
		return nil, err
	}
	records, err := batchline.CollectBytes(it)
	if err != nil {
		return nil, err
	}

	rows := make([]batchline.Row, 0, len(records))
	for i, rec := range records {
		value, err := parseDocument(rec, cfg.MaxDepth)
		if err != nil {
			return nil, fmt.Errorf("stages: json: record %d: %w", i, err)
		}
		rows = append(rows, batchline.Row{value})
	}

	schema := batchline.Schema{Fields: []batchline.Field{{Name: cfg.Column, Type: batchline.TypeObject}}}
	return batchline.NewBatch(schema, rows)
}

func (s *jsonStage) Close(ctx context.Context, cfg batchline.JSONStageConfig, log *slog.Logger) error {
	return nil
}

// parseDocument streams one JSON document off the record. Emit depth 0
// yields the root value, so a record carries exactly one document.
func parseDocument(rec []byte, maxDepth int) (any, error) {
	decoder := jstream.NewDecoder(bytes.NewReader(rec), 0)

	var value any
	seen := false
	for mv := range decoder.Stream() {
		if seen {
			return nil, fmt.Errorf("more than one document in record")
		}
		value = mv.Value
		seen = true
	}
	if err := decoder.Err(); err != nil {
		return nil, err
	}
	if !seen {
		return nil, fmt.Errorf("empty record")
	}
	if maxDepth > 0 {
		if d := nestingDepth(value); d > maxDepth {
			return nil, fmt.Errorf("document nests %d levels, limit is %d", d, maxDepth)
		}
	}
	return value, nil
}

func nestingDepth(v any) int {
	switch x := v.(type) {
	case map[string]any:
		max := 0
		for _, child := range x {
			if d := nestingDepth(child); d > max {
				max = d
			}
		}
		return max + 1
	case []any:
		max := 0
		for _, child := range x {
			if d := nestingDepth(child); d > max {
				max = d
			}
		}
		return max + 1
	default:
		return 0
	}
}
