package stages

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/batchline/batchline"
)

func textBatch(t *testing.T, lines ...string) *batchline.Batch {
	t.Helper()
	rows := make([]batchline.Row, len(lines))
	for i, l := range lines {
		rows[i] = batchline.Row{l}
	}
	return batchline.MustNewBatch(
		batchline.Schema{Fields: []batchline.Field{{Name: "line", Type: batchline.TypeText}}},
		rows,
	)
}

func TestJSONStage(t *testing.T) {
	t.Run("parses each record into an object column", func(t *testing.T) {
		stage := NewJSON()
		cfg := batchline.JSONStageConfig{Column: "event"}

		out, err := stage.Transform(
			context.Background(),
			textBatch(t, `{"x":1}`, `{"y":["a","b"]}`),
			cfg,
			batchline.NullLogger(),
		)
		assert.NoError(t, err)
		assert.Equal(t, 2, out.NumRows())
		assert.Equal(t, "event", out.Schema().Fields[0].Name)
		assert.Equal(t, batchline.TypeObject, out.Schema().Fields[0].Type)

		first := out.Row(0)[0].(map[string]any)
		assert.Equal(t, float64(1), first["x"].(float64))
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		stage := NewJSON()
		cfg := batchline.JSONStageConfig{Column: "event"}

		_, err := stage.Transform(context.Background(), textBatch(t, `{"x":`), cfg, batchline.NullLogger())
		assert.Error(t, err)
	})

	t.Run("enforces the configured depth limit", func(t *testing.T) {
		stage := NewJSON()
		cfg := batchline.JSONStageConfig{Column: "event", MaxDepth: 1}

		_, err := stage.Transform(context.Background(), textBatch(t, `{"a":{"b":1}}`), cfg, batchline.NullLogger())
		assert.Error(t, err)

		_, err = stage.Transform(context.Background(), textBatch(t, `{"a":1}`), cfg, batchline.NullLogger())
		assert.NoError(t, err)
	})

	t.Run("fails on a non-adaptable batch", func(t *testing.T) {
		stage := NewJSON()
		cfg := batchline.JSONStageConfig{Column: "event"}

		b := batchline.MustNewBatch(
			batchline.Schema{Fields: []batchline.Field{{Name: "n", Type: batchline.TypeInt64}}},
			[]batchline.Row{{int64(1)}},
		)
		_, err := stage.Transform(context.Background(), b, cfg, batchline.NullLogger())
		assert.Error(t, err)
	})
}
