package batchline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestFromText(t *testing.T) {
	t.Run("delivers records in original row order", func(t *testing.T) {
		var received []string
		stage := FromText(TextTransformerFunc(func(ctx context.Context, records []string, cfg StageConfig, log *slog.Logger) ([]string, error) {
			received = records
			return records, nil
		}))

		out, err := stage.Transform(context.Background(), textBatch("a", "b", "c"), nil, NullLogger())
		assert.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, received)
		assert.Equal(t, 3, out.NumRows())
	})

	t.Run("output batch is a text column named after the input", func(t *testing.T) {
		stage := FromText(TextTransformerFunc(func(ctx context.Context, records []string, cfg StageConfig, log *slog.Logger) ([]string, error) {
			out := make([]string, len(records))
			for i, r := range records {
				out[i] = strings.ToUpper(r)
			}
			return out, nil
		}))

		out, err := stage.Transform(context.Background(), textBatch("a"), nil, NullLogger())
		assert.NoError(t, err)
		assert.Equal(t, Schema{Fields: []Field{{Name: "line", Type: TypeText}}}, out.Schema())
		assert.Equal(t, "A", out.Row(0)[0].(string))
	})

	t.Run("output metadata is carried over but not aliased", func(t *testing.T) {
		in := MustNewBatch(
			Schema{Fields: []Field{{Name: "line", Type: TypeText, Metadata: map[string]string{"origin": "test"}}}},
			[]Row{{"a"}},
		)
		stage := FromText(TextTransformerFunc(func(ctx context.Context, records []string, cfg StageConfig, log *slog.Logger) ([]string, error) {
			return records, nil
		}))

		out, err := stage.Transform(context.Background(), in, nil, NullLogger())
		assert.NoError(t, err)
		assert.Equal(t, "test", out.Schema().Fields[0].Metadata["origin"])

		out.Schema().Fields[0].Metadata["origin"] = "mutated"
		assert.Equal(t, "test", in.Schema().Fields[0].Metadata["origin"])
	})

	t.Run("converts a bytes first column before delegating", func(t *testing.T) {
		var received []string
		stage := FromText(TextTransformerFunc(func(ctx context.Context, records []string, cfg StageConfig, log *slog.Logger) ([]string, error) {
			received = records
			return records, nil
		}))

		_, err := stage.Transform(context.Background(), bytesBatch([]byte("x")), nil, NullLogger())
		assert.NoError(t, err)
		assert.Equal(t, []string{"x"}, received)
	})
}

func TestFromBytes(t *testing.T) {
	t.Run("rejects an object first column before the stage runs", func(t *testing.T) {
		called := false
		stage := FromBytes(ByteTransformerFunc(func(ctx context.Context, records [][]byte, cfg StageConfig, log *slog.Logger) ([][]byte, error) {
			called = true
			return records, nil
		}))

		b := MustNewBatch(
			Schema{Fields: []Field{{Name: "event", Type: TypeObject}}},
			[]Row{{map[string]any{"x": 1}}},
		)
		_, err := stage.Transform(context.Background(), b, nil, NullLogger())
		var schemaErr *InvalidSchemaError
		assert.True(t, errors.As(err, &schemaErr))
		assert.False(t, called)
	})

	t.Run("wraps the output into a bytes column", func(t *testing.T) {
		stage := FromBytes(ByteTransformerFunc(func(ctx context.Context, records [][]byte, cfg StageConfig, log *slog.Logger) ([][]byte, error) {
			return [][]byte{[]byte("only")}, nil
		}))

		out, err := stage.Transform(context.Background(), textBatch("a", "b"), nil, NullLogger())
		assert.NoError(t, err)
		assert.Equal(t, 1, out.NumRows())
		assert.Equal(t, Schema{Fields: []Field{{Name: "line", Type: TypeBytes}}}, out.Schema())
		assert.Equal(t, []byte("only"), out.Row(0)[0].([]byte))
	})
}

type recordingTyped struct {
	initCalls  int
	closeCalls int
	lastConfig CSVStageConfig
}

func (r *recordingTyped) Init(ctx context.Context, cfg CSVStageConfig, log *slog.Logger) error {
	r.initCalls++
	r.lastConfig = cfg
	return nil
}

func (r *recordingTyped) Transform(ctx context.Context, batch *Batch, cfg CSVStageConfig, log *slog.Logger) (*Batch, error) {
	r.lastConfig = cfg
	return batch, nil
}

func (r *recordingTyped) Close(ctx context.Context, cfg CSVStageConfig, log *slog.Logger) error {
	r.closeCalls++
	return nil
}

func TestFromTyped(t *testing.T) {
	t.Run("passes the concrete config through", func(t *testing.T) {
		inner := &recordingTyped{}
		stage := FromTyped[CSVStageConfig](inner)

		cfg := CSVStageConfig{Columns: []string{"a"}}
		assert.NoError(t, stage.Init(context.Background(), cfg, NullLogger()))
		_, err := stage.Transform(context.Background(), textBatch("x"), cfg, NullLogger())
		assert.NoError(t, err)
		assert.NoError(t, stage.Close(context.Background(), cfg, NullLogger()))
		assert.Equal(t, 1, inner.initCalls)
		assert.Equal(t, 1, inner.closeCalls)
		assert.Equal(t, []string{"a"}, inner.lastConfig.Columns)
	})

	t.Run("config supplied under the wrong kind fails loudly", func(t *testing.T) {
		stage := FromTyped[CSVStageConfig](&recordingTyped{})

		wrong := UserStageConfig{ClassName: "X", Config: map[string]any{}}
		err := stage.Init(context.Background(), wrong, NullLogger())
		var mismatch *ConfigKindMismatchError
		assert.True(t, errors.As(err, &mismatch))
		assert.Equal(t, KindCSV, mismatch.Want)
		assert.Equal(t, KindUser, mismatch.Got)

		_, err = stage.Transform(context.Background(), textBatch("x"), wrong, NullLogger())
		assert.True(t, errors.As(err, &mismatch))
	})
}

type upperTypedText struct{}

func (upperTypedText) Init(context.Context, LuaStageConfig, *slog.Logger) error { return nil }

func (upperTypedText) TransformText(ctx context.Context, records []string, cfg LuaStageConfig, log *slog.Logger) ([]string, error) {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = strings.ToUpper(r)
	}
	return out, nil
}

func (upperTypedText) Close(context.Context, LuaStageConfig, *slog.Logger) error { return nil }

func TestTypedNarrowVariants(t *testing.T) {
	t.Run("typed text variant composes adapter and config extraction", func(t *testing.T) {
		stage := FromTypedText[LuaStageConfig](upperTypedText{})
		out, err := stage.Transform(context.Background(), textBatch("a", "b"), LuaStageConfig{Script: "s"}, NullLogger())
		assert.NoError(t, err)
		assert.Equal(t, 2, out.NumRows())
		assert.Equal(t, "A", out.Row(0)[0].(string))
	})

	t.Run("typed byte variant propagates kind mismatch", func(t *testing.T) {
		stage := FromTypedBytes[DedupStageConfig](typedByteNop{})
		_, err := stage.Transform(context.Background(), textBatch("a"), LuaStageConfig{Script: "s"}, NullLogger())
		var mismatch *ConfigKindMismatchError
		assert.True(t, errors.As(err, &mismatch))
	})
}

type typedByteNop struct{}

func (typedByteNop) Init(context.Context, DedupStageConfig, *slog.Logger) error { return nil }

func (typedByteNop) TransformBytes(ctx context.Context, records [][]byte, cfg DedupStageConfig, log *slog.Logger) ([][]byte, error) {
	return records, nil
}

func (typedByteNop) Close(context.Context, DedupStageConfig, *slog.Logger) error { return nil }

func TestBaseAndFuncAdapters(t *testing.T) {
	t.Run("Base is a no-op lifecycle", func(t *testing.T) {
		var b Base
		assert.NoError(t, b.Init(context.Background(), nil, NullLogger()))
		assert.NoError(t, b.Close(context.Background(), nil, NullLogger()))
	})

	t.Run("TransformerFunc has a no-op lifecycle", func(t *testing.T) {
		f := TransformerFunc(func(ctx context.Context, batch *Batch, cfg StageConfig, log *slog.Logger) (*Batch, error) {
			return batch, nil
		})
		assert.NoError(t, f.Init(context.Background(), nil, NullLogger()))
		out, err := f.Transform(context.Background(), textBatch("x"), nil, NullLogger())
		assert.NoError(t, err)
		assert.Equal(t, 1, out.NumRows())
		assert.NoError(t, f.Close(context.Background(), nil, NullLogger()))
	})
}
