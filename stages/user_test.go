package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/batchline/batchline"
)

func init() {
	RegisterUser("UpperStage", func(config map[string]any) (batchline.Transformer, error) {
		return batchline.FromText(batchline.TextTransformerFunc(
			func(ctx context.Context, records []string, cfg batchline.StageConfig, log *slog.Logger) ([]string, error) {
				out := make([]string, len(records))
				for i, r := range records {
					out[i] = strings.ToUpper(r)
				}
				return out, nil
			},
		)), nil
	})
	RegisterUser("BrokenStage", func(config map[string]any) (batchline.Transformer, error) {
		return nil, fmt.Errorf("no such thing")
	})
}

func TestUserStage(t *testing.T) {
	t.Run("resolves the class name and delegates the lifecycle", func(t *testing.T) {
		stage := NewUser()
		cfg := batchline.UserStageConfig{ClassName: "UpperStage", Config: map[string]any{}}

		assert.NoError(t, stage.Init(context.Background(), cfg, batchline.NullLogger()))
		out, err := stage.Transform(context.Background(), textBatch(t, "a", "b"), cfg, batchline.NullLogger())
		assert.NoError(t, err)
		assert.NoError(t, stage.Close(context.Background(), cfg, batchline.NullLogger()))

		it, err := batchline.TextRecords(out)
		assert.NoError(t, err)
		records, err := batchline.CollectText(it)
		assert.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, records)
	})

	t.Run("unknown class name fails Init", func(t *testing.T) {
		stage := NewUser()
		cfg := batchline.UserStageConfig{ClassName: "NoSuchStage", Config: map[string]any{}}
		assert.Error(t, stage.Init(context.Background(), cfg, batchline.NullLogger()))
	})

	t.Run("constructor failure fails Init", func(t *testing.T) {
		stage := NewUser()
		cfg := batchline.UserStageConfig{ClassName: "BrokenStage", Config: map[string]any{}}
		assert.Error(t, stage.Init(context.Background(), cfg, batchline.NullLogger()))
	})

	t.Run("transform before Init is an error", func(t *testing.T) {
		stage := NewUser()
		cfg := batchline.UserStageConfig{ClassName: "UpperStage", Config: map[string]any{}}
		_, err := stage.Transform(context.Background(), textBatch(t, "a"), cfg, batchline.NullLogger())
		assert.Error(t, err)
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		defer func() {
			assert.True(t, recover() != nil)
		}()
		RegisterUser("UpperStage", func(config map[string]any) (batchline.Transformer, error) {
			return nil, nil
		})
	})
}
