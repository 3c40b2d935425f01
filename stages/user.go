package stages

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/batchline/batchline"
)

// UserConstructor builds a user transformer from the free-form config
// object of a user-stage definition.
type UserConstructor func(config map[string]any) (batchline.Transformer, error)

var (
	userMu           sync.RWMutex
	userConstructors = map[string]UserConstructor{}
)

// RegisterUser makes a user transformer available under the given class
// name. Registration normally happens from init functions, before any
// pipeline starts; registering the same name twice panics.
func RegisterUser(className string, constructor UserConstructor) {
	userMu.Lock()
	defer userMu.Unlock()
	if _, ok := userConstructors[className]; ok {
		panic(fmt.Sprintf("stages: user class %q registered twice", className))
	}
	userConstructors[className] = constructor
}

func lookupUser(className string) (UserConstructor, bool) {
	userMu.RLock()
	defer userMu.RUnlock()
	c, ok := userConstructors[className]
	return c, ok
}

// NewUser creates the user-stage: Init resolves the configured class name
// against the registered constructors, builds the author's transformer and
// delegates the whole lifecycle to it.
func NewUser() batchline.Transformer {
	return batchline.FromTyped[batchline.UserStageConfig](&userStage{})
}

type userStage struct {
	inner batchline.Transformer
}

func (s *userStage) Init(ctx context.Context, cfg batchline.UserStageConfig, log *slog.Logger) error {
	constructor, ok := lookupUser(cfg.ClassName)
	if !ok {
		return fmt.Errorf("stages: user class %q is not registered", cfg.ClassName)
	}
	inner, err := constructor(cfg.Config)
	if err != nil {
		return fmt.Errorf("stages: construct user class %q: %w", cfg.ClassName, err)
	}
	s.inner = inner
	return s.inner.Init(ctx, cfg, log)
}

func (s *userStage) Transform(ctx context.Context, batch *batchline.Batch, cfg batchline.UserStageConfig, log *slog.Logger) (*batchline.Batch, error) {
	if s.inner == nil {
		return nil, fmt.Errorf("stages: user stage used before Init")
	}
	return s.inner.Transform(ctx, batch, cfg, log)
}

func (s *userStage) Close(ctx context.Context, cfg batchline.UserStageConfig, log *slog.Logger) error {
	if s.inner == nil {
		return nil
	}
	return s.inner.Close(ctx, cfg, log)
}
