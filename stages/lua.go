package stages

import (
	"context"
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/batchline/batchline"
)

const defaultLuaFunction = "transform"

// NewLua creates the lua-stage: the configured script is loaded once in
// Init and must define a global function taking one text record and
// returning the transformed record. The interpreter state lives for the
// stage lifetime and is released in Close.
func NewLua() batchline.Transformer {
	return batchline.FromTypedText[batchline.LuaStageConfig](&luaStage{})
}

type luaStage struct {
	state *lua.LState
	fn    *lua.LFunction
}

func (s *luaStage) Init(ctx context.Context, cfg batchline.LuaStageConfig, log *slog.Logger) error {
	L := lua.NewState()
	if err := L.DoString(cfg.Script); err != nil {
		L.Close()
		return fmt.Errorf("stages: lua: load script: %w", err)
	}

	name := cfg.Function
	if name == "" {
		name = defaultLuaFunction
	}
	fn, ok := L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		L.Close()
		return fmt.Errorf("stages: lua: script defines no function %q", name)
	}

	s.state = L
	s.fn = fn
	log.Debug("lua stage ready", "function", name)
	return nil
}

func (s *luaStage) TransformText(ctx context.Context, records []string, cfg batchline.LuaStageConfig, log *slog.Logger) ([]string, error) {
	if s.state == nil {
		return nil, fmt.Errorf("stages: lua stage used before Init")
	}

	out := make([]string, 0, len(records))
	for i, record := range records {
		s.state.Push(s.fn)
		s.state.Push(lua.LString(record))
		if err := s.state.PCall(1, 1, nil); err != nil {
			return nil, fmt.Errorf("stages: lua: record %d: %w", i, err)
		}
		ret := s.state.Get(-1)
		s.state.Pop(1)
		if ret.Type() != lua.LTString {
			return nil, fmt.Errorf("stages: lua: record %d: function returned %s, want string", i, ret.Type())
		}
		out = append(out, lua.LVAsString(ret))
	}
	return out, nil
}

func (s *luaStage) Close(ctx context.Context, cfg batchline.LuaStageConfig, log *slog.Logger) error {
	if s.state != nil {
		s.state.Close()
		s.state = nil
	}
	return nil
}
