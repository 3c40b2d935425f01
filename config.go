package batchline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

// Kind is the symbolic identifier selecting which configuration schema
// applies to a stage. The set of kinds is closed at compile time: adding a
// stage kind means declaring a config type and one registerKind call below.
type Kind string

const (
	KindJSON  Kind = "json-stage"
	KindCSV   Kind = "csv-stage"
	KindUser  Kind = "user-stage"
	KindLua   Kind = "lua-stage"
	KindDedup Kind = "dedup-stage"
)

// StageConfig is the typed, decoded configuration payload for one stage
// instance. A config decoded under one kind may only ever be encoded or
// interpreted under that same kind; DecodeConfig, EncodeConfig and ConfigAs
// enforce this.
type StageConfig interface {
	Kind() Kind
}

type configCodec struct {
	decode func(json.RawMessage) (StageConfig, error)
	encode func(StageConfig) (json.RawMessage, error)
}

// kindCodecs is built once during package init and read-only afterwards, so
// DecodeConfig and EncodeConfig are safe for concurrent use.
var kindCodecs = map[Kind]configCodec{}

func init() {
	registerKind[JSONStageConfig](KindJSON)
	registerKind[CSVStageConfig](KindCSV)
	registerKind[UserStageConfig](KindUser)
	registerKind[LuaStageConfig](KindLua)
	registerKind[DedupStageConfig](KindDedup)
}

func registerKind[T interface {
	StageConfig
	validate() error
}](kind Kind) {
	if _, ok := kindCodecs[kind]; ok {
		panic(fmt.Sprintf("batchline: kind %q registered twice", kind))
	}
	kindCodecs[kind] = configCodec{
		decode: func(raw json.RawMessage) (StageConfig, error) {
			var cfg T
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&cfg); err != nil {
				return nil, decodeError(kind, err)
			}
			// The document must be a single JSON value.
			if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
				return nil, &ConfigParseError{Kind: kind, Reason: "trailing data after config document"}
			}
			if err := cfg.validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		},
		encode: func(cfg StageConfig) (json.RawMessage, error) {
			typed, ok := cfg.(T)
			if !ok {
				return nil, &ConfigKindMismatchError{Want: kind, Got: kindOf(cfg)}
			}
			raw, err := json.Marshal(typed)
			if err != nil {
				return nil, &ConfigParseError{Kind: kind, Reason: err.Error()}
			}
			return raw, nil
		},
	}
}

// Kinds returns every registered kind, sorted. The exhaustiveness of the
// registry over the declared Kind constants is asserted by a test.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindCodecs))
	for k := range kindCodecs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// DecodeConfig converts a wire JSON document into the typed config for the
// given kind. The document must match the kind's schema exactly: unknown
// fields, missing required fields and wrongly typed fields all fail with
// ConfigParseError naming the field.
func DecodeConfig(kind Kind, raw json.RawMessage) (StageConfig, error) {
	codec, ok := kindCodecs[kind]
	if !ok {
		return nil, &ConfigParseError{Kind: kind, Reason: "unknown kind"}
	}
	return codec.decode(raw)
}

// EncodeConfig converts a typed config back into its wire JSON document.
// The config's runtime kind must match the tag argument; a mismatch is a
// ConfigKindMismatchError, never a silent cross-kind encode.
func EncodeConfig(kind Kind, cfg StageConfig) (json.RawMessage, error) {
	codec, ok := kindCodecs[kind]
	if !ok {
		return nil, &ConfigParseError{Kind: kind, Reason: "unknown kind"}
	}
	if cfg == nil || cfg.Kind() != kind {
		return nil, &ConfigKindMismatchError{Want: kind, Got: kindOf(cfg)}
	}
	return codec.encode(cfg)
}

// ConfigAs extracts the concrete config type from a generic StageConfig
// handle. The engine only ever supplies a config decoded under the matching
// kind, so under a correctly wired pipeline the extraction cannot fail; if
// it does, the result is a ConfigKindMismatchError.
func ConfigAs[T StageConfig](cfg StageConfig) (T, error) {
	typed, ok := cfg.(T)
	if !ok {
		var zero T
		return zero, &ConfigKindMismatchError{Want: zero.Kind(), Got: kindOf(cfg)}
	}
	return typed, nil
}

func kindOf(cfg StageConfig) Kind {
	if cfg == nil {
		return ""
	}
	return cfg.Kind()
}

// decodeError maps an encoding/json error onto a ConfigParseError carrying
// the offending field where the json package exposes it.
func decodeError(kind Kind, err error) error {
	if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
		return &ConfigParseError{
			Kind:   kind,
			Field:  typeErr.Field,
			Reason: fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value),
		}
	}
	// DisallowUnknownFields reports `json: unknown field "<name>"`.
	if msg := err.Error(); strings.HasPrefix(msg, "json: unknown field ") {
		field := strings.Trim(strings.TrimPrefix(msg, "json: unknown field "), `"`)
		return &ConfigParseError{Kind: kind, Field: field, Reason: "unknown field"}
	}
	return &ConfigParseError{Kind: kind, Reason: err.Error()}
}

// JSONStageConfig configures the json-stage, which parses each byte record
// as one JSON document into an object column.
type JSONStageConfig struct {
	// Column is the name of the object column the stage emits.
	Column string `json:"column"`
	// MaxDepth bounds the nesting depth accepted by the parser; 0 means
	// unbounded.
	MaxDepth int `json:"max_depth,omitempty"`
}

func (JSONStageConfig) Kind() Kind { return KindJSON }

func (c JSONStageConfig) validate() error {
	if c.Column == "" {
		return &ConfigParseError{Kind: KindJSON, Field: "column", Reason: "required field missing"}
	}
	if c.MaxDepth < 0 {
		return &ConfigParseError{Kind: KindJSON, Field: "max_depth", Reason: "must not be negative"}
	}
	return nil
}

// CSVStageConfig configures the csv-stage, which splits each text record
// into the declared columns.
type CSVStageConfig struct {
	Columns []string `json:"columns"`
	// Delimiter is a single-rune field separator; defaults to a comma.
	Delimiter string `json:"delimiter,omitempty"`
	TrimSpace bool   `json:"trim_space,omitempty"`
}

func (CSVStageConfig) Kind() Kind { return KindCSV }

func (c CSVStageConfig) validate() error {
	if len(c.Columns) == 0 {
		return &ConfigParseError{Kind: KindCSV, Field: "columns", Reason: "required field missing"}
	}
	if c.Delimiter != "" && utf8.RuneCountInString(c.Delimiter) != 1 {
		return &ConfigParseError{Kind: KindCSV, Field: "delimiter", Reason: "must be a single character"}
	}
	return nil
}

// UserStageConfig configures the user-stage: ClassName selects a registered
// user transformer and Config is its free-form settings object.
type UserStageConfig struct {
	ClassName string         `json:"class_name"`
	Config    map[string]any `json:"config"`
}

func (UserStageConfig) Kind() Kind { return KindUser }

func (c UserStageConfig) validate() error {
	if c.ClassName == "" {
		return &ConfigParseError{Kind: KindUser, Field: "class_name", Reason: "required field missing"}
	}
	if c.Config == nil {
		return &ConfigParseError{Kind: KindUser, Field: "config", Reason: "required field missing"}
	}
	return nil
}

// LuaStageConfig configures the lua-stage, which runs a user script function
// over each text record.
type LuaStageConfig struct {
	Script string `json:"script"`
	// Function is the global function the script must define; defaults to
	// "transform".
	Function string `json:"function,omitempty"`
}

func (LuaStageConfig) Kind() Kind { return KindLua }

func (c LuaStageConfig) validate() error {
	if c.Script == "" {
		return &ConfigParseError{Kind: KindLua, Field: "script", Reason: "required field missing"}
	}
	return nil
}

// DedupStageConfig configures the dedup-stage, which drops byte records
// already seen, keyed in an embedded store under StateDir.
type DedupStageConfig struct {
	StateDir string `json:"state_dir"`
}

func (DedupStageConfig) Kind() Kind { return KindDedup }

func (c DedupStageConfig) validate() error {
	if c.StateDir == "" {
		return &ConfigParseError{Kind: KindDedup, Field: "state_dir", Reason: "required field missing"}
	}
	return nil
}
