package batchline

import "fmt"

// InvalidSchemaError is returned when a batch's shape violates what a stage
// variant requires, e.g. a byte-record stage fed a batch whose first field
// is neither text nor bytes. It indicates a miswired pipeline, not a
// transient condition; the engine should not retry it.
type InvalidSchemaError struct {
	Reason string
}

func (e *InvalidSchemaError) Error() string {
	return "batchline: invalid schema: " + e.Reason
}

// ConfigParseError is returned when a wire JSON document does not match the
// schema registered for its kind. Field names the offending field when it is
// known.
type ConfigParseError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *ConfigParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("batchline: parse config for kind %q: field %q: %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("batchline: parse config for kind %q: %s", e.Kind, e.Reason)
}

// ConfigKindMismatchError is returned when a StageConfig is used under a
// kind other than the one it was decoded for. This is a programming error in
// the caller, never recoverable data corruption.
type ConfigKindMismatchError struct {
	Want Kind
	Got  Kind
}

func (e *ConfigKindMismatchError) Error() string {
	return fmt.Sprintf("batchline: config kind mismatch: want %q, got %q", e.Want, e.Got)
}
