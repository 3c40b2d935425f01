package batchline

import "fmt"

// FieldType identifies the logical type of a schema field.
type FieldType int

const (
	// TypeText is a UTF-8 string field.
	TypeText FieldType = iota
	// TypeBytes is a raw byte field.
	TypeBytes
	// TypeObject is an arbitrary nested value (maps, slices, scalars).
	TypeObject
	TypeInt64
	TypeFloat64
	TypeBool
)

func (t FieldType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeBytes:
		return "bytes"
	case TypeObject:
		return "object"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeBool:
		return "bool"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Field describes one column of a batch.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
	Metadata map[string]string
}

// Schema describes the shape of every row in a batch.
type Schema struct {
	Fields []Field
}

// Validate checks that the schema has at least one field, that every field
// is named, and that no two fields share a name.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return &InvalidSchemaError{Reason: "schema has no fields"}
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return &InvalidSchemaError{Reason: fmt.Sprintf("field %d has no name", i)}
		}
		if _, ok := seen[f.Name]; ok {
			return &InvalidSchemaError{Reason: fmt.Sprintf("duplicate field name %q", f.Name)}
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Field returns the field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Row is one record of a batch. Its arity always matches the batch schema.
type Row []any

// Batch is one bounded unit of rows processed together through a pipeline.
// A batch is owned transiently: a stage must not retain one past its own
// invocation, and must not mutate a batch it received as input.
type Batch struct {
	schema Schema
	rows   []Row
}

// NewBatch creates a batch from a schema and rows. Every row's arity must
// match the schema.
func NewBatch(schema Schema, rows []Row) (*Batch, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != len(schema.Fields) {
			return nil, fmt.Errorf("batchline: row %d has %d values, schema has %d fields", i, len(row), len(schema.Fields))
		}
	}
	return &Batch{schema: schema, rows: rows}, nil
}

// MustNewBatch is NewBatch, panicking on error. Intended for fixed test data.
func MustNewBatch(schema Schema, rows []Row) *Batch {
	b, err := NewBatch(schema, rows)
	if err != nil {
		panic(err)
	}
	return b
}

// Schema returns the batch schema.
func (b *Batch) Schema() Schema { return b.schema }

// NumRows returns the number of rows in the batch.
func (b *Batch) NumRows() int { return len(b.rows) }

// Row returns row i. The caller must not modify it.
func (b *Batch) Row(i int) Row { return b.rows[i] }
