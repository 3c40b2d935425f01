package batchline

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSchemaValidate(t *testing.T) {
	t.Run("accepts a well-formed schema", func(t *testing.T) {
		s := Schema{Fields: []Field{
			{Name: "line", Type: TypeText},
			{Name: "payload", Type: TypeBytes, Nullable: true},
		}}
		assert.NoError(t, s.Validate())
	})

	t.Run("rejects an empty schema", func(t *testing.T) {
		err := Schema{}.Validate()
		var schemaErr *InvalidSchemaError
		assert.True(t, errors.As(err, &schemaErr))
	})

	t.Run("rejects duplicate field names", func(t *testing.T) {
		s := Schema{Fields: []Field{
			{Name: "line", Type: TypeText},
			{Name: "line", Type: TypeBytes},
		}}
		var schemaErr *InvalidSchemaError
		assert.True(t, errors.As(s.Validate(), &schemaErr))
	})

	t.Run("rejects unnamed fields", func(t *testing.T) {
		s := Schema{Fields: []Field{{Type: TypeText}}}
		var schemaErr *InvalidSchemaError
		assert.True(t, errors.As(s.Validate(), &schemaErr))
	})
}

func TestNewBatch(t *testing.T) {
	schema := Schema{Fields: []Field{
		{Name: "line", Type: TypeText},
		{Name: "n", Type: TypeInt64},
	}}

	t.Run("accepts matching rows", func(t *testing.T) {
		b, err := NewBatch(schema, []Row{{"a", int64(1)}, {"b", int64(2)}})
		assert.NoError(t, err)
		assert.Equal(t, 2, b.NumRows())
		assert.Equal(t, "a", b.Row(0)[0].(string))
	})

	t.Run("rejects arity mismatch", func(t *testing.T) {
		_, err := NewBatch(schema, []Row{{"a"}})
		assert.Error(t, err)
	})

	t.Run("field lookup", func(t *testing.T) {
		b := MustNewBatch(schema, nil)
		f, ok := b.Schema().Field("n")
		assert.True(t, ok)
		assert.Equal(t, TypeInt64, f.Type)
		_, ok = b.Schema().Field("missing")
		assert.False(t, ok)
		assert.Equal(t, []string{"line", "n"}, b.Schema().FieldNames())
	})
}
