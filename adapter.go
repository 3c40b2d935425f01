package batchline

import (
	"fmt"
	"unicode/utf8"
)

// The type adapter reshapes a batch whose first field is text- or
// bytes-typed into a flat record sequence, so that byte- and text-level
// stages never touch the tabular batch type. Iteration is lazy, single-pass
// and non-restartable; the schema check happens up front, before any row is
// read.

// adaptableField returns the batch's first field if the batch can be adapted
// to a record sequence.
func adaptableField(b *Batch) (Field, error) {
	if len(b.schema.Fields) == 0 {
		return Field{}, &InvalidSchemaError{Reason: "schema has no fields"}
	}
	f := b.schema.Fields[0]
	if f.Type != TypeText && f.Type != TypeBytes {
		return Field{}, &InvalidSchemaError{
			Reason: fmt.Sprintf("first field %q has type %s, want text or bytes", f.Name, f.Type),
		}
	}
	return f, nil
}

// ByteRecordIterator iterates over the first-field values of a batch as raw
// byte records.
type ByteRecordIterator struct {
	batch *Batch
	field Field
	idx   int
	cur   []byte
	err   error
}

// ByteRecords adapts a batch into a byte record sequence. The batch's first
// field must be text- or bytes-typed; anything else fails with
// InvalidSchemaError before any row is read.
func ByteRecords(b *Batch) (*ByteRecordIterator, error) {
	f, err := adaptableField(b)
	if err != nil {
		return nil, err
	}
	return &ByteRecordIterator{batch: b, field: f}, nil
}

// Next advances the iterator. It returns false when the rows are exhausted
// or a row could not be converted; check Err afterwards.
func (it *ByteRecordIterator) Next() bool {
	if it.err != nil || it.idx >= it.batch.NumRows() {
		return false
	}
	v := it.batch.Row(it.idx)[0]
	it.idx++
	switch x := v.(type) {
	case []byte:
		it.cur = x
	case string:
		it.cur = []byte(x)
	case nil:
		it.err = fmt.Errorf("batchline: row %d: null value in field %q", it.idx-1, it.field.Name)
		return false
	default:
		it.err = fmt.Errorf("batchline: row %d: field %q holds %T, want string or []byte", it.idx-1, it.field.Name, v)
		return false
	}
	return true
}

// Record returns the current record. Only valid after Next returned true.
func (it *ByteRecordIterator) Record() []byte { return it.cur }

// Err returns the first error encountered during iteration.
func (it *ByteRecordIterator) Err() error { return it.err }

// TextRecordIterator iterates over the first-field values of a batch as
// UTF-8 text records.
type TextRecordIterator struct {
	inner *ByteRecordIterator
	cur   string
}

// TextRecords adapts a batch into a text record sequence. Bytes-typed first
// fields are decoded as UTF-8; malformed sequences fail the iteration rather
// than being replaced, so no data is silently rewritten.
func TextRecords(b *Batch) (*TextRecordIterator, error) {
	inner, err := ByteRecords(b)
	if err != nil {
		return nil, err
	}
	return &TextRecordIterator{inner: inner}, nil
}

// Next advances the iterator. It returns false when the rows are exhausted
// or a record is not valid UTF-8; check Err afterwards.
func (it *TextRecordIterator) Next() bool {
	if !it.inner.Next() {
		return false
	}
	s, err := RecordText(it.inner.Record())
	if err != nil {
		it.inner.err = fmt.Errorf("batchline: row %d: %w", it.inner.idx-1, err)
		return false
	}
	it.cur = s
	return true
}

// Record returns the current record. Only valid after Next returned true.
func (it *TextRecordIterator) Record() string { return it.cur }

// Err returns the first error encountered during iteration.
func (it *TextRecordIterator) Err() error { return it.inner.err }

// RecordText decodes a single byte record as UTF-8 text. Decoding is
// strict: invalid sequences are an error, not replacement runes, so
// RecordText(RecordBytes(s)) round-trips losslessly for all valid input.
func RecordText(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("batchline: record is not valid utf-8")
	}
	return string(b), nil
}

// RecordBytes encodes a text record as UTF-8 bytes.
func RecordBytes(s string) []byte { return []byte(s) }

// CollectBytes drains a byte record iterator into a slice.
func CollectBytes(it *ByteRecordIterator) ([][]byte, error) {
	var out [][]byte
	for it.Next() {
		out = append(out, it.Record())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CollectText drains a text record iterator into a slice.
func CollectText(it *TextRecordIterator) ([]string, error) {
	var out []string
	for it.Next() {
		out = append(out, it.Record())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
