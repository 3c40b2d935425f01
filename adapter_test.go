package batchline

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func textBatch(lines ...string) *Batch {
	rows := make([]Row, len(lines))
	for i, l := range lines {
		rows[i] = Row{l}
	}
	return MustNewBatch(Schema{Fields: []Field{{Name: "line", Type: TypeText}}}, rows)
}

func bytesBatch(records ...[]byte) *Batch {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{r}
	}
	return MustNewBatch(Schema{Fields: []Field{{Name: "payload", Type: TypeBytes}}}, rows)
}

func TestTextRecords(t *testing.T) {
	t.Run("yields rows in original order", func(t *testing.T) {
		it, err := TextRecords(textBatch("a", "b", "c"))
		assert.NoError(t, err)
		records, err := CollectText(it)
		assert.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, records)
	})

	t.Run("decodes a bytes column as utf-8", func(t *testing.T) {
		it, err := TextRecords(bytesBatch([]byte("grüße"), []byte("日本")))
		assert.NoError(t, err)
		records, err := CollectText(it)
		assert.NoError(t, err)
		assert.Equal(t, []string{"grüße", "日本"}, records)
	})

	t.Run("fails on malformed utf-8 instead of replacing", func(t *testing.T) {
		it, err := TextRecords(bytesBatch([]byte{0xff, 0xfe}))
		assert.NoError(t, err)
		_, err = CollectText(it)
		assert.Error(t, err)
	})
}

func TestByteRecords(t *testing.T) {
	t.Run("converts text rows to bytes", func(t *testing.T) {
		it, err := ByteRecords(textBatch("a", "b"))
		assert.NoError(t, err)
		records, err := CollectBytes(it)
		assert.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, records)
	})

	t.Run("rejects an object-typed first column before reading rows", func(t *testing.T) {
		b := MustNewBatch(
			Schema{Fields: []Field{{Name: "event", Type: TypeObject}}},
			[]Row{{map[string]any{"x": 1}}},
		)
		_, err := ByteRecords(b)
		var schemaErr *InvalidSchemaError
		assert.True(t, errors.As(err, &schemaErr))
	})

	t.Run("rejects an empty schema", func(t *testing.T) {
		_, err := ByteRecords(&Batch{})
		var schemaErr *InvalidSchemaError
		assert.True(t, errors.As(err, &schemaErr))
	})

	t.Run("fails on a null first-field value", func(t *testing.T) {
		b := MustNewBatch(
			Schema{Fields: []Field{{Name: "payload", Type: TypeBytes, Nullable: true}}},
			[]Row{{nil}},
		)
		it, err := ByteRecords(b)
		assert.NoError(t, err)
		_, err = CollectBytes(it)
		assert.Error(t, err)
	})

	t.Run("is single-pass", func(t *testing.T) {
		it, err := ByteRecords(textBatch("a"))
		assert.NoError(t, err)
		assert.True(t, it.Next())
		assert.False(t, it.Next())
		assert.False(t, it.Next())
		assert.NoError(t, it.Err())
	})
}

func TestRecordRoundTrip(t *testing.T) {
	t.Run("valid utf-8 round-trips losslessly", func(t *testing.T) {
		for _, input := range [][]byte{[]byte(""), []byte("plain"), []byte("grüße 日本 ✓")} {
			s, err := RecordText(input)
			assert.NoError(t, err)
			assert.Equal(t, input, RecordBytes(s))
		}
	})

	t.Run("invalid utf-8 is an error", func(t *testing.T) {
		_, err := RecordText([]byte{0xc3, 0x28})
		assert.Error(t, err)
	})
}

func TestAdapterRoundTripPerRow(t *testing.T) {
	// bytes -> text -> bytes must reproduce the original record for every
	// row of a valid utf-8 batch.
	original := [][]byte{[]byte("a"), []byte("grüße"), []byte("")}
	it, err := TextRecords(bytesBatch(original...))
	assert.NoError(t, err)
	texts, err := CollectText(it)
	assert.NoError(t, err)
	for i, s := range texts {
		assert.Equal(t, original[i], RecordBytes(s))
	}
}
