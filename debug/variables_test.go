package debug

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarsHaveNoReference(t *testing.T) {
	v := NewVirtualizer()
	tests := []struct {
		name  string
		value any
		out   string
		typ   string
	}{
		{"n", 42, "42", "number"},
		{"f", 3.5, "3.5", "number"},
		{"b", true, "true", "boolean"},
		{"s", "hi", `"hi"`, "string"},
		{"nothing", nil, "nil", "nil"},
	}
	for _, tt := range tests {
		rec := v.Serialize(tt.name, tt.value)
		assert.Equal(t, tt.out, rec.Value, tt.name)
		assert.Equal(t, tt.typ, rec.Type, tt.name)
		assert.Zero(t, rec.VariablesReference, tt.name)
	}
}

func TestStringEscaping(t *testing.T) {
	v := NewVirtualizer()
	rec := v.Serialize("s", "a\\b\"c\nd\re\tf")
	assert.Equal(t, `"a\\b\"c\nd\re\tf"`, rec.Value)
}

func TestSameInstanceSameHandle(t *testing.T) {
	v := NewVirtualizer()
	table := map[string]any{"k": "v"}

	a := v.Serialize("t", table)
	b := v.Serialize("t", table)
	assert.Equal(t, a.VariablesReference, b.VariablesReference)
	assert.NotZero(t, a.VariablesReference)
}

func TestDistinctInstancesDistinctHandles(t *testing.T) {
	v := NewVirtualizer()
	a := v.Serialize("a", map[string]any{"k": "v"})
	b := v.Serialize("b", map[string]any{"k": "v"})
	assert.NotEqual(t, a.VariablesReference, b.VariablesReference,
		"equal content is not the same instance")
}

func TestCompoundDisplay(t *testing.T) {
	v := NewVirtualizer()
	rec := v.Serialize("t", map[string]any{"1": 10, "2": 20, "k": "v"})
	assert.Equal(t, "table[3]", rec.Value)
	assert.Equal(t, "table", rec.Type)
}

func TestExpandOrdering(t *testing.T) {
	v := NewVirtualizer()
	rec := v.Serialize("t", map[string]any{"k": "v", "2": 20, "1": 10})

	entries, ok := v.Expand(rec.VariablesReference)
	require.True(t, ok)
	require.Len(t, entries, 3)
	// Array part in index order first, then remaining keys sorted.
	assert.Equal(t, "1", entries[0].Name)
	assert.Equal(t, "10", entries[0].Value)
	assert.Equal(t, "2", entries[1].Name)
	assert.Equal(t, "20", entries[1].Value)
	assert.Equal(t, "k", entries[2].Name)
	assert.Equal(t, `"v"`, entries[2].Value)
}

func TestExpandSlice(t *testing.T) {
	v := NewVirtualizer()
	rec := v.Serialize("t", []any{"a", "b"})

	entries, ok := v.Expand(rec.VariablesReference)
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].Name)
	assert.Equal(t, "2", entries[1].Name)
}

func TestExpandUnknownHandle(t *testing.T) {
	v := NewVirtualizer()
	_, ok := v.Expand(99)
	assert.False(t, ok)
}

func TestNestedTables(t *testing.T) {
	v := NewVirtualizer()
	inner := map[string]any{"hp": 10}
	outer := map[string]any{"player": inner}

	rec := v.Serialize("state", outer)
	entries, ok := v.Expand(rec.VariablesReference)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.NotZero(t, entries[0].VariablesReference)

	// Re-expanding yields the same child handle.
	again, _ := v.Expand(rec.VariablesReference)
	assert.Equal(t, entries[0].VariablesReference, again[0].VariablesReference)
}

func TestSerializeEvalResult(t *testing.T) {
	v := NewVirtualizer()

	rec := v.SerializeEvalResult(nil, errors.New("boom"))
	assert.Equal(t, "error", rec.Type)
	assert.Equal(t, "boom", rec.Value)
	assert.Zero(t, rec.VariablesReference)

	rec = v.SerializeEvalResult(7, nil)
	assert.Equal(t, "number", rec.Type)
	assert.Equal(t, "7", rec.Value)
}

func TestResetDropsHandles(t *testing.T) {
	v := NewVirtualizer()
	rec := v.Serialize("t", map[string]any{"k": 1})
	v.Reset()
	_, ok := v.Expand(rec.VariablesReference)
	assert.False(t, ok)
}
