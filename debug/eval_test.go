package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalArithmetic(t *testing.T) {
	e := NewEvaluator(0)
	out, err := e.Eval("gold * 2 + 1", map[string]any{"gold": 10})
	require.NoError(t, err)
	assert.EqualValues(t, 21, out)
}

func TestEvalComparison(t *testing.T) {
	e := NewEvaluator(0)
	ok, err := e.EvalBool(`name == "Imogen" && hp > 0`, map[string]any{"name": "Imogen", "hp": 3})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalUndefinedVariable(t *testing.T) {
	// Undefined names evaluate to nil instead of failing; stories set
	// variables lazily.
	e := NewEvaluator(0)
	ok, err := e.EvalBool("ghost == nil", map[string]any{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalBoolTruthiness(t *testing.T) {
	e := NewEvaluator(0)

	ok, err := e.EvalBool("5", nil)
	require.NoError(t, err)
	assert.True(t, ok, "non-boolean non-nil is truthy")

	ok, err = e.EvalBool("nil", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalCompileError(t *testing.T) {
	e := NewEvaluator(0)
	_, err := e.Eval("((", nil)
	assert.Error(t, err)
}

func TestEvalProgramCache(t *testing.T) {
	e := NewEvaluator(2)
	for i := 0; i < 10; i++ {
		out, err := e.Eval("x + 1", map[string]any{"x": i})
		require.NoError(t, err)
		assert.EqualValues(t, i+1, out)
	}
	// Eviction keeps the cache bounded without breaking results.
	_, err := e.Eval("x + 2", map[string]any{"x": 1})
	require.NoError(t, err)
	_, err = e.Eval("x + 3", map[string]any{"x": 1})
	require.NoError(t, err)
	out, err := e.Eval("x + 1", map[string]any{"x": 5})
	require.NoError(t, err)
	assert.EqualValues(t, 6, out)
}
