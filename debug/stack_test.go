package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushAndTrace(t *testing.T) {
	tr := NewStackTracker()
	id := tr.Push("A", "f.twee", 1)

	frames := tr.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, "A", frames[0].Passage)
	assert.Equal(t, id, frames[0].ID)
	assert.Equal(t, "f.twee", frames[0].SourceName())
}

func TestIDsMonotonicNeverReused(t *testing.T) {
	tr := NewStackTracker()
	a := tr.Push("A", "f.twee", 1)
	b := tr.Push("B", "f.twee", 5)
	assert.Greater(t, b, a)

	tr.Pop()
	c := tr.Push("C", "f.twee", 9)
	assert.Greater(t, c, b, "popped ids are never reused")
}

func TestTraceMostRecentFirst(t *testing.T) {
	tr := NewStackTracker()
	tr.Push("Outer", "f.twee", 1)
	tr.Push("Inner", "f.twee", 10)

	frames := tr.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, "Inner", frames[0].Passage)
	assert.Equal(t, "Outer", frames[1].Passage)
}

func TestUnknownSourceName(t *testing.T) {
	tr := NewStackTracker()
	tr.Push("Mystery", "", 0)
	assert.Equal(t, "<unknown>", tr.Top().SourceName())
}

func TestUpdateCurrentLine(t *testing.T) {
	tr := NewStackTracker()

	// No frames: no-op.
	tr.UpdateCurrentLine(10)

	tr.Push("A", "f.twee", 1)
	tr.Push("B", "f.twee", 5)
	tr.UpdateCurrentLine(8)

	assert.Equal(t, 8, tr.Top().Line)
	assert.Equal(t, 1, tr.Frames()[1].Line, "only the topmost frame advances")
	assert.Equal(t, 2, tr.Depth())
}

func TestLookup(t *testing.T) {
	tr := NewStackTracker()
	id := tr.Push("A", "f.twee", 1)

	f, ok := tr.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "A", f.Passage)

	_, ok = tr.Lookup(999)
	assert.False(t, ok)
}

func TestPopEmptyIsNoop(t *testing.T) {
	tr := NewStackTracker()
	tr.Pop()
	assert.Equal(t, 0, tr.Depth())
}
