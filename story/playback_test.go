package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	runtime Runtime
	visited []string
}

func (n *recordingNavigator) Navigate(passage string) error {
	n.visited = append(n.visited, passage)
	return n.runtime.Enter(passage)
}

func TestPlaybackWalksDeclarationOrder(t *testing.T) {
	path := writeStory(t, "story.twee", `:: Start
One.
:: Crossroads
Two.
:: End
Three.
`)
	rt := NewPlaybackRuntime(DialectTwee)
	require.NoError(t, rt.LoadFile(path))

	nav := &recordingNavigator{runtime: rt}
	rt.Bind(nav)
	require.NoError(t, rt.Start())

	assert.Equal(t, []string{"Start", "Crossroads", "End"}, nav.visited)
	assert.True(t, rt.Ended())

	current, ok := rt.CurrentPassage()
	require.True(t, ok)
	assert.Equal(t, "End", current)
	assert.Equal(t, 3, rt.State()["visits"])
}

func TestPlaybackLoadFailures(t *testing.T) {
	rt := NewPlaybackRuntime(DialectTwee)
	assert.Error(t, rt.LoadFile("/nonexistent/story.twee"))

	empty := writeStory(t, "empty.twee", "just prose, no passages\n")
	assert.Error(t, rt.LoadFile(empty))
}

func TestPlaybackUnknownPassage(t *testing.T) {
	path := writeStory(t, "story.twee", ":: Start\nHi.\n")
	rt := NewPlaybackRuntime(DialectTwee)
	require.NoError(t, rt.LoadFile(path))
	assert.Error(t, rt.Enter("Nowhere"))
}

func TestPlaybackSaveRestore(t *testing.T) {
	path := writeStory(t, "story.twee", ":: Start\nHi.\n")
	rt := NewPlaybackRuntime(DialectTwee)
	require.NoError(t, rt.LoadFile(path))
	require.NoError(t, rt.Enter("Start"))
	rt.State()["gold"] = 17

	saved, err := rt.Save()
	require.NoError(t, err)

	rt.State()["gold"] = 0
	require.NoError(t, rt.Restore(saved))
	assert.Equal(t, 17, rt.State()["gold"])
	assert.Equal(t, "Start", rt.State()["current_passage"])
}

func TestSnapshotStateIsDeepCopy(t *testing.T) {
	live := map[string]any{
		"gold":  5,
		"flags": map[string]any{"met_guide": true},
		"bag":   []any{"rope", "lamp"},
	}
	snap := SnapshotState(live)

	snap["gold"] = 99
	snap["flags"].(map[string]any)["met_guide"] = false
	snap["bag"].([]any)[0] = "sword"

	assert.Equal(t, 5, live["gold"])
	assert.Equal(t, true, live["flags"].(map[string]any)["met_guide"])
	assert.Equal(t, "rope", live["bag"].([]any)[0])
}

func TestSnapshotStateNil(t *testing.T) {
	snap := SnapshotState(nil)
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}
