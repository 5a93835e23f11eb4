package story

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStory(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanTwee(t *testing.T) {
	path := writeStory(t, "story.twee", `:: Start
You wake up.

:: Crossroads [forest]
A path splits here.

:: End {"position":"bottom"}
Fin.
`)
	ix := NewIndex(DialectTwee)
	require.NoError(t, ix.ScanFile(path))

	loc, ok := ix.Lookup("Start")
	require.True(t, ok)
	assert.Equal(t, 1, loc.Line)

	loc, ok = ix.Lookup("Crossroads")
	require.True(t, ok)
	assert.Equal(t, 4, loc.Line)
	assert.Equal(t, path, loc.File)

	loc, ok = ix.Lookup("End")
	require.True(t, ok)
	assert.Equal(t, 7, loc.Line)

	assert.Len(t, ix.Passages(), 3)
}

func TestScanInk(t *testing.T) {
	path := writeStory(t, "story.ink", `Once upon a time.
== crossroads ==
A path splits here.
=== ending
Fin.
`)
	ix := NewIndex(DialectInk)
	require.NoError(t, ix.ScanFile(path))

	loc, ok := ix.Lookup("crossroads")
	require.True(t, ok)
	assert.Equal(t, 2, loc.Line)

	loc, ok = ix.Lookup("ending")
	require.True(t, ok)
	assert.Equal(t, 4, loc.Line)
}

func TestDetectDialect(t *testing.T) {
	assert.Equal(t, DialectInk, DetectDialect("tale.ink"))
	assert.Equal(t, DialectTwee, DetectDialect("tale.twee"))
	assert.Equal(t, DialectTwee, DetectDialect("tale.tw"))
}

func TestRescanUnchangedAndChanged(t *testing.T) {
	path := writeStory(t, "story.twee", ":: Start\nHello.\n")
	ix := NewIndex(DialectTwee)
	require.NoError(t, ix.ScanFile(path))
	require.NoError(t, ix.ScanFile(path), "unchanged rescan is a no-op")
	assert.Len(t, ix.Passages(), 1)

	// Changed content replaces the file's entries.
	require.NoError(t, os.WriteFile(path, []byte(":: Intro\nHello.\n:: Outro\nBye.\n"), 0o644))
	require.NoError(t, ix.ScanFile(path))
	_, ok := ix.Lookup("Start")
	assert.False(t, ok)
	_, ok = ix.Lookup("Intro")
	assert.True(t, ok)
	assert.Len(t, ix.Passages(), 2)
}

func TestScanMissingFile(t *testing.T) {
	ix := NewIndex(DialectTwee)
	assert.Error(t, ix.ScanFile("/nonexistent/story.twee"))
}
