package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationInRange(t *testing.T) {
	assert.False(t, DurationInRange(10))
	assert.True(t, DurationInRange(120))
	assert.True(t, DurationInRange(2*60*60))
	assert.False(t, DurationInRange(3*60*60))
}

func TestWalkFiltersByExtensionAndSize(t *testing.T) {
	dir := t.TempDir()

	big := make([]byte, minSizeBytes+1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "track.mp3"), big, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.mp3"), []byte("short"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), big, 0644))

	entries, err := Walk(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(dir, "track.mp3"), entries[0].Path)
}

func TestContentHashStableForSameContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(path, []byte("some audio bytes"), 0644))

	h1, err := ContentHash(path)
	require.NoError(t, err)
	h2, err := ContentHash(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestContentHashDiffersForDifferentContent(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.wav")
	pathB := filepath.Join(dir, "b.wav")
	require.NoError(t, os.WriteFile(pathA, []byte("some audio bytes"), 0644))
	require.NoError(t, os.WriteFile(pathB, []byte("different audio bytes!"), 0644))

	hA, err := ContentHash(pathA)
	require.NoError(t, err)
	hB, err := ContentHash(pathB)
	require.NoError(t, err)
	assert.NotEqual(t, hA, hB)
}
