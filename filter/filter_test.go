package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanMasksStandaloneTokens(t *testing.T) {
	s := New([]string{"idiot", "moron"})

	assert.Equal(t, "you *****", s.Clean("you idiot"))
	assert.Equal(t, "you ***** and *****", s.Clean("you IDIOT and Moron"))
	assert.Equal(t, "nothing to see", s.Clean("nothing to see"))
}

func TestCleanPreservesVisualWidth(t *testing.T) {
	s := New([]string{"idiot"})
	in := "what an idiot move"
	out := s.Clean(in)
	assert.Len(t, out, len(in))
}

func TestCleanRespectsWordBoundaries(t *testing.T) {
	s := New([]string{"ass"})

	assert.Equal(t, "first class", s.Clean("first class"))
	assert.Equal(t, "assistant", s.Clean("assistant"))
	assert.Equal(t, "you ***", s.Clean("you ass"))
	assert.Equal(t, "***, really", s.Clean("ass, really"))
}

func TestCleanIsIdempotent(t *testing.T) {
	s := New([]string{"idiot", "ass"})
	once := s.Clean("you idiot, you ass")
	twice := s.Clean(once)
	assert.Equal(t, once, twice)
}

func TestContains(t *testing.T) {
	s := New([]string{"idiot"})

	assert.True(t, s.Contains("what an IDIOT"))
	assert.False(t, s.Contains("idiotic is a different token"))
	assert.False(t, s.Contains(""))
}

func TestEmptySetPassesEverything(t *testing.T) {
	s := New(nil)
	assert.False(t, s.Contains("anything at all"))
	assert.Equal(t, "anything at all", s.Clean("anything at all"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad_words.txt")
	require.NoError(t, os.WriteFile(path, []byte("idiot\n\n# comment\nmoron\nidiot\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("moron"))
}

func TestLoadMissingFileDegradesToEmptySet(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "unchanged", s.Clean("unchanged"))
}

func TestRegexMetacharactersInTokens(t *testing.T) {
	s := New([]string{"a+b"})
	assert.Equal(t, "aab acb", s.Clean("aab acb"))
}
