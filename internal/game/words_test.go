package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWordFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWordList_SkipsBlanksCommentsAndDuplicates(t *testing.T) {
	path := writeWordFile(t, "# header\nriver\n\n  bank  \nriver\nmoon\n")

	wl, err := LoadWordList(path)
	require.NoError(t, err)
	assert.Equal(t, 3, wl.Len())
}

func TestLoadWordList_RejectsSeparator(t *testing.T) {
	path := writeWordFile(t, "good\nbad|word\n")

	_, err := LoadWordList(path)
	assert.Error(t, err)
}

func TestLoadWordList_MissingFile(t *testing.T) {
	_, err := LoadWordList(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestWordList_DrawUnique(t *testing.T) {
	wl := NewWordList(testWords())

	drawn := wl.Draw(BoardSize)
	require.Len(t, drawn, BoardSize)

	seen := make(map[string]struct{}, len(drawn))
	for _, w := range drawn {
		_, dup := seen[w]
		assert.False(t, dup, "word %q drawn twice", w)
		seen[w] = struct{}{}
	}
}

func TestWordList_DrawPadsShortList(t *testing.T) {
	wl := NewWordList([]string{"alpha", "beta"})

	drawn := wl.Draw(5)
	require.Len(t, drawn, 5)
	assert.Contains(t, drawn, "alpha")
	assert.Contains(t, drawn, "beta")
	assert.Equal(t, "WORD3", drawn[2])
	assert.Equal(t, "WORD5", drawn[4])
}

func TestWordList_DrawEmptyList(t *testing.T) {
	wl := NewWordList(nil)

	drawn := wl.Draw(BoardSize)
	require.Len(t, drawn, BoardSize)
	assert.Equal(t, "WORD1", drawn[0])
	assert.Equal(t, "WORD25", drawn[24])
}
