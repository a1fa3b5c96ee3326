package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkShortTextPassesThrough(t *testing.T) {
	require.Equal(t, []string{"short"}, Chunk("short", 1000, 200))
	require.Equal(t, []string{""}, Chunk("", 1000, 200))
	require.Equal(t, []string{"exact"}, Chunk("exact", 5, 2))
}

func TestChunkOverlappingWindows(t *testing.T) {
	text := strings.Repeat("word ", 100) // 500 chars
	chunks := Chunk(text, 100, 20)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.NotEmpty(t, c)
		require.LessOrEqual(t, len(c), 100)
		require.Equal(t, strings.TrimSpace(c), c)
	}

}

func TestChunkWordBoundary(t *testing.T) {
	// Cut points back up to the preceding space, so no chunk ends mid-word.
	// Overlap may re-enter a word at the chunk start; that is expected.
	chunks := Chunk("aaaa bbbb cccc", 9, 2)
	require.Equal(t, []string{"aaaa", "aa bbbb", "bb cccc"}, chunks)
	for _, c := range chunks {
		fields := strings.Fields(c)
		require.Contains(t, []string{"aaaa", "bbbb", "cccc"}, fields[len(fields)-1])
	}
}

func TestChunkHardCutWithoutSpaces(t *testing.T) {
	text := strings.Repeat("a", 25)
	chunks := Chunk(text, 10, 2)

	require.NotEmpty(t, chunks)
	joined := strings.Join(chunks, "")
	require.True(t, strings.HasPrefix(text, chunks[0]))
	require.Equal(t, strings.Repeat("a", len(joined)), joined)
}

func TestChunkBacktrackBeforeOverlapAdvances(t *testing.T) {
	// The first window backtracks to the space at offset 2, landing inside
	// the overlap distance. The next window must still start at or after the
	// cut, never before the previous start.
	chunks := Chunk("ab cdefghijklmnop", 10, 5)

	require.Equal(t, []string{"ab", "cdefghijk", "ghijklmnop"}, chunks)
	for _, c := range chunks {
		require.NotEmpty(t, c)
	}
}

func TestChunkTerminatesWhenOverlapReachesChunkSize(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10)

	for _, overlap := range []int{10, 15, 100} {
		chunks := Chunk(text, 10, overlap)
		// Windows degrade to non-overlapping but still cover the text.
		require.Equal(t, text, strings.Join(chunks, ""))
	}
}

func TestChunkNonPositiveChunkSizePassesThrough(t *testing.T) {
	require.Equal(t, []string{"whole text"}, Chunk("whole text", 0, 0))
	require.Equal(t, []string{"whole text"}, Chunk("whole text", -1, 5))
}

func TestChunkPurity(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)
	first := Chunk(text, 120, 30)
	second := Chunk(text, 120, 30)
	require.Equal(t, first, second)
}

func TestChunkCoversFullText(t *testing.T) {
	text := "Paris is the capital of France. Berlin is the capital of Germany."
	chunks := Chunk(text, 40, 10)

	require.GreaterOrEqual(t, len(chunks), 2)
	require.Contains(t, chunks[0], "Paris")
	require.Contains(t, chunks[len(chunks)-1], "Germany")
}
