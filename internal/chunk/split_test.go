package chunk_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libragen/libragen/internal/chunk"
)

func TestSplitShortTextProducesSingleChunk(t *testing.T) {
	chunks := chunk.Split("Hello factorial.", "markdown", chunk.Options{ChunkSize: 500})
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello factorial.", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 1, chunks[0].EndLine)
}

func TestSplitBlankTextProducesNoChunks(t *testing.T) {
	assert.Empty(t, chunk.Split("   \n\n  ", "text", chunk.Options{}))
}

func TestSplitRespectsChunkSizeBound(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("word ")
	}
	chunks := chunk.Split(b.String(), "text", chunk.Options{ChunkSize: 50, ChunkOverlap: 10})
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Content)), 50+10)
	}
}

func TestSplitProducesOverlapBetweenAdjacentChunks(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("alpha beta gamma delta epsilon ")
	}
	chunks := chunk.Split(b.String(), "text", chunk.Options{ChunkSize: 60, ChunkOverlap: 20})
	require.Greater(t, len(chunks), 1)

	tail := lastRunes(chunks[0].Content, 5)
	assert.True(t, strings.Contains(chunks[1].Content, tail) || strings.HasPrefix(chunks[1].Content, tail[:1]))
}

func TestSplitLineNumbersAreNonDecreasing(t *testing.T) {
	content := strings.Repeat("line of go code here\n", 300)
	chunks := chunk.Split(content, "go", chunk.Options{ChunkSize: 80, ChunkOverlap: 20})
	require.NotEmpty(t, chunks)

	last := 0
	for _, c := range chunks {
		if c.StartLine == 0 {
			continue
		}
		assert.GreaterOrEqual(t, c.StartLine, last)
		assert.GreaterOrEqual(t, c.EndLine, c.StartLine)
		last = c.StartLine
	}
}

func TestSplitFallsBackToCharacterLevelForUnsplittableText(t *testing.T) {
	content := strings.Repeat("x", 500)
	chunks := chunk.Split(content, "text", chunk.Options{ChunkSize: 50, ChunkOverlap: 5})
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Content)), 55)
	}
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
