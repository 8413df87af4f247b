package chunk_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespipe/internal/chunk"
)

func TestSplit_EmptyInput(t *testing.T) {
	assert.Nil(t, chunk.Split("", chunk.Options{}))
	assert.Nil(t, chunk.Split("  \n\t ", chunk.Options{}))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	chunks := chunk.Split("hello world", chunk.Options{ChunkSize: 100})
	assert.Equal(t, []string{"hello world"}, chunks)
}

func TestSplit_WindowOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	chunks := chunk.Split(text, chunk.Options{ChunkSize: 40, ChunkOverlap: 10})

	// Step is 30; the final window absorbs the remainder.
	require.Len(t, chunks, 3)
	assert.Equal(t, text[0:40], chunks[0])
	assert.Equal(t, text[30:70], chunks[1])
	assert.Equal(t, text[60:], chunks[2])

	// Consecutive windows share the overlap region.
	assert.Equal(t, chunks[0][30:], chunks[1][:10])
}

func TestSplit_OverlapClampedBelowSize(t *testing.T) {
	text := strings.Repeat("x", 50)
	chunks := chunk.Split(text, chunk.Options{ChunkSize: 20, ChunkOverlap: 30})

	// An overlap >= size would never advance; it is clamped to size/2.
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 20)
	}
}

func TestSplit_MultibyteRunesKeptWhole(t *testing.T) {
	text := strings.Repeat("é", 300) // 2 bytes per rune
	chunks := chunk.Split(text, chunk.Options{ChunkSize: 101})

	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d is invalid UTF-8", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 101)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplit_PreserveStructure_PacksParagraphs(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph here.\n\nThird one."
	chunks := chunk.Split(text, chunk.Options{ChunkSize: 50, PreserveStructure: true})

	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph here.\n\nSecond paragraph here.", chunks[0])
	assert.Equal(t, "Third one.", chunks[1])
}

func TestSplit_PreserveStructure_OverlapTailCarried(t *testing.T) {
	text := "Alpha paragraph content.\n\nBeta paragraph content."
	chunks := chunk.Split(text, chunk.Options{ChunkSize: 30, ChunkOverlap: 8, PreserveStructure: true})

	require.Len(t, chunks, 2)
	assert.Equal(t, "Alpha paragraph content.", chunks[0])
	// Second chunk opens with the tail of the first.
	assert.True(t, strings.HasPrefix(chunks[1], "content.\n"), "got %q", chunks[1])
	assert.Contains(t, chunks[1], "Beta paragraph content.")
}

func TestSplit_PreserveStructure_MultibyteOverlapTail(t *testing.T) {
	text := strings.Repeat("ü", 30) + "\n\n" + strings.Repeat("ö", 30)
	chunks := chunk.Split(text, chunk.Options{ChunkSize: 40, ChunkOverlap: 7, PreserveStructure: true})

	require.Len(t, chunks, 2)
	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d is invalid UTF-8", i)
	}
	// The carried tail is whole runes, never a torn byte sequence.
	assert.True(t, strings.HasPrefix(chunks[1], strings.Repeat("ü", 7)+"\n"), "got %q", chunks[1])
}

func TestSplit_PreserveStructure_OversizedParagraphSplitAtSentences(t *testing.T) {
	text := "One sentence here. Another sentence follows. A third closes it."
	chunks := chunk.Split(text, chunk.Options{ChunkSize: 45, PreserveStructure: true})

	require.GreaterOrEqual(t, len(chunks), 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 45+2)
	}
	assert.Contains(t, chunks[0], "One sentence here.")
}

func TestSplit_PreserveStructure_RunOnTextStillBounded(t *testing.T) {
	text := strings.Repeat("nodelimiters", 20) // 240 chars, no sentence ends
	chunks := chunk.Split(text, chunk.Options{ChunkSize: 50, PreserveStructure: true})

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
}
