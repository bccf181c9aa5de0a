package textsplit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks := Split("hello world", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitEmptyAndWhitespace(t *testing.T) {
	assert.Empty(t, Split("", 100, 20))
	assert.Empty(t, Split("   \n\t  ", 100, 20))
}

func TestSplitOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10)
	chunks := Split(text, 40, 10)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := string(prev[len(prev)-10:])
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d does not start with the previous chunk's tail", i)
	}
}

func TestSplitCoversAllText(t *testing.T) {
	text := strings.Repeat("0123456789", 25)
	chunks := Split(text, 100, 20)

	// Strides of size-overlap starting at 0 must together cover the text.
	var rebuilt strings.Builder
	for i, c := range chunks {
		if i == len(chunks)-1 {
			rebuilt.WriteString(c)
		} else {
			rebuilt.WriteString(c[:100-20])
		}
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitMultibyteRunes(t *testing.T) {
	text := strings.Repeat("世界", 30)
	chunks := Split(text, 25, 5)
	require.NotEmpty(t, chunks)
	var total int
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 25)
		total += len([]rune(c))
	}
	assert.GreaterOrEqual(t, total, 60)
}

func TestSplitBadParametersFallBack(t *testing.T) {
	text := strings.Repeat("x", 2500)

	chunks := Split(text, 0, -5)
	require.NotEmpty(t, chunks)
	assert.Equal(t, DefaultChunkSize, len([]rune(chunks[0])))

	// Overlap >= size would never advance; it falls back to size/2.
	chunks = Split(text, 100, 100)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, 100, len([]rune(chunks[0])))
}
