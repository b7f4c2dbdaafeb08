package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidrag/types"
)

func TestSplitCoverageAndOverlap(t *testing.T) {
	words := make([]string, 500)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	text := strings.Join(words, " ")

	const length, overlap = 50, 10
	chunks, err := Split(text, length, overlap)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// consecutive chunks share exactly overlap words
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		require.GreaterOrEqual(t, len(prev), overlap)
		assert.Equal(t, prev[len(prev)-overlap:], cur[:overlap], "chunk %d", i)
	}

	// stitching chunks back together restores the input with no gaps
	rebuilt := strings.Fields(chunks[0])
	for i := 1; i < len(chunks); i++ {
		cur := strings.Fields(chunks[i])
		rebuilt = append(rebuilt, cur[overlap:]...)
	}
	assert.Equal(t, words, rebuilt)
}

func TestSplitShortInputSingleChunk(t *testing.T) {
	text := "just a handful of words here"
	chunks, err := Split(text, 50, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := Split(text, 50, 10)
		assert.ErrorIs(t, err, types.ErrEmptyTranscript)
	}
}

func TestSplitInvalidParams(t *testing.T) {
	_, err := Split("some text", 10, 10)
	assert.Error(t, err)

	_, err = Split("some text", 0, 0)
	assert.Error(t, err)

	_, err = Split("some text", 10, -1)
	assert.Error(t, err)
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	// sentence ends one word past the target length, within slack
	text := "w1 w2 w3 w4 w5 w6 w7 w8 w9 w10 end. x1 x2 x3 x4"
	chunks, err := Split(text, 10, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.True(t, strings.HasSuffix(chunks[0], "end."), "chunk 0 should stretch to the sentence end: %q", chunks[0])
	assert.True(t, strings.HasSuffix(chunks[1], "x4"), "trailing text must not be dropped")
}
