package chunker

import (
	"fmt"
	"strings"

	"vidrag/types"
)

// slack is how far past the target length a chunk may grow to finish the
// current sentence instead of cutting mid-sentence.
const slackDivisor = 5

// Split breaks transcript text into overlapping word-window chunks.
// Every chunk holds up to length words (plus a small slack to reach a
// sentence end) and shares its first overlap words with the tail of the
// previous chunk, so nothing is lost at the boundaries. Trailing text
// shorter than length still becomes a chunk.
func Split(text string, length, overlap int) ([]string, error) {
	if length <= 0 || overlap < 0 || overlap >= length {
		return nil, fmt.Errorf("invalid chunking params: length=%d overlap=%d", length, overlap)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, types.ErrEmptyTranscript
	}

	var chunks []string
	slack := length / slackDivisor

	for i := 0; ; {
		end := i + length
		if end >= len(words) {
			chunks = append(chunks, strings.Join(words[i:], " "))
			break
		}

		// prefer to end on a sentence boundary if one is close behind
		for j := end; j < len(words) && j < end+slack; j++ {
			if endsSentence(words[j-1]) {
				end = j
				break
			}
		}

		chunks = append(chunks, strings.Join(words[i:end], " "))
		i = end - overlap
	}

	return chunks, nil
}

func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") ||
		strings.HasSuffix(word, "!") ||
		strings.HasSuffix(word, "?")
}
