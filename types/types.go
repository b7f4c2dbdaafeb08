package types

import (
	"github.com/google/uuid"
)

// Segment is one time-ordered piece of a video transcript as returned
// by the caption source.
type Segment struct {
	Start float64 `json:"start"`
	Dur   float64 `json:"dur"`
	Text  string  `json:"text"`
}

// Chunk is a bounded piece of transcript text used as a retrieval unit.
type Chunk struct {
	ID        uuid.UUID
	VideoID   string
	Position  int
	Content   string
	Embedding []float32
}

// SearchResult pairs a chunk with its similarity score for one query vector.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

type QueryResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type IndexResponse struct {
	Message string `json:"message"`
}
