package model

import (
	"context"
	"math"
)

// EmbedderInterface produces a fixed-length vector for a piece of text.
// Implementations must be safe for concurrent use and deterministic for
// identical input.
type EmbedderInterface interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// normalize scales vec to unit L2 norm so cosine similarity reduces to a
// dot product on both store backends.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	inv := float32(1 / norm)
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
