package store

import (
	"context"

	"vidrag/types"
)

// IndexStore owns one vector index per video identifier. An index is
// created whole, read-only afterwards, and never updated in place;
// re-indexing means Delete then Create.
type IndexStore interface {
	Exists(ctx context.Context, videoID string) (bool, error)
	// Create persists a complete index atomically. A failed Create must
	// not leave anything discoverable by Exists or Search.
	Create(ctx context.Context, videoID string, chunks []types.Chunk) error
	// Search returns the limit nearest chunks by cosine similarity, best
	// first. Returns ErrIndexNotFound when the video was never indexed.
	Search(ctx context.Context, videoID string, queryVec []float32, limit int) ([]types.SearchResult, error)
	Delete(ctx context.Context, videoID string) error
}
