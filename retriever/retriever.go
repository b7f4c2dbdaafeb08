package retriever

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"vidrag/model"
	"vidrag/store"
	"vidrag/types"
)

// ContextSeparator joins deduplicated chunk texts into the grounding context.
const ContextSeparator = "\n\n"

// Retriever runs every reformulated query against the video's index and
// merges the hits into one context string. Order is first appearance
// across queries, so identical inputs give identical context.
type Retriever struct {
	embedder model.EmbedderInterface
	store    store.IndexStore
	topK     int
}

func New(embedder model.EmbedderInterface, s store.IndexStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	return &Retriever{
		embedder: embedder,
		store:    s,
		topK:     topK,
	}
}

// Retrieve returns the merged context for the given queries. An empty
// context is a valid result; a missing index is ErrIndexNotFound.
func (r *Retriever) Retrieve(ctx context.Context, videoID string, queries []string) (string, error) {
	if len(queries) == 0 {
		return "", fmt.Errorf("no queries to retrieve with")
	}

	seen := make(map[string]struct{})
	var parts []string
	embedded := 0

	for _, q := range queries {
		vec, err := r.embedder.Embed(ctx, q)
		if err != nil {
			log.Printf("[RETRIEVE] embed subquery failed, skipping: %v", err)
			continue
		}
		embedded++

		results, err := r.store.Search(ctx, videoID, vec, r.topK)
		if err != nil {
			if errors.Is(err, types.ErrIndexNotFound) {
				return "", err
			}
			log.Printf("[RETRIEVE] search subquery failed, skipping: %v", err)
			continue
		}

		for _, res := range results {
			if _, ok := seen[res.Chunk.Content]; ok {
				continue
			}
			seen[res.Chunk.Content] = struct{}{}
			parts = append(parts, res.Chunk.Content)
		}
	}

	if embedded == 0 {
		return "", fmt.Errorf("all %d subqueries failed to embed", len(queries))
	}

	log.Printf("[RETRIEVE] video %s: %d queries -> %d unique chunks", videoID, len(queries), len(parts))
	return strings.Join(parts, ContextSeparator), nil
}
