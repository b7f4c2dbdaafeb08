package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"vidrag/chunker"
	"vidrag/model"
	"vidrag/store"
	"vidrag/transcript"
	"vidrag/types"
)

// Indexer builds the per-video vector index: fetch transcript, chunk,
// embed, persist. Indexing the same video twice is a no-op; concurrent
// requests for the same video are serialized per id.
type Indexer struct {
	fetcher  transcript.Fetcher
	embedder model.EmbedderInterface
	store    store.IndexStore

	chunkLength  int
	chunkOverlap int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewIndexer(fetcher transcript.Fetcher, embedder model.EmbedderInterface, s store.IndexStore, chunkLength, chunkOverlap int) *Indexer {
	return &Indexer{
		fetcher:      fetcher,
		embedder:     embedder,
		store:        s,
		chunkLength:  chunkLength,
		chunkOverlap: chunkOverlap,
		locks:        map[string]*sync.Mutex{},
	}
}

func (ix *Indexer) lockFor(videoID string) *sync.Mutex {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	l, ok := ix.locks[videoID]
	if !ok {
		l = &sync.Mutex{}
		ix.locks[videoID] = l
	}
	return l
}

// Index returns created=false when the video was already indexed.
func (ix *Indexer) Index(ctx context.Context, videoID string) (created bool, err error) {
	l := ix.lockFor(videoID)
	l.Lock()
	defer l.Unlock()

	exists, err := ix.store.Exists(ctx, videoID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", types.ErrIndexingFailed, err)
	}
	if exists {
		log.Printf("[INDEX] video %s is already indexed, skipping", videoID)
		return false, nil
	}

	segments, err := ix.fetcher.Fetch(ctx, videoID)
	if err != nil {
		if errors.Is(err, types.ErrTranscriptUnavailable) {
			return false, err
		}
		return false, fmt.Errorf("%w: fetch transcript: %v", types.ErrIndexingFailed, err)
	}
	if len(segments) == 0 {
		return false, fmt.Errorf("%w: no caption segments for video %s", types.ErrTranscriptUnavailable, videoID)
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	fullText := strings.Join(texts, " ")

	pieces, err := chunker.Split(fullText, ix.chunkLength, ix.chunkOverlap)
	if err != nil {
		return false, err
	}
	log.Printf("[INDEX] video %s: %d segments -> %d chunks", videoID, len(segments), len(pieces))

	chunks := make([]types.Chunk, len(pieces))
	for i, content := range pieces {
		embedding, err := ix.embedder.Embed(ctx, content)
		if err != nil {
			return false, fmt.Errorf("%w: embed chunk %d: %v", types.ErrIndexingFailed, i, err)
		}
		chunks[i] = types.Chunk{
			ID:        uuid.New(),
			VideoID:   videoID,
			Position:  i,
			Content:   content,
			Embedding: embedding,
		}
	}

	if err := ix.store.Create(ctx, videoID, chunks); err != nil {
		return false, fmt.Errorf("%w: persist index: %v", types.ErrIndexingFailed, err)
	}

	log.Printf("[INDEX] indexing complete for video %s", videoID)
	return true, nil
}

// Drop removes the persisted index so the video can be indexed again.
func (ix *Indexer) Drop(ctx context.Context, videoID string) error {
	l := ix.lockFor(videoID)
	l.Lock()
	defer l.Unlock()

	return ix.store.Delete(ctx, videoID)
}
