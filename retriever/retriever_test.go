package retriever

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidrag/store"
	"vidrag/types"
)

type fakeEmbedder struct {
	failOn map[string]bool
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.failOn[text] {
		return nil, errors.New("embedding down")
	}
	return hashEmbed(text), nil
}

func hashEmbed(text string) []float32 {
	vec := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?\"'")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%64]++
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		inv := float32(1 / math.Sqrt(sum))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

const (
	catSentence = "Cats sleep sixteen hours a day."
	dogSentence = "Dogs need daily walks for exercise."
)

func newIndexedStore(t *testing.T, videoID string) store.IndexStore {
	t.Helper()
	s, err := store.NewFSStore(t.TempDir())
	require.NoError(t, err)

	chunks := []types.Chunk{
		{ID: uuid.New(), VideoID: videoID, Position: 0, Content: catSentence, Embedding: hashEmbed(catSentence)},
		{ID: uuid.New(), VideoID: videoID, Position: 1, Content: dogSentence, Embedding: hashEmbed(dogSentence)},
	}
	require.NoError(t, s.Create(context.Background(), videoID, chunks))
	return s
}

func TestRetrieveDeduplicates(t *testing.T) {
	s := newIndexedStore(t, "vid-1")
	r := New(&fakeEmbedder{}, s, 2)

	queries := []string{"How much do cats sleep?", "cats sleeping hours"}
	contextStr, err := r.Retrieve(context.Background(), "vid-1", queries)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(contextStr, "sixteen"), "chunk hit by both subqueries counts once")
	assert.Contains(t, contextStr, catSentence)
}

func TestRetrieveFirstAppearanceOrder(t *testing.T) {
	s := newIndexedStore(t, "vid-1")
	r := New(&fakeEmbedder{}, s, 2)

	queries := []string{"How much do cats sleep?", "do dogs need walks"}
	first, err := r.Retrieve(context.Background(), "vid-1", queries)
	require.NoError(t, err)

	// the cat chunk is nearest to the first subquery, so it leads
	assert.True(t, strings.HasPrefix(first, catSentence), "context: %q", first)

	second, err := r.Retrieve(context.Background(), "vid-1", queries)
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical inputs must give identical context")
}

func TestRetrieveIndexNotFound(t *testing.T) {
	s, err := store.NewFSStore(t.TempDir())
	require.NoError(t, err)
	r := New(&fakeEmbedder{}, s, 2)

	_, err = r.Retrieve(context.Background(), "never-indexed", []string{"anything"})
	assert.ErrorIs(t, err, types.ErrIndexNotFound)
}

func TestRetrieveOriginalQueryAlone(t *testing.T) {
	// reformulation fell back to the original question only
	s := newIndexedStore(t, "vid-1")
	r := New(&fakeEmbedder{}, s, 2)

	contextStr, err := r.Retrieve(context.Background(), "vid-1", []string{"How much do cats sleep?"})
	require.NoError(t, err)
	assert.Contains(t, contextStr, catSentence)
}

func TestRetrieveSkipsFailingSubqueries(t *testing.T) {
	s := newIndexedStore(t, "vid-1")
	embedder := &fakeEmbedder{failOn: map[string]bool{"broken subquery": true}}
	r := New(embedder, s, 2)

	contextStr, err := r.Retrieve(context.Background(), "vid-1", []string{"broken subquery", "How much do cats sleep?"})
	require.NoError(t, err)
	assert.Contains(t, contextStr, catSentence)

	_, err = r.Retrieve(context.Background(), "vid-1", []string{"broken subquery"})
	assert.Error(t, err, "all subqueries failing is an error")

	_, err = r.Retrieve(context.Background(), "vid-1", nil)
	assert.Error(t, err)
}
