package store

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidrag/types"
)

// FSStore keeps one index directory per video under root:
//
//	<root>/index_<key>/index_manifest.json
//	<root>/index_<key>/chunks.jsonl
//	<root>/index_<key>/vectors.f32
//
// The directory is assembled in a hidden temp dir and renamed into place,
// so a half-written index is never discoverable. Loaded indexes are cached
// read-only.
type FSStore struct {
	root string

	mu    sync.RWMutex
	cache map[string]*fsIndex
}

type Manifest struct {
	VideoID    string `json:"video_id"`
	Dim        int    `json:"dim"`
	Count      int    `json:"count"`
	CreatedAt  string `json:"created_at"`
	VectorFile string `json:"vector_file"`
	ChunksFile string `json:"chunks_file"`
}

type chunkEntry struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
	Content  string    `json:"content"`
}

type fsIndex struct {
	manifest Manifest
	chunks   []chunkEntry
	vectors  []float32 // count*dim floats, row-major
}

func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create index root %s: %w", root, err)
	}
	return &FSStore{
		root:  root,
		cache: map[string]*fsIndex{},
	}, nil
}

// indexKey derives a stable, collision-free directory name from a video id,
// which may contain characters unfit for the filesystem.
func indexKey(videoID string) string {
	sum := sha256.Sum256([]byte(videoID))
	return "index_" + hex.EncodeToString(sum[:8])
}

func (s *FSStore) dir(videoID string) string {
	return filepath.Join(s.root, indexKey(videoID))
}

func (s *FSStore) Exists(_ context.Context, videoID string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir(videoID), "index_manifest.json"))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *FSStore) Create(_ context.Context, videoID string, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index for video %s", videoID)
	}
	dim := len(chunks[0].Embedding)
	if dim == 0 {
		return fmt.Errorf("chunk 0 has empty embedding")
	}

	entries := make([]chunkEntry, len(chunks))
	vectors := make([]float32, 0, len(chunks)*dim)
	for i, c := range chunks {
		if len(c.Embedding) != dim {
			return fmt.Errorf("embedding length mismatch at chunk %d: got %d want %d", i, len(c.Embedding), dim)
		}
		entries[i] = chunkEntry{ID: c.ID, Position: c.Position, Content: c.Content}
		vectors = append(vectors, c.Embedding...)
	}

	manifest := Manifest{
		VideoID:    videoID,
		Dim:        dim,
		Count:      len(chunks),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		VectorFile: "vectors.f32",
		ChunksFile: "chunks.jsonl",
	}

	tmp, err := os.MkdirTemp(s.root, ".tmp-"+indexKey(videoID)+"-")
	if err != nil {
		return fmt.Errorf("cannot create temp index dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := writeIndexFiles(tmp, manifest, entries, vectors); err != nil {
		return err
	}

	dst := s.dir(videoID)
	if err := os.Rename(tmp, dst); err != nil {
		// a concurrent writer won the rename, the index is there either way
		if _, statErr := os.Stat(dst); statErr == nil {
			log.Printf("[FSSTORE] index for %s already present, dropping redundant build", videoID)
			return nil
		}
		return fmt.Errorf("cannot move index into place: %w", err)
	}
	return nil
}

func writeIndexFiles(dir string, manifest Manifest, entries []chunkEntry, vectors []float32) error {
	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "index_manifest.json"), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}

	cf, err := os.Create(filepath.Join(dir, manifest.ChunksFile))
	if err != nil {
		return fmt.Errorf("cannot create chunks file: %w", err)
	}
	bw := bufio.NewWriter(cf)
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			cf.Close()
			return err
		}
		if _, err := bw.Write(line); err != nil {
			cf.Close()
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			cf.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		cf.Close()
		return err
	}
	if err := cf.Close(); err != nil {
		return err
	}

	vf, err := os.Create(filepath.Join(dir, manifest.VectorFile))
	if err != nil {
		return fmt.Errorf("cannot create vectors file: %w", err)
	}
	if err := binary.Write(vf, binary.LittleEndian, vectors); err != nil {
		vf.Close()
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	return vf.Close()
}

func (s *FSStore) Search(_ context.Context, videoID string, queryVec []float32, limit int) ([]types.SearchResult, error) {
	idx, err := s.load(videoID)
	if err != nil {
		return nil, err
	}
	if len(queryVec) != idx.manifest.Dim {
		return nil, fmt.Errorf("query vector length mismatch: got %d want %d", len(queryVec), idx.manifest.Dim)
	}
	if limit <= 0 {
		limit = 4
	}

	type scored struct {
		i     int
		score float64
	}
	scores := make([]scored, idx.manifest.Count)
	dim := idx.manifest.Dim
	for i := 0; i < idx.manifest.Count; i++ {
		row := idx.vectors[i*dim : (i+1)*dim]
		var dot float64
		for j, q := range queryVec {
			dot += float64(q) * float64(row[j])
		}
		scores[i] = scored{i, dot}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score > scores[b].score })

	if limit > len(scores) {
		limit = len(scores)
	}
	results := make([]types.SearchResult, 0, limit)
	for _, sc := range scores[:limit] {
		e := idx.chunks[sc.i]
		results = append(results, types.SearchResult{
			Chunk: types.Chunk{
				ID:       e.ID,
				VideoID:  videoID,
				Position: e.Position,
				Content:  e.Content,
			},
			Score: sc.score,
		})
	}
	return results, nil
}

func (s *FSStore) Delete(_ context.Context, videoID string) error {
	dir := s.dir(videoID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("%w: video %s", types.ErrIndexNotFound, videoID)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("cannot delete index for %s: %w", videoID, err)
	}
	s.mu.Lock()
	delete(s.cache, videoID)
	s.mu.Unlock()
	return nil
}

func (s *FSStore) load(videoID string) (*fsIndex, error) {
	s.mu.RLock()
	idx, ok := s.cache[videoID]
	s.mu.RUnlock()
	if ok {
		return idx, nil
	}

	dir := s.dir(videoID)
	mb, err := os.ReadFile(filepath.Join(dir, "index_manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: video %s", types.ErrIndexNotFound, videoID)
		}
		return nil, fmt.Errorf("cannot read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(mb, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON: %w", err)
	}
	if m.Dim <= 0 || m.Count <= 0 {
		return nil, fmt.Errorf("invalid manifest for %s: dim=%d count=%d", videoID, m.Dim, m.Count)
	}

	chunks, err := loadChunks(filepath.Join(dir, m.ChunksFile))
	if err != nil {
		return nil, err
	}
	if len(chunks) != m.Count {
		return nil, fmt.Errorf("chunk count mismatch: got %d want %d", len(chunks), m.Count)
	}
	vectors, err := loadVectors(filepath.Join(dir, m.VectorFile), m.Count, m.Dim)
	if err != nil {
		return nil, err
	}

	idx = &fsIndex{manifest: m, chunks: chunks, vectors: vectors}
	s.mu.Lock()
	s.cache[videoID] = idx
	s.mu.Unlock()
	return idx, nil
}

func loadChunks(path string) ([]chunkEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open chunks file %s: %w", path, err)
	}
	defer f.Close()

	var out []chunkEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e chunkEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("invalid chunks JSONL %s: %w", path, err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read chunks file %s: %w", path, err)
	}
	return out, nil
}

func loadVectors(path string, count, dim int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vector file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat vector file %s: %w", path, err)
	}
	expected := int64(count * dim * 4)
	if st.Size() != expected {
		return nil, fmt.Errorf("vector file size mismatch: got %d want %d (count=%d dim=%d)", st.Size(), expected, count, dim)
	}

	out := make([]float32, count*dim)
	if err := binary.Read(f, binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read vectors from %s: %w", path, err)
	}
	return out, nil
}
