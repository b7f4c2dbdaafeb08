package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"vidrag/types"
)

// PostgresStore is the pgvector-backed index. Chunks are inserted in one
// transaction with the video row committed last, so Exists and Search only
// ever see complete indexes.
type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

func NewPostgresStore(ctx context.Context, connStr string, dim int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
		dim:  dim,
	}, nil
}

func (p *PostgresStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
    CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS videos (
		video_id TEXT PRIMARY KEY,
		chunk_count INT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);

    CREATE TABLE IF NOT EXISTS video_chunks (
        id UUID PRIMARY KEY,
        video_id TEXT NOT NULL,
        position INT NOT NULL,
        content TEXT NOT NULL,
        embedding vector(%d)
    );

	CREATE INDEX IF NOT EXISTS idx_video_chunks_video_id ON video_chunks(video_id);

	CREATE INDEX IF NOT EXISTS idx_video_chunks_embedding ON video_chunks USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);
    `, p.dim)
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Exists(ctx context.Context, videoID string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM videos WHERE video_id = $1)", videoID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (p *PostgresStore) Create(ctx context.Context, videoID string, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index for video %s", videoID)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO video_chunks (id, video_id, position, content, embedding)
			VALUES ($1, $2, $3, $4, $5)
		`, c.ID, videoID, c.Position, c.Content, pgvector.NewVector(c.Embedding))
		if err != nil {
			return fmt.Errorf("error saving chunk %d: %w", c.Position, err)
		}
	}

	// the video row makes the index discoverable, insert it last
	if _, err := tx.Exec(ctx,
		"INSERT INTO videos (video_id, chunk_count) VALUES ($1, $2)", videoID, len(chunks)); err != nil {
		return fmt.Errorf("error saving video row: %w", err)
	}

	return tx.Commit(ctx)
}

func (p *PostgresStore) Search(ctx context.Context, videoID string, queryVec []float32, limit int) ([]types.SearchResult, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if limit <= 0 {
		limit = 4
	}

	ok, err := p.Exists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: video %s", types.ErrIndexNotFound, videoID)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT vc.id, vc.position, vc.content,
		       1 - (vc.embedding <=> $1) AS score
		FROM video_chunks vc
		WHERE vc.video_id = $2
		ORDER BY vc.embedding <=> $1
		LIMIT $3
	`, pgvector.NewVector(queryVec), videoID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []types.SearchResult
	for rows.Next() {
		r := types.SearchResult{Chunk: types.Chunk{VideoID: videoID}}
		if err := rows.Scan(&r.Chunk.ID, &r.Chunk.Position, &r.Chunk.Content, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (p *PostgresStore) Delete(ctx context.Context, videoID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "DELETE FROM videos WHERE video_id = $1", videoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: video %s", types.ErrIndexNotFound, videoID)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM video_chunks WHERE video_id = $1", videoID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Close закрывает пул подключений
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
