package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the two pipelines need at construction time.
// Values come from the environment (main loads .env via godotenv first).
type Config struct {
	ListenAddr string

	// StoreKind selects the index backend: "fs" (default) or "pgvector".
	StoreKind   string
	IndexRoot   string
	PostgresURL string

	EmbeddingURL    string
	EmbeddingModel  string
	EmbeddingAPIKey string

	GenerationURL    string
	GenerationModel  string
	GenerationAPIKey string

	TranscriptLang string

	ChunkLength  int
	ChunkOverlap int
	TopKPerQuery int

	// ModelTimeout bounds every embedding and generation call,
	// FetchTimeout every transcript fetch.
	ModelTimeout time.Duration
	FetchTimeout time.Duration
}

func Load() Config {
	return Config{
		ListenAddr:       getEnv("SERVER_ADDR", ":8080"),
		StoreKind:        getEnv("STORE", "fs"),
		IndexRoot:        getEnv("INDEX_ROOT", "data/indexes"),
		PostgresURL:      os.Getenv("DATABASE_URL"),
		EmbeddingURL:     os.Getenv("EMBEDDING_URL"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingAPIKey:  os.Getenv("EMBEDDING_API_KEY"),
		GenerationURL:    getEnv("LLM_URL", "https://openrouter.ai/api/v1"),
		GenerationModel:  getEnv("LLM_MODEL", "mistralai/mistral-7b-instruct"),
		GenerationAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		TranscriptLang:   getEnv("TRANSCRIPT_LANG", "en"),
		ChunkLength:      getEnvInt("CHUNK_LENGTH", 200),
		ChunkOverlap:     getEnvInt("CHUNK_OVERLAP", 40),
		TopKPerQuery:     getEnvInt("TOP_K", 4),
		ModelTimeout:     getEnvDuration("MODEL_TIMEOUT", 30*time.Second),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
