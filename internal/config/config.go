// Package config loads configuration from environment variables and .env files.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the retrieval service
type Config struct {
	// Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// PostgreSQL (eval run persistence; empty disables it)
	DatabaseURL string `env:"DATABASE_URL" envDefault:""`

	// Qdrant (empty falls back to the in-memory dense index)
	QdrantGRPCURL    string `env:"QDRANT_GRPC_URL" envDefault:""`
	QdrantCollection string `env:"QDRANT_COLLECTION" envDefault:"policy_chunks"`

	// Ollama
	OllamaURL            string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaEmbeddingModel string `env:"OLLAMA_EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
	OllamaLLMModel       string `env:"OLLAMA_LLM_MODEL" envDefault:"llama3.2"`
	EmbeddingDimension   int    `env:"EMBEDDING_DIMENSION" envDefault:"768"`

	// Auth
	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-this-in-production"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	APIKey    string        `env:"API_KEY" envDefault:""`

	// Corpus
	DocumentsPath string `env:"DOCUMENTS_PATH" envDefault:"data/documents.jsonl"`
	QueriesPath   string `env:"QUERIES_PATH" envDefault:"data/queries.jsonl"`
	HandbookPath  string `env:"HANDBOOK_PATH" envDefault:""`

	// Retrieval defaults
	ChunkStrategy string `env:"CHUNK_STRATEGY" envDefault:"fixed"`
	ChunkSize     int    `env:"CHUNK_SIZE" envDefault:"260"`
	DefaultTopK   int    `env:"DEFAULT_TOP_K" envDefault:"5"`
	RRFK          int    `env:"RRF_K" envDefault:"60"`
	RerankEnabled bool   `env:"RERANK_ENABLED" envDefault:"false"`
	RerankerModel string `env:"RERANKER_MODEL" envDefault:"llama3.2"`
}

// Load loads configuration from .env file (if present) and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
