package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/policyhub/retrieval/internal/auth"
	"github.com/policyhub/retrieval/internal/chunker"
	"github.com/policyhub/retrieval/internal/config"
	"github.com/policyhub/retrieval/internal/corpus"
	"github.com/policyhub/retrieval/internal/embedder"
	"github.com/policyhub/retrieval/internal/eval"
	"github.com/policyhub/retrieval/internal/keyword"
	"github.com/policyhub/retrieval/internal/llm"
	"github.com/policyhub/retrieval/internal/qa"
	"github.com/policyhub/retrieval/internal/repository"
	"github.com/policyhub/retrieval/internal/repository/postgres"
	"github.com/policyhub/retrieval/internal/reranker"
	"github.com/policyhub/retrieval/internal/retrieval"
	"github.com/policyhub/retrieval/internal/schema"
	"github.com/policyhub/retrieval/internal/server"
	"github.com/policyhub/retrieval/internal/vectorstore"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting retrieval service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
		"chunk_strategy", cfg.ChunkStrategy,
	)

	// Initialize PostgreSQL when configured
	var db *postgres.DB
	var evalRuns repository.EvalRunRepository
	if cfg.DatabaseURL != "" {
		db, err = postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		evalRuns = postgres.NewEvalRunRepo(db)
		slog.Info("connected to PostgreSQL")
	}

	// Load the corpus
	documents, err := loadDocuments(cfg)
	if err != nil {
		return err
	}
	slog.Info("loaded documents", "count", len(documents))

	var queries []schema.QueryExample
	if cfg.QueriesPath != "" {
		queries, err = corpus.LoadQueries(cfg.QueriesPath)
		if err != nil {
			slog.Warn("evaluation queries unavailable", "path", cfg.QueriesPath, "error", err)
		} else {
			slog.Info("loaded evaluation queries", "count", len(queries))
		}
	}

	// Chunk
	strategy, err := chunkStrategy(cfg)
	if err != nil {
		return err
	}
	chunks := strategy.Chunk(documents)
	slog.Info("chunked corpus", "chunks", len(chunks))

	// Keyword index
	keywordIndex := keyword.Build(chunks)

	// Ollama embedder
	embed := embedder.NewOllamaEmbedder(
		embedder.WithBaseURL(cfg.OllamaURL),
		embedder.WithModel(cfg.OllamaEmbeddingModel, cfg.EmbeddingDimension),
	)
	slog.Info("initialized Ollama embedder", "model", cfg.OllamaEmbeddingModel)

	// Dense index: Qdrant when configured, in-memory otherwise
	var denseIndex vectorstore.DenseIndex
	if cfg.QdrantGRPCURL != "" {
		qdrantIndex, err := vectorstore.NewQdrantIndex(ctx, cfg.QdrantGRPCURL, cfg.QdrantCollection)
		if err != nil {
			return fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		defer qdrantIndex.Close()
		denseIndex = qdrantIndex
		slog.Info("connected to Qdrant", "collection", cfg.QdrantCollection)
	} else {
		denseIndex = vectorstore.NewMemoryIndex()
		slog.Info("using in-memory dense index")
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	embeddings, err := embed.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed corpus: %w", err)
	}
	if err := denseIndex.Build(ctx, chunks, embeddings); err != nil {
		return fmt.Errorf("failed to build dense index: %w", err)
	}
	slog.Info("built dense index", "vectors", len(embeddings))

	// Ollama LLM
	llmClient := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaLLMModel),
	)
	slog.Info("initialized Ollama LLM", "model", cfg.OllamaLLMModel)

	// Retrievers
	keywordRetriever := retrieval.NewKeywordRetriever(keywordIndex)
	denseRetriever := retrieval.NewDenseRetriever(embed, denseIndex)
	hybridOpts := []retrieval.HybridOption{retrieval.WithRRFK(cfg.RRFK)}
	if cfg.RerankEnabled {
		encoder := reranker.NewLLMCrossEncoder(llmClient, reranker.WithModel(cfg.RerankerModel))
		hybridOpts = append(hybridOpts, retrieval.WithReranker(reranker.New(encoder)))
		slog.Info("cross-encoder reranking enabled", "model", cfg.RerankerModel)
	}
	hybridRetriever := retrieval.NewHybridRetriever(denseRetriever, keywordRetriever, hybridOpts...)

	answerer := qa.NewContextAnswerer(llmClient, qa.WithModel(cfg.OllamaLLMModel))

	// Auth
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.Expiry = cfg.JWTExpiry
	jwtManager := auth.NewJWTManager(jwtConfig)
	authMiddleware := auth.NewMiddleware(jwtManager, cfg.APIKey)

	handlers := &server.Handlers{
		Logger:     slog.Default(),
		JWTManager: jwtManager,
		APIKey:     cfg.APIKey,
		Retrievers: map[string]eval.Retriever{
			"keyword": keywordRetriever,
			"dense":   denseRetriever,
			"hybrid":  hybridRetriever,
		},
		DefaultMode: "hybrid",
		Answerer:    answerer,
		Queries:     queries,
		DefaultTopK: cfg.DefaultTopK,
		EvalRuns:    evalRuns,
		ChunkMode:   cfg.ChunkStrategy,
	}

	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"}, // Configure in production
		Auth:           authMiddleware,
		Handlers:       handlers,
		ReadyCheck: func(ctx context.Context) error {
			if db != nil {
				return db.Pool.Ping(ctx)
			}
			return nil
		},
	})

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

func loadDocuments(cfg *config.Config) ([]schema.Document, error) {
	if cfg.HandbookPath != "" {
		documents, err := corpus.LoadHandbookDocuments(cfg.HandbookPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load handbook: %w", err)
		}
		return documents, nil
	}
	documents, err := corpus.LoadDocuments(cfg.DocumentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	return documents, nil
}

func chunkStrategy(cfg *config.Config) (chunker.Strategy, error) {
	switch cfg.ChunkStrategy {
	case "fixed":
		return chunker.NewFixed(cfg.ChunkSize), nil
	case "semantic":
		return chunker.NewSemantic(), nil
	default:
		return nil, fmt.Errorf("unknown chunk strategy %q", cfg.ChunkStrategy)
	}
}
