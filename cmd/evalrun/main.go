// Command evalrun runs the evaluation harness offline: it loads a document
// corpus and labeled queries, builds the retrievers against the in-memory
// dense index, evaluates every query, and prints the per-variant summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

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
	"github.com/policyhub/retrieval/internal/vectorstore"
)

type runReport struct {
	RunID   string           `json:"run_id,omitempty"`
	Variant string           `json:"variant"`
	TopK    int              `json:"top_k"`
	Queries int              `json:"queries"`
	Summary eval.Summary     `json:"summary"`
	Rows    []schema.EvalRow `json:"rows,omitempty"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("evaluation run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mode := flag.String("mode", "hybrid", "retrieval mode: keyword, dense, or hybrid")
	topK := flag.Int("top-k", cfg.DefaultTopK, "number of chunks to retrieve per query")
	limit := flag.Int("limit", 0, "evaluate at most this many queries (0 = all)")
	showRows := flag.Bool("rows", false, "include per-query rows in the report")
	persist := flag.Bool("persist", false, "store the run in Postgres (requires DATABASE_URL)")
	flag.Parse()

	ctx := context.Background()

	documents, err := corpus.LoadDocuments(cfg.DocumentsPath)
	if err != nil {
		return err
	}
	queries, err := corpus.LoadQueries(cfg.QueriesPath)
	if err != nil {
		return err
	}
	if *limit > 0 && *limit < len(queries) {
		queries = queries[:*limit]
	}
	slog.Info("loaded corpus", "documents", len(documents), "queries", len(queries))

	var strategy chunker.Strategy
	switch cfg.ChunkStrategy {
	case "fixed":
		strategy = chunker.NewFixed(cfg.ChunkSize)
	case "semantic":
		strategy = chunker.NewSemantic()
	default:
		return fmt.Errorf("unknown chunk strategy %q", cfg.ChunkStrategy)
	}
	chunks := strategy.Chunk(documents)
	slog.Info("chunked corpus", "strategy", cfg.ChunkStrategy, "chunks", len(chunks))

	embed := embedder.NewOllamaEmbedder(
		embedder.WithBaseURL(cfg.OllamaURL),
		embedder.WithModel(cfg.OllamaEmbeddingModel, cfg.EmbeddingDimension),
	)
	llmClient := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaLLMModel),
	)

	retriever, err := buildRetriever(ctx, cfg, *mode, chunks, embed, llmClient)
	if err != nil {
		return err
	}
	answerer := qa.NewContextAnswerer(llmClient, qa.WithModel(cfg.OllamaLLMModel))

	rows := make([]schema.EvalRow, 0, len(queries))
	for _, query := range queries {
		row, err := eval.EvaluateSingle(ctx, query, retriever, answerer, *topK)
		if err != nil {
			return err
		}
		slog.Debug("evaluated query", "query_id", row.QueryID, "recall", row.RecallAtK, "mrr", row.MRR)
		rows = append(rows, row)
	}
	summary := eval.Summarize(rows)

	report := runReport{
		Variant: *mode,
		TopK:    *topK,
		Queries: len(rows),
		Summary: summary,
	}
	if *showRows {
		report.Rows = rows
	}

	if *persist {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("-persist requires DATABASE_URL")
		}
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		run := &repository.EvalRun{
			ID:         uuid.New(),
			Variant:    *mode,
			ChunkMode:  cfg.ChunkStrategy,
			TopK:       *topK,
			QueryCount: len(rows),
			Summary:    summary,
			CreatedAt:  time.Now().UTC(),
		}
		if err := postgres.NewEvalRunRepo(db).Create(ctx, run, rows); err != nil {
			return fmt.Errorf("failed to persist run: %w", err)
		}
		report.RunID = run.ID.String()
		slog.Info("persisted evaluation run", "run_id", report.RunID)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func buildRetriever(ctx context.Context, cfg *config.Config, mode string, chunks []schema.Chunk, embed embedder.Embedder, llmClient llm.LLM) (eval.Retriever, error) {
	keywordRetriever := retrieval.NewKeywordRetriever(keyword.Build(chunks))
	if mode == "keyword" {
		return keywordRetriever, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	embeddings, err := embed.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus: %w", err)
	}
	denseIndex := vectorstore.NewMemoryIndex()
	if err := denseIndex.Build(ctx, chunks, embeddings); err != nil {
		return nil, fmt.Errorf("failed to build dense index: %w", err)
	}
	denseRetriever := retrieval.NewDenseRetriever(embed, denseIndex)

	switch mode {
	case "dense":
		return denseRetriever, nil
	case "hybrid":
		opts := []retrieval.HybridOption{retrieval.WithRRFK(cfg.RRFK)}
		if cfg.RerankEnabled {
			encoder := reranker.NewLLMCrossEncoder(llmClient, reranker.WithModel(cfg.RerankerModel))
			opts = append(opts, retrieval.WithReranker(reranker.New(encoder)))
		}
		return retrieval.NewHybridRetriever(denseRetriever, keywordRetriever, opts...), nil
	default:
		return nil, fmt.Errorf("unknown retrieval mode %q", mode)
	}
}
