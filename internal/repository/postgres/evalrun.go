package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/policyhub/retrieval/internal/repository"
	"github.com/policyhub/retrieval/internal/schema"
)

// EvalRunRepo implements repository.EvalRunRepository
type EvalRunRepo struct {
	db *DB
}

// NewEvalRunRepo creates a new evaluation run repository
func NewEvalRunRepo(db *DB) *EvalRunRepo {
	return &EvalRunRepo{db: db}
}

// Create stores a run and its per-query rows in one transaction.
func (r *EvalRunRepo) Create(ctx context.Context, run *repository.EvalRun, rows []schema.EvalRow) error {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO eval_runs (id, variant, chunk_mode, top_k, query_count, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Exec(ctx, query,
		run.ID, run.Variant, run.ChunkMode, run.TopK, run.QueryCount,
		summaryJSON, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create eval run: %w", err)
	}

	batch := &pgx.Batch{}
	rowQuery := `
		INSERT INTO eval_rows (run_id, query_id, recall_at_k, mrr, latency_ms, groundedness)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, row := range rows {
		batch.Queue(rowQuery, run.ID, row.QueryID, row.RecallAtK, row.MRR, row.LatencyMS, row.Groundedness)
	}
	results := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert eval row: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an evaluation run by ID
func (r *EvalRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*repository.EvalRun, error) {
	query := `
		SELECT id, variant, chunk_mode, top_k, query_count, summary, created_at
		FROM eval_runs
		WHERE id = $1
	`
	return r.scanRun(ctx, query, id)
}

func (r *EvalRunRepo) scanRun(ctx context.Context, query string, args ...any) (*repository.EvalRun, error) {
	var run repository.EvalRun
	var summaryJSON []byte

	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&run.ID, &run.Variant, &run.ChunkMode, &run.TopK, &run.QueryCount,
		&summaryJSON, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get eval run: %w", err)
	}

	if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}

	return &run, nil
}

// List retrieves evaluation runs with pagination, optionally filtered by variant
func (r *EvalRunRepo) List(ctx context.Context, variant string, limit, offset int) ([]*repository.EvalRun, int, error) {
	countQuery := `SELECT COUNT(*) FROM eval_runs`
	listQuery := `
		SELECT id, variant, chunk_mode, top_k, query_count, summary, created_at
		FROM eval_runs
	`
	args := []any{}

	if variant != "" {
		countQuery += ` WHERE variant = $1`
		listQuery += ` WHERE variant = $1`
		args = append(args, variant)
	}

	listQuery += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count eval runs: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.db.Pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list eval runs: %w", err)
	}
	defer rows.Close()

	var runs []*repository.EvalRun
	for rows.Next() {
		var run repository.EvalRun
		var summaryJSON []byte
		if err := rows.Scan(&run.ID, &run.Variant, &run.ChunkMode, &run.TopK,
			&run.QueryCount, &summaryJSON, &run.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan eval run: %w", err)
		}
		if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal summary: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate eval runs: %w", err)
	}

	return runs, total, nil
}

// GetRows retrieves the per-query rows of a run in insertion order
func (r *EvalRunRepo) GetRows(ctx context.Context, runID uuid.UUID) ([]schema.EvalRow, error) {
	query := `
		SELECT query_id, recall_at_k, mrr, latency_ms, groundedness
		FROM eval_rows
		WHERE run_id = $1
		ORDER BY query_id
	`
	rows, err := r.db.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get eval rows: %w", err)
	}
	defer rows.Close()

	var out []schema.EvalRow
	for rows.Next() {
		var row schema.EvalRow
		if err := rows.Scan(&row.QueryID, &row.RecallAtK, &row.MRR, &row.LatencyMS, &row.Groundedness); err != nil {
			return nil, fmt.Errorf("failed to scan eval row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate eval rows: %w", err)
	}

	return out, nil
}

// Ensure EvalRunRepo implements the interface.
var _ repository.EvalRunRepository = (*EvalRunRepo)(nil)
