// Package repository defines domain models and data access interfaces for evaluation runs.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/policyhub/retrieval/internal/eval"
	"github.com/policyhub/retrieval/internal/schema"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// EvalRun represents one completed evaluation pass over a query set. Rows are
// written together with the run and never updated afterwards.
type EvalRun struct {
	ID         uuid.UUID
	Variant    string // retriever configuration label, e.g. "hybrid+rerank"
	ChunkMode  string
	TopK       int
	QueryCount int
	Summary    eval.Summary
	CreatedAt  time.Time
}

// EvalRunRepository defines operations for evaluation run persistence
type EvalRunRepository interface {
	Create(ctx context.Context, run *EvalRun, rows []schema.EvalRow) error
	GetByID(ctx context.Context, id uuid.UUID) (*EvalRun, error)
	List(ctx context.Context, variant string, limit, offset int) ([]*EvalRun, int, error)
	GetRows(ctx context.Context, runID uuid.UUID) ([]schema.EvalRow, error)
}
