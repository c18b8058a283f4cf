package retrieval

import (
	"context"

	"arbor/internal/domain/models/retrieval"
)

// WorkflowRepository persists the append-only retrieval audit rows. Rows are
// never updated or deleted; reads are keyed by run id.
type WorkflowRepository interface {
	// CreateRun writes one run row
	CreateRun(ctx context.Context, run *retrieval.WorkflowRun) error

	// CreateChunks writes a batch of chunk rows
	CreateChunks(ctx context.Context, chunks []retrieval.WorkflowChunk) error

	// CreateDocAggs writes a batch of per-document aggregate rows
	CreateDocAggs(ctx context.Context, aggs []retrieval.WorkflowDocAgg) error

	// GetRun retrieves one run row by run id
	GetRun(ctx context.Context, runID string) (*retrieval.WorkflowRun, error)

	// ListChunksByRun returns a run's chunks ordered by their 1-based index
	ListChunksByRun(ctx context.Context, runID string) ([]retrieval.WorkflowChunk, error)

	// ListDocAggsByRun returns a run's per-document aggregates
	ListDocAggsByRun(ctx context.Context, runID string) ([]retrieval.WorkflowDocAgg, error)
}
