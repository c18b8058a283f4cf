package retrieval

import (
	"context"

	"arbor/internal/domain/models/retrieval"
)

// AuditService durably records, per query invocation, the ordered retrieved
// chunks and per-document aggregates for later highlight/preview lookup.
// Persistence is an audit trail: failures are logged, never surfaced to the
// caller whose retrieval response has already been produced.
type AuditService interface {
	// Persist writes the run, chunk, and doc-agg rows for one invocation.
	// A blank runID makes the call a logged no-op.
	Persist(ctx context.Context, runID, query string, result *retrieval.Result)

	// GetRunChunks reads a run's chunks back in their persisted order
	GetRunChunks(ctx context.Context, runID string) ([]retrieval.WorkflowChunk, error)
}
