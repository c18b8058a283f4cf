package retrieval

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	models "arbor/internal/domain/models/retrieval"
	retrRepo "arbor/internal/domain/repositories/retrieval"
	retrSvc "arbor/internal/domain/services/retrieval"

	"github.com/google/uuid"
)

// emptyJSONArray is the placeholder stored when a nested field cannot be
// serialized; one bad field never aborts the chunk's persistence.
const emptyJSONArray = "[]"

// auditService implements the AuditService interface. The run, chunk, and
// doc-agg batches are independent and best-effort: the retrieval response
// has already been returned to the caller by the time this runs, so a
// failed batch is logged, never propagated.
type auditService struct {
	workflows retrRepo.WorkflowRepository
	logger    *slog.Logger
}

// NewAuditService creates a new retrieval persistence pipeline
func NewAuditService(workflows retrRepo.WorkflowRepository, logger *slog.Logger) retrSvc.AuditService {
	return &auditService{
		workflows: workflows,
		logger:    logger,
	}
}

// Persist writes one run row, the ordered chunk rows, and the per-document
// aggregates for a single retrieval invocation.
func (s *auditService) Persist(ctx context.Context, runID, query string, result *models.Result) {
	if runID == "" {
		// A run cannot be correlated without its id
		s.logger.Warn("retrieval result has no run id, skipping audit persistence",
			"query", query,
			"chunk_count", len(result.Chunks),
		)
		return
	}

	now := time.Now()

	run := &models.WorkflowRun{
		ID:        uuid.NewString(),
		RunID:     runID,
		Code:      result.Code,
		Message:   result.Message,
		Query:     query,
		Total:     result.Total,
		CreatedAt: now,
	}
	if err := s.workflows.CreateRun(ctx, run); err != nil {
		s.logger.Error("persist workflow run failed", "run_id", runID, "error", err)
	}

	chunks := make([]models.WorkflowChunk, 0, len(result.Chunks))
	for i, chunk := range result.Chunks {
		chunks = append(chunks, models.WorkflowChunk{
			ID:               uuid.NewString(),
			RunID:            runID,
			ChunkID:          chunk.ChunkID,
			Content:          chunk.Content,
			Similarity:       chunk.Similarity,
			VectorSimilarity: chunk.VectorSimilarity,
			TermSimilarity:   chunk.TermSimilarity,
			DocumentID:       chunk.DocumentID,
			DocumentKeyword:  chunk.DocumentKeyword,
			Keywords:         marshalArray(s.logger, runID, "keywords", chunk.Keywords),
			Positions:        marshalArray(s.logger, runID, "positions", chunk.Positions),
			Index:            i + 1, // caller-supplied relevance order, never re-sorted
			Highlighted:      chunk.Highlighted,
			CreatedAt:        now,
		})
	}
	if len(chunks) > 0 {
		if err := s.workflows.CreateChunks(ctx, chunks); err != nil {
			s.logger.Error("persist workflow chunks failed",
				"run_id", runID,
				"chunk_count", len(chunks),
				"error", err,
			)
		}
	}

	aggs := s.buildDocAggs(runID, result, now)
	if len(aggs) > 0 {
		if err := s.workflows.CreateDocAggs(ctx, aggs); err != nil {
			s.logger.Error("persist workflow doc aggregates failed",
				"run_id", runID,
				"doc_count", len(aggs),
				"error", err,
			)
		}
	}

	s.logger.Debug("retrieval run persisted",
		"run_id", runID,
		"chunk_count", len(chunks),
		"doc_count", len(aggs),
	)
}

// buildDocAggs prefers adapter-supplied aggregates and otherwise counts each
// distinct source document's chunks, first-seen order.
func (s *auditService) buildDocAggs(runID string, result *models.Result, now time.Time) []models.WorkflowDocAgg {
	if len(result.DocAggs) > 0 {
		aggs := make([]models.WorkflowDocAgg, 0, len(result.DocAggs))
		for _, agg := range result.DocAggs {
			aggs = append(aggs, models.WorkflowDocAgg{
				ID:         uuid.NewString(),
				RunID:      runID,
				DocumentID: agg.DocumentID,
				Count:      agg.Count,
				CreatedAt:  now,
			})
		}
		return aggs
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, chunk := range result.Chunks {
		if chunk.DocumentID == "" {
			continue
		}
		if _, exists := counts[chunk.DocumentID]; !exists {
			order = append(order, chunk.DocumentID)
		}
		counts[chunk.DocumentID]++
	}

	aggs := make([]models.WorkflowDocAgg, 0, len(order))
	for _, documentID := range order {
		aggs = append(aggs, models.WorkflowDocAgg{
			ID:         uuid.NewString(),
			RunID:      runID,
			DocumentID: documentID,
			Count:      counts[documentID],
			CreatedAt:  now,
		})
	}
	return aggs
}

// GetRunChunks reads a run's chunks back ordered by their persisted index.
func (s *auditService) GetRunChunks(ctx context.Context, runID string) ([]models.WorkflowChunk, error) {
	return s.workflows.ListChunksByRun(ctx, runID)
}

// marshalArray serializes a nested list field to JSON text, degrading to an
// empty-array placeholder on failure.
func marshalArray(logger *slog.Logger, runID, field string, value interface{}) string {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("serialize chunk field failed, storing empty array",
			"run_id", runID,
			"field", field,
			"error", err,
		)
		return emptyJSONArray
	}
	if string(data) == "null" {
		return emptyJSONArray
	}
	return string(data)
}
