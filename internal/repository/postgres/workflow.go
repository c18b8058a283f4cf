package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain"
	models "arbor/internal/domain/models/retrieval"
	retrRepo "arbor/internal/domain/repositories/retrieval"
)

// PostgresWorkflowRepository implements the WorkflowRepository interface.
// All three tables are append-only; no update or delete statements exist.
type PostgresWorkflowRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewWorkflowRepository creates a new workflow audit repository
func NewWorkflowRepository(config *RepositoryConfig) retrRepo.WorkflowRepository {
	return &PostgresWorkflowRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// CreateRun writes one run row
func (r *PostgresWorkflowRepository) CreateRun(ctx context.Context, run *models.WorkflowRun) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, run_id, code, message, query, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.WorkflowRuns)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		run.ID,
		run.RunID,
		run.Code,
		run.Message,
		run.Query,
		run.Total,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create workflow run: %w", err)
	}

	return nil
}

// CreateChunks writes a batch of chunk rows in one round trip
func (r *PostgresWorkflowRepository) CreateChunks(ctx context.Context, chunks []models.WorkflowChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, run_id, chunk_id, content, similarity,
			vector_similarity, term_similarity, document_id, document_keyword,
			keywords, positions, idx, highlighted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, r.tables.WorkflowChunks)

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(query,
			chunk.ID,
			chunk.RunID,
			chunk.ChunkID,
			chunk.Content,
			chunk.Similarity,
			chunk.VectorSimilarity,
			chunk.TermSimilarity,
			chunk.DocumentID,
			chunk.DocumentKeyword,
			chunk.Keywords,
			chunk.Positions,
			chunk.Index,
			chunk.Highlighted,
			chunk.CreatedAt,
		)
	}

	return r.sendBatch(ctx, batch, "workflow chunks")
}

// CreateDocAggs writes a batch of per-document aggregate rows
func (r *PostgresWorkflowRepository) CreateDocAggs(ctx context.Context, aggs []models.WorkflowDocAgg) error {
	if len(aggs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, run_id, document_id, count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.WorkflowDocAggs)

	batch := &pgx.Batch{}
	for _, agg := range aggs {
		batch.Queue(query,
			agg.ID,
			agg.RunID,
			agg.DocumentID,
			agg.Count,
			agg.CreatedAt,
		)
	}

	return r.sendBatch(ctx, batch, "workflow doc aggregates")
}

func (r *PostgresWorkflowRepository) sendBatch(ctx context.Context, batch *pgx.Batch, what string) error {
	results := GetExecutor(ctx, r.pool).SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert %s (row %d of %d): %w", what, i+1, batch.Len(), err)
		}
	}

	return nil
}

// GetRun retrieves one run row by run id
func (r *PostgresWorkflowRepository) GetRun(ctx context.Context, runID string) (*models.WorkflowRun, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, code, message, query, total, created_at
		FROM %s
		WHERE run_id = $1
	`, r.tables.WorkflowRuns)

	var run models.WorkflowRun
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, runID).Scan(
		&run.ID,
		&run.RunID,
		&run.Code,
		&run.Message,
		&run.Query,
		&run.Total,
		&run.CreatedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("workflow run %s: %w", runID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get workflow run: %w", err)
	}

	return &run, nil
}

// ListChunksByRun returns a run's chunks ordered by their 1-based index,
// regardless of storage write order
func (r *PostgresWorkflowRepository) ListChunksByRun(ctx context.Context, runID string) ([]models.WorkflowChunk, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, chunk_id, content, similarity, vector_similarity,
			term_similarity, document_id, document_keyword, keywords,
			positions, idx, highlighted, created_at
		FROM %s
		WHERE run_id = $1
		ORDER BY idx ASC
	`, r.tables.WorkflowChunks)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list workflow chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.WorkflowChunk
	for rows.Next() {
		var chunk models.WorkflowChunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.RunID,
			&chunk.ChunkID,
			&chunk.Content,
			&chunk.Similarity,
			&chunk.VectorSimilarity,
			&chunk.TermSimilarity,
			&chunk.DocumentID,
			&chunk.DocumentKeyword,
			&chunk.Keywords,
			&chunk.Positions,
			&chunk.Index,
			&chunk.Highlighted,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan workflow chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflow chunks: %w", err)
	}

	return chunks, nil
}

// ListDocAggsByRun returns a run's per-document aggregates
func (r *PostgresWorkflowRepository) ListDocAggsByRun(ctx context.Context, runID string) ([]models.WorkflowDocAgg, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, document_id, count, created_at
		FROM %s
		WHERE run_id = $1
		ORDER BY count DESC
	`, r.tables.WorkflowDocAggs)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list workflow doc aggregates: %w", err)
	}
	defer rows.Close()

	var aggs []models.WorkflowDocAgg
	for rows.Next() {
		var agg models.WorkflowDocAgg
		err := rows.Scan(
			&agg.ID,
			&agg.RunID,
			&agg.DocumentID,
			&agg.Count,
			&agg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan workflow doc aggregate: %w", err)
		}
		aggs = append(aggs, agg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflow doc aggregates: %w", err)
	}

	return aggs, nil
}
