package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain"
	models "arbor/internal/domain/models/knowledge"
	knowRepo "arbor/internal/domain/repositories/knowledge"
)

const treeNodeColumns = `id, parent_id, level, name, description, sort_order,
		dataset_id, dataset_kind, embedding_model, delimiter, chunk_token_num,
		auto_keywords, auto_questions, document_num, document_size, token_num,
		chunk_num, created_at, updated_at`

// PostgresTreeNodeRepository implements the TreeNodeRepository interface
type PostgresTreeNodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTreeNodeRepository creates a new tree node repository
func NewTreeNodeRepository(config *RepositoryConfig) knowRepo.TreeNodeRepository {
	return &PostgresTreeNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create persists a new node, assigning its id when empty
func (r *PostgresTreeNodeRepository) Create(ctx context.Context, node *models.TreeNode) error {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, r.tables.TreeNodes, treeNodeColumns)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		node.ID,
		node.ParentID,
		node.Level,
		node.Name,
		node.Description,
		node.SortOrder,
		node.DatasetID,
		node.DatasetKind,
		node.RetrievalConfig.EmbeddingModel,
		node.RetrievalConfig.Delimiter,
		node.RetrievalConfig.ChunkTokenNum,
		node.RetrievalConfig.AutoKeywords,
		node.RetrievalConfig.AutoQuestions,
		node.Statistics.DocumentNum,
		node.Statistics.DocumentSize,
		node.Statistics.TokenNum,
		node.Statistics.ChunkNum,
		node.CreatedAt,
		node.UpdatedAt,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("tree node '%s': %w", node.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create tree node: %w", err)
	}

	return nil
}

// GetByID retrieves one node by id
func (r *PostgresTreeNodeRepository) GetByID(ctx context.Context, id string) (*models.TreeNode, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, treeNodeColumns, r.tables.TreeNodes)

	var node models.TreeNode
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(scanTargets(&node)...)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("tree node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tree node: %w", err)
	}

	return &node, nil
}

// Update persists name/description/sort-order/retrieval-config changes
func (r *PostgresTreeNodeRepository) Update(ctx context.Context, node *models.TreeNode) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, sort_order = $3, embedding_model = $4,
		    delimiter = $5, chunk_token_num = $6, auto_keywords = $7,
		    auto_questions = $8, updated_at = $9
		WHERE id = $10
	`, r.tables.TreeNodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		node.Name,
		node.Description,
		node.SortOrder,
		node.RetrievalConfig.EmbeddingModel,
		node.RetrievalConfig.Delimiter,
		node.RetrievalConfig.ChunkTokenNum,
		node.RetrievalConfig.AutoKeywords,
		node.RetrievalConfig.AutoQuestions,
		node.UpdatedAt,
		node.ID,
	)

	if err != nil {
		return fmt.Errorf("update tree node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tree node %s: %w", node.ID, domain.ErrNotFound)
	}

	return nil
}

// DeleteByIDs removes all matched rows in one batch
func (r *PostgresTreeNodeRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = ANY($1)
	`, r.tables.TreeNodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("delete tree nodes: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListChildren lists direct children of a parent in insertion order
func (r *PostgresTreeNodeRepository) ListChildren(ctx context.Context, parentID string) ([]models.TreeNode, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_id = $1
		ORDER BY created_at ASC
	`, treeNodeColumns, r.tables.TreeNodes)

	return r.list(ctx, query, parentID)
}

// ListAll returns every node in the forest in insertion order
func (r *PostgresTreeNodeRepository) ListAll(ctx context.Context) ([]models.TreeNode, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY created_at ASC
	`, treeNodeColumns, r.tables.TreeNodes)

	return r.list(ctx, query)
}

// UpdateStatistics overwrites the stored aggregate fields of one node
func (r *PostgresTreeNodeRepository) UpdateStatistics(ctx context.Context, id string, stats models.Statistics) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET document_num = $1, document_size = $2, token_num = $3, chunk_num = $4
		WHERE id = $5
	`, r.tables.TreeNodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		stats.DocumentNum,
		stats.DocumentSize,
		stats.TokenNum,
		stats.ChunkNum,
		id,
	)
	if err != nil {
		return fmt.Errorf("update tree node statistics: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tree node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdateDocumentNum overwrites only the stored document count of one node
func (r *PostgresTreeNodeRepository) UpdateDocumentNum(ctx context.Context, id string, documentNum int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET document_num = $1
		WHERE id = $2
	`, r.tables.TreeNodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, documentNum, id)
	if err != nil {
		return fmt.Errorf("update tree node document count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tree node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresTreeNodeRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.TreeNode, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tree nodes: %w", err)
	}
	defer rows.Close()

	var nodes []models.TreeNode
	for rows.Next() {
		var node models.TreeNode
		if err := rows.Scan(scanTargets(&node)...); err != nil {
			return nil, fmt.Errorf("scan tree node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tree nodes: %w", err)
	}

	return nodes, nil
}

// scanTargets returns scan destinations in treeNodeColumns order
func scanTargets(node *models.TreeNode) []interface{} {
	return []interface{}{
		&node.ID,
		&node.ParentID,
		&node.Level,
		&node.Name,
		&node.Description,
		&node.SortOrder,
		&node.DatasetID,
		&node.DatasetKind,
		&node.RetrievalConfig.EmbeddingModel,
		&node.RetrievalConfig.Delimiter,
		&node.RetrievalConfig.ChunkTokenNum,
		&node.RetrievalConfig.AutoKeywords,
		&node.RetrievalConfig.AutoQuestions,
		&node.Statistics.DocumentNum,
		&node.Statistics.DocumentSize,
		&node.Statistics.TokenNum,
		&node.Statistics.ChunkNum,
		&node.CreatedAt,
		&node.UpdatedAt,
	}
}
