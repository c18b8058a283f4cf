package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	TreeNodes       string
	WorkflowRuns    string
	WorkflowChunks  string
	WorkflowDocAggs string
}

// NewTableNames creates table names with the given environment prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		TreeNodes:       fmt.Sprintf("%stree_node", prefix),
		WorkflowRuns:    fmt.Sprintf("%sworkflow_run", prefix),
		WorkflowChunks:  fmt.Sprintf("%sworkflow_chunk", prefix),
		WorkflowDocAggs: fmt.Sprintf("%sworkflow_doc_agg", prefix),
	}
}

// CreateConnectionPool creates a pgx connection pool and verifies it with a
// ping. Pool sizing suits one service instance per database; tune via the
// connection string for anything larger.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in the context when present,
// the pool otherwise. Repositories call this on every query so they
// automatically participate in surrounding transactions.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
