package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain/models/knowledge"
	"arbor/internal/repository/postgres"
)

// TreeSeeder creates the schema and a small sample knowledge forest for
// development environments.
type TreeSeeder struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewTreeSeeder creates a new tree seeder
func NewTreeSeeder(pool *pgxpool.Pool, tables *postgres.TableNames, logger *slog.Logger) *TreeSeeder {
	return &TreeSeeder{
		pool:   pool,
		tables: tables,
		logger: logger,
	}
}

// EnsureSchema creates the tree and workflow audit tables if absent.
func (s *TreeSeeder) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			level INT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			sort_order INT,
			dataset_id TEXT NOT NULL DEFAULT '',
			dataset_kind TEXT NOT NULL,
			embedding_model TEXT NOT NULL DEFAULT '',
			delimiter TEXT NOT NULL DEFAULT '',
			chunk_token_num INT NOT NULL DEFAULT 0,
			auto_keywords BOOLEAN NOT NULL DEFAULT FALSE,
			auto_questions BOOLEAN NOT NULL DEFAULT FALSE,
			document_num BIGINT NOT NULL DEFAULT 0,
			document_size BIGINT NOT NULL DEFAULT 0,
			token_num BIGINT NOT NULL DEFAULT 0,
			chunk_num BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`, s.tables.TreeNodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_parent_idx ON %s (parent_id)`,
			s.tables.TreeNodes, s.tables.TreeNodes),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_dataset_idx ON %s (dataset_id) WHERE dataset_id <> ''`,
			s.tables.TreeNodes, s.tables.TreeNodes),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			code INT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			query TEXT NOT NULL DEFAULT '',
			total INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`, s.tables.WorkflowRuns),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_run_idx ON %s (run_id)`,
			s.tables.WorkflowRuns, s.tables.WorkflowRuns),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			chunk_id TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			similarity DOUBLE PRECISION NOT NULL DEFAULT 0,
			vector_similarity DOUBLE PRECISION NOT NULL DEFAULT 0,
			term_similarity DOUBLE PRECISION NOT NULL DEFAULT 0,
			document_id TEXT NOT NULL DEFAULT '',
			document_keyword TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '[]',
			positions TEXT NOT NULL DEFAULT '[]',
			idx INT NOT NULL,
			highlighted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		)`, s.tables.WorkflowChunks),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_run_idx ON %s (run_id)`,
			s.tables.WorkflowChunks, s.tables.WorkflowChunks),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`, s.tables.WorkflowDocAggs),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_run_idx ON %s (run_id)`,
			s.tables.WorkflowDocAggs, s.tables.WorkflowDocAggs),
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	s.logger.Info("schema ensured", "table_prefix_example", s.tables.TreeNodes)
	return nil
}

// SeedSampleTree inserts a three-level sample forest:
//
//	Legal (laws)
//	  └─ Contracts (laws)
//	Research (general)
//	  ├─ Papers (paper)
//	  └─ Books (book)
func (s *TreeSeeder) SeedSampleTree(ctx context.Context) error {
	now := time.Now()

	nodes := []struct {
		id, parent, name string
		level            int
		kind             knowledge.DatasetKind
		sortOrder        int
	}{
		{"11111111-1111-1111-1111-111111111111", knowledge.VirtualRootID, "Legal", 1, knowledge.DatasetKindLaws, 1},
		{"11111111-1111-1111-1111-111111111112", "11111111-1111-1111-1111-111111111111", "Contracts", 2, knowledge.DatasetKindLaws, 1},
		{"22222222-2222-2222-2222-222222222221", knowledge.VirtualRootID, "Research", 1, knowledge.DatasetKindGeneral, 2},
		{"22222222-2222-2222-2222-222222222222", "22222222-2222-2222-2222-222222222221", "Papers", 2, knowledge.DatasetKindPaper, 1},
		{"22222222-2222-2222-2222-222222222223", "22222222-2222-2222-2222-222222222221", "Books", 2, knowledge.DatasetKindBook, 2},
	}

	query := `INSERT INTO ` + s.tables.TreeNodes + ` (id, parent_id, level, name, dataset_id, dataset_kind, sort_order, chunk_token_num, delimiter, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	for _, n := range nodes {
		// Seed rows point at fake dataset ids; statistics stay zero until a
		// refresh runs against a real store
		datasetID := "seed-dataset-" + n.id[:8]
		if _, err := s.pool.Exec(ctx, query,
			n.id, n.parent, n.level, n.name, datasetID, n.kind, n.sortOrder, 512, "\n", now, now,
		); err != nil {
			return fmt.Errorf("seed node %s: %w", n.name, err)
		}
	}

	s.logger.Info("sample tree seeded", "node_count", len(nodes))
	return nil
}
