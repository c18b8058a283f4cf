package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"arbor/internal/domain"
	models "arbor/internal/domain/models/knowledge"
	"arbor/internal/domain/repositories"
	"arbor/internal/domain/services"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeNodeRepo is an in-memory TreeNodeRepository preserving insertion order.
type fakeNodeRepo struct {
	mu    sync.Mutex
	nodes []*models.TreeNode

	failCreate bool
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{}
}

func (r *fakeNodeRepo) Create(_ context.Context, node *models.TreeNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return fmt.Errorf("disk full")
	}
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	clone := *node
	r.nodes = append(r.nodes, &clone)
	return nil
}

func (r *fakeNodeRepo) GetByID(_ context.Context, id string) (*models.TreeNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range r.nodes {
		if node.ID == id {
			clone := *node
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("tree node %s: %w", id, domain.ErrNotFound)
}

func (r *fakeNodeRepo) Update(_ context.Context, node *models.TreeNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.nodes {
		if existing.ID == node.ID {
			clone := *node
			r.nodes[i] = &clone
			return nil
		}
	}
	return fmt.Errorf("tree node %s: %w", node.ID, domain.ErrNotFound)
}

func (r *fakeNodeRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var kept []*models.TreeNode
	var removed int64
	for _, node := range r.nodes {
		if drop[node.ID] {
			removed++
			continue
		}
		kept = append(kept, node)
	}
	r.nodes = kept
	return removed, nil
}

func (r *fakeNodeRepo) ListChildren(_ context.Context, parentID string) ([]models.TreeNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var children []models.TreeNode
	for _, node := range r.nodes {
		if node.ParentID == parentID {
			children = append(children, *node)
		}
	}
	return children, nil
}

func (r *fakeNodeRepo) ListAll(_ context.Context) ([]models.TreeNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]models.TreeNode, 0, len(r.nodes))
	for _, node := range r.nodes {
		all = append(all, *node)
	}
	return all, nil
}

func (r *fakeNodeRepo) UpdateStatistics(_ context.Context, id string, stats models.Statistics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range r.nodes {
		if node.ID == id {
			node.Statistics = stats
			return nil
		}
	}
	return fmt.Errorf("tree node %s: %w", id, domain.ErrNotFound)
}

func (r *fakeNodeRepo) UpdateDocumentNum(_ context.Context, id string, documentNum int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range r.nodes {
		if node.ID == id {
			node.Statistics.DocumentNum = documentNum
			return nil
		}
	}
	return fmt.Errorf("tree node %s: %w", id, domain.ErrNotFound)
}

// mustAdd seeds a node directly, bypassing the orchestrator.
func (r *fakeNodeRepo) mustAdd(node models.TreeNode) *models.TreeNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	clone := node
	r.nodes = append(r.nodes, &clone)
	return &clone
}

func (r *fakeNodeRepo) snapshot() map[string]models.TreeNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]models.TreeNode, len(r.nodes))
	for _, node := range r.nodes {
		out[node.ID] = *node
	}
	return out
}

// fakeDatasetClient records every call and can be told to fail per method.
type fakeDatasetClient struct {
	mu sync.Mutex

	nextID  int
	created []string
	updated []string
	deleted [][]string

	failCreate bool
	failUpdate bool
	failDelete bool
}

func newFakeDatasetClient() *fakeDatasetClient {
	return &fakeDatasetClient{}
}

func (c *fakeDatasetClient) CreateDataset(_ context.Context, req *services.CreateDatasetRequest) (*services.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCreate {
		return nil, fmt.Errorf("store unavailable")
	}
	c.nextID++
	id := fmt.Sprintf("ds-%03d", c.nextID)
	c.created = append(c.created, id)
	return &services.Dataset{
		ID:             id,
		Name:           req.Name,
		EmbeddingModel: "bge-m3",
	}, nil
}

func (c *fakeDatasetClient) UpdateDataset(_ context.Context, datasetID, _ string, _ models.RetrievalConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failUpdate {
		return fmt.Errorf("store unavailable")
	}
	c.updated = append(c.updated, datasetID)
	return nil
}

func (c *fakeDatasetClient) DeleteDatasets(_ context.Context, datasetIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDelete {
		return fmt.Errorf("store unavailable")
	}
	ids := make([]string, len(datasetIDs))
	copy(ids, datasetIDs)
	c.deleted = append(c.deleted, ids)
	return nil
}

func (c *fakeDatasetClient) ListDatasets(_ context.Context, _ string) ([]services.Dataset, error) {
	return nil, nil
}

// fakeTxManager runs the function directly; the in-memory repo has no
// transactions to coordinate.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// fakeStatsProvider serves per-dataset figures from a map.
type fakeStatsProvider struct {
	stats map[string]models.Statistics
}

func newFakeStatsProvider() *fakeStatsProvider {
	return &fakeStatsProvider{stats: make(map[string]models.Statistics)}
}

func (p *fakeStatsProvider) set(datasetID string, stats models.Statistics) {
	p.stats[datasetID] = stats
}

func (p *fakeStatsProvider) CountDocuments(_ context.Context, datasetID string) (int64, error) {
	return p.stats[datasetID].DocumentNum, nil
}

func (p *fakeStatsProvider) SumDocumentSize(_ context.Context, datasetID string) (int64, error) {
	return p.stats[datasetID].DocumentSize, nil
}

func (p *fakeStatsProvider) SumTokens(_ context.Context, datasetID string) (int64, error) {
	return p.stats[datasetID].TokenNum, nil
}

func (p *fakeStatsProvider) SumChunks(_ context.Context, datasetID string) (int64, error) {
	return p.stats[datasetID].ChunkNum, nil
}
