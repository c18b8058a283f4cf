package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	models "arbor/internal/domain/models/knowledge"
	knowRepo "arbor/internal/domain/repositories/knowledge"
	knowSvc "arbor/internal/domain/services/knowledge"

	"arbor/internal/domain"
)

// treeService implements the TreeService interface
type treeService struct {
	nodeRepo knowRepo.TreeNodeRepository
	logger   *slog.Logger
}

// NewTreeService creates a new tree query service
func NewTreeService(nodeRepo knowRepo.TreeNodeRepository, logger *slog.Logger) knowSvc.TreeService {
	return &treeService{
		nodeRepo: nodeRepo,
		logger:   logger,
	}
}

// GetTree builds the nested tree from one flat read. Nodes are attached to
// their parent's children list; top-level nodes attach to the synthesized
// virtual root. Returns nil when the repository is empty.
func (s *treeService) GetTree(ctx context.Context) (*models.TreeNodeDTO, error) {
	nodes, err := s.nodeRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	root := &models.TreeNodeDTO{
		ID:       models.VirtualRootID,
		ParentID: models.VirtualRootID,
		Name:     models.VirtualRootName,
		Children: []*models.TreeNodeDTO{},
	}

	// First pass: create all DTO nodes
	nodeMap := make(map[string]*models.TreeNodeDTO, len(nodes))
	for _, node := range nodes {
		nodeMap[node.ID] = &models.TreeNodeDTO{
			ID:          node.ID,
			ParentID:    node.ParentID,
			Level:       node.Level,
			Name:        node.Name,
			Description: node.Description,
			SortOrder:   node.SortOrder,
			DatasetID:   node.DatasetID,
			DatasetKind: node.DatasetKind,
			Statistics:  node.Statistics,
			CreatedAt:   node.CreatedAt,
			UpdatedAt:   node.UpdatedAt,
			Children:    []*models.TreeNodeDTO{},
		}
	}

	// Second pass: connect children to parents (insertion order preserved
	// so sort ties keep their original order)
	for _, node := range nodes {
		dto := nodeMap[node.ID]
		if node.ParentID == models.VirtualRootID {
			root.Children = append(root.Children, dto)
			continue
		}
		if parent, exists := nodeMap[node.ParentID]; exists {
			parent.Children = append(parent.Children, dto)
		} else {
			// Orphan row; surface it at the top rather than dropping it
			s.logger.Warn("tree node has missing parent", "id", node.ID, "parent_id", node.ParentID)
			root.Children = append(root.Children, dto)
		}
	}

	root.SortRecursive()

	// The virtual root's figures are the sum of its direct children's
	// already-aggregated totals, not a fresh recompute.
	for _, child := range root.Children {
		root.Statistics.Add(child.Statistics)
	}

	s.logger.Debug("knowledge tree built", "node_count", len(nodes))

	return root, nil
}

// GetTreeStatistic builds the statistics-only nested view of one subtree.
func (s *treeService) GetTreeStatistic(ctx context.Context, id string) (*models.TreeStatisticDTO, error) {
	tree, err := s.GetTree(ctx)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		if id == models.VirtualRootID {
			return nil, nil
		}
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("tree node %s not found", id)}
	}

	target := findNode(tree, id)
	if target == nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("tree node %s not found", id)}
	}

	return toStatisticDTO(target), nil
}

// GetDescendantIDs resolves self + all descendants breadth-first over the
// parent-id index. The virtual-root sentinel is excluded from its own
// result set by convention, so it yields an empty traversal.
func (s *treeService) GetDescendantIDs(ctx context.Context, id string) ([]string, error) {
	nodes, err := s.walkSubtree(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.ID)
	}
	return ids, nil
}

// GetDatasetIDs collects dataset ids over the subtree, skipping nodes
// without a backing dataset.
func (s *treeService) GetDatasetIDs(ctx context.Context, id string) ([]string, error) {
	nodes, err := s.walkSubtree(ctx, id)
	if err != nil {
		return nil, err
	}

	datasetIDs := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if node.DatasetID != "" {
			datasetIDs = append(datasetIDs, node.DatasetID)
		}
	}
	return datasetIDs, nil
}

// walkSubtree returns the node itself plus every descendant, BFS order.
func (s *treeService) walkSubtree(ctx context.Context, id string) ([]models.TreeNode, error) {
	if id == models.VirtualRootID {
		return nil, nil
	}

	self, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	nodes := []models.TreeNode{*self}
	frontier := []string{id}

	for len(frontier) > 0 {
		next := make([]string, 0)
		for _, parentID := range frontier {
			children, err := s.nodeRepo.ListChildren(ctx, parentID)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				nodes = append(nodes, child)
				next = append(next, child.ID)
			}
		}
		frontier = next
	}

	return nodes, nil
}

// findNode locates a node by id in an already-built tree, the virtual root
// included.
func findNode(node *models.TreeNodeDTO, id string) *models.TreeNodeDTO {
	if node.ID == id {
		return node
	}
	for _, child := range node.Children {
		if found := findNode(child, id); found != nil {
			return found
		}
	}
	return nil
}

func toStatisticDTO(node *models.TreeNodeDTO) *models.TreeStatisticDTO {
	dto := &models.TreeStatisticDTO{
		ID:         node.ID,
		Name:       node.Name,
		Statistics: node.Statistics,
		Children:   make([]*models.TreeStatisticDTO, 0, len(node.Children)),
	}
	for _, child := range node.Children {
		dto.Children = append(dto.Children, toStatisticDTO(child))
	}
	return dto
}
