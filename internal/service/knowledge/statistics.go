package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	models "arbor/internal/domain/models/knowledge"
	"arbor/internal/domain/repositories"
	knowRepo "arbor/internal/domain/repositories/knowledge"
	"arbor/internal/domain/services"
	knowSvc "arbor/internal/domain/services/knowledge"
)

// statisticsService implements the StatisticsService interface
type statisticsService struct {
	nodeRepo knowRepo.TreeNodeRepository
	stats    services.DocumentStatsProvider
	txMgr    repositories.TransactionManager
	logger   *slog.Logger
}

// NewStatisticsService creates a new statistics aggregator
func NewStatisticsService(
	nodeRepo knowRepo.TreeNodeRepository,
	stats services.DocumentStatsProvider,
	txMgr repositories.TransactionManager,
	logger *slog.Logger,
) knowSvc.StatisticsService {
	return &statisticsService{
		nodeRepo: nodeRepo,
		stats:    stats,
		txMgr:    txMgr,
		logger:   logger,
	}
}

// UpdateNodeStatistic recomputes the subtree rooted at id bottom-up and
// returns the node's total document count.
func (s *statisticsService) UpdateNodeStatistic(ctx context.Context, id string) (int64, error) {
	total, err := s.recompute(ctx, id)
	if err != nil {
		return 0, err
	}
	return total.DocumentNum, nil
}

// UpdateAllNodesStatistic recomputes the entire forest. Each top-level call
// recurses into children first, so one pass over the virtual root's children
// covers every node. The writes commit as a single transaction, so readers
// never observe a half-refreshed forest.
func (s *statisticsService) UpdateAllNodesStatistic(ctx context.Context) error {
	return s.txMgr.ExecTx(ctx, func(txCtx context.Context) error {
		roots, err := s.nodeRepo.ListChildren(txCtx, models.VirtualRootID)
		if err != nil {
			return fmt.Errorf("list root nodes: %w", err)
		}

		for _, root := range roots {
			if _, err := s.recompute(txCtx, root.ID); err != nil {
				return fmt.Errorf("recompute subtree %s: %w", root.ID, err)
			}
		}

		s.logger.Info("forest statistics recomputed", "root_count", len(roots))
		return nil
	})
}

// recompute computes own dataset counts plus the recursively-recomputed
// totals of every direct child, persists the result, and returns it.
func (s *statisticsService) recompute(ctx context.Context, id string) (models.Statistics, error) {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return models.Statistics{}, err
	}

	total, err := s.ownStats(ctx, node)
	if err != nil {
		return models.Statistics{}, err
	}

	children, err := s.nodeRepo.ListChildren(ctx, id)
	if err != nil {
		return models.Statistics{}, err
	}

	// Leaves keep their own counts; no recursion overhead
	for _, child := range children {
		childTotal, err := s.recompute(ctx, child.ID)
		if err != nil {
			return models.Statistics{}, err
		}
		total.Add(childTotal)
	}

	if err := s.nodeRepo.UpdateStatistics(ctx, id, total); err != nil {
		return models.Statistics{}, err
	}

	return total, nil
}

// ownStats queries the document stats provider for the node's own dataset,
// zero when the node has no backing dataset.
func (s *statisticsService) ownStats(ctx context.Context, node *models.TreeNode) (models.Statistics, error) {
	if node.DatasetID == "" {
		return models.Statistics{}, nil
	}

	var own models.Statistics
	var err error

	if own.DocumentNum, err = s.stats.CountDocuments(ctx, node.DatasetID); err != nil {
		return models.Statistics{}, fmt.Errorf("count documents for dataset %s: %w", node.DatasetID, err)
	}
	if own.DocumentSize, err = s.stats.SumDocumentSize(ctx, node.DatasetID); err != nil {
		return models.Statistics{}, fmt.Errorf("sum document size for dataset %s: %w", node.DatasetID, err)
	}
	if own.TokenNum, err = s.stats.SumTokens(ctx, node.DatasetID); err != nil {
		return models.Statistics{}, fmt.Errorf("sum tokens for dataset %s: %w", node.DatasetID, err)
	}
	if own.ChunkNum, err = s.stats.SumChunks(ctx, node.DatasetID); err != nil {
		return models.Statistics{}, fmt.Errorf("sum chunks for dataset %s: %w", node.DatasetID, err)
	}

	return own, nil
}

// UpdateNodeAndParentsDocumentNum adds delta to the node's stored document
// count, clamped at zero, then recurses up the real-parent chain with the
// same delta.
func (s *statisticsService) UpdateNodeAndParentsDocumentNum(ctx context.Context, id string, delta int64) error {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	adjusted := node.Statistics.DocumentNum + delta
	if adjusted < 0 {
		adjusted = 0
	}

	if err := s.nodeRepo.UpdateDocumentNum(ctx, id, adjusted); err != nil {
		return fmt.Errorf("adjust document count of node %s: %w", id, err)
	}

	s.logger.Debug("document count adjusted",
		"id", id,
		"delta", delta,
		"document_num", adjusted,
	)

	if node.ParentID != models.VirtualRootID {
		return s.UpdateNodeAndParentsDocumentNum(ctx, node.ParentID, delta)
	}

	return nil
}
