package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"arbor/internal/domain"
	models "arbor/internal/domain/models/knowledge"
	knowRepo "arbor/internal/domain/repositories/knowledge"
	"arbor/internal/domain/services"
	knowSvc "arbor/internal/domain/services/knowledge"
)

// nodeService implements the NodeService interface. Lifecycle operations are
// external-call-first: the remote dataset call happens before any local
// write, and a local write failure after a successful create triggers a
// compensating dataset delete.
type nodeService struct {
	nodeRepo    knowRepo.TreeNodeRepository
	treeService knowSvc.TreeService
	statistics  knowSvc.StatisticsService
	datasets    services.DatasetClient
	logger      *slog.Logger
}

// NewNodeService creates a new node lifecycle orchestrator
func NewNodeService(
	nodeRepo knowRepo.TreeNodeRepository,
	treeService knowSvc.TreeService,
	statistics knowSvc.StatisticsService,
	datasets services.DatasetClient,
	logger *slog.Logger,
) knowSvc.NodeService {
	return &nodeService{
		nodeRepo:    nodeRepo,
		treeService: treeService,
		statistics:  statistics,
		datasets:    datasets,
		logger:      logger,
	}
}

// CreateNode creates the backing dataset, then persists the node row.
func (s *nodeService) CreateNode(ctx context.Context, req *knowSvc.CreateNodeRequest) (*models.TreeNode, error) {
	// Normalize empty parent to the virtual-root sentinel
	if req.ParentID == "" {
		req.ParentID = models.VirtualRootID
	}
	req.Name = strings.TrimSpace(req.Name)

	if err := validateCreateRequest(req); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	level := 1
	if req.ParentID != models.VirtualRootID {
		parent, err := s.nodeRepo.GetByID(ctx, req.ParentID)
		if err != nil {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("parent node %s not found", req.ParentID)}
		}
		level = parent.Level + 1
	}

	dataset, err := s.datasets.CreateDataset(ctx, &services.CreateDatasetRequest{
		Name:        req.Name,
		Description: req.Description,
		Kind:        req.DatasetKind,
		Config:      req.Config,
	})
	if err != nil {
		return nil, &domain.ExternalServiceError{Message: "create dataset", Cause: err}
	}

	cfg := req.Config
	if cfg.EmbeddingModel == "" {
		// The store picks its default embedding model; record what it chose
		cfg.EmbeddingModel = dataset.EmbeddingModel
	}

	now := time.Now()
	node := &models.TreeNode{
		ParentID:        req.ParentID,
		Level:           level,
		Name:            req.Name,
		Description:     req.Description,
		SortOrder:       req.SortOrder,
		DatasetID:       dataset.ID,
		DatasetKind:     req.DatasetKind,
		RetrievalConfig: cfg,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.nodeRepo.Create(ctx, node); err != nil {
		return nil, s.compensateCreate(ctx, dataset.ID, err)
	}

	s.logger.Info("tree node created",
		"id", node.ID,
		"name", node.Name,
		"parent_id", node.ParentID,
		"level", node.Level,
		"dataset_id", node.DatasetID,
		"dataset_kind", node.DatasetKind,
	)

	return node, nil
}

// compensateCreate issues a best-effort delete of a dataset whose node row
// could not be written. The persistence failure stays the primary error; a
// compensation failure is appended as context, never swallowed and never
// surfaced in its place.
func (s *nodeService) compensateCreate(ctx context.Context, datasetID string, cause error) error {
	primary := &domain.PersistenceError{Message: "persist tree node", Cause: cause}

	compErr := s.datasets.DeleteDatasets(ctx, []string{datasetID})
	if compErr != nil {
		s.logger.Error("compensating dataset delete failed",
			"dataset_id", datasetID,
			"persist_error", cause,
			"compensation_error", compErr,
		)
	} else {
		s.logger.Warn("node persistence failed, dataset removed by compensating delete",
			"dataset_id", datasetID,
			"persist_error", cause,
		)
	}

	return &domain.CompensationError{
		Primary:      primary,
		Compensation: compErr,
		DatasetID:    datasetID,
	}
}

// UpdateNode renames/reconfigures the backing dataset first, then persists
// the local changes.
func (s *nodeService) UpdateNode(ctx context.Context, id string, req *knowSvc.UpdateNodeRequest) (*models.TreeNode, error) {
	if err := validateUpdateRequest(req); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("tree node %s not found", id)}
	}
	if node.DatasetID == "" {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("tree node %s has no backing dataset", id)}
	}

	if req.Name != nil {
		node.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		node.Description = *req.Description
	}
	if req.SortOrder != nil {
		node.SortOrder = req.SortOrder
	}
	if req.Config != nil {
		node.RetrievalConfig = *req.Config
	}

	// External-first: the local row is never ahead of the dataset store
	if err := s.datasets.UpdateDataset(ctx, node.DatasetID, node.Name, node.RetrievalConfig); err != nil {
		return nil, &domain.ExternalServiceError{Message: fmt.Sprintf("update dataset %s", node.DatasetID), Cause: err}
	}

	node.UpdatedAt = time.Now()
	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, &domain.PersistenceError{Message: fmt.Sprintf("persist tree node %s", id), Cause: err}
	}

	s.logger.Info("tree node updated",
		"id", node.ID,
		"name", node.Name,
		"dataset_id", node.DatasetID,
	)

	return node, nil
}

// DeleteNode removes one node and its whole subtree.
func (s *nodeService) DeleteNode(ctx context.Context, id string) (string, error) {
	deleted, err := s.DeleteNodes(ctx, []string{id})
	if err != nil {
		return "", err
	}
	return deleted[0], nil
}

// DeleteNodes removes the subtrees of every listed node: one batch external
// dataset delete, then one batch local delete, then per-parent ancestor
// statistics adjustment with the deltas of sibling subtrees summed first.
func (s *nodeService) DeleteNodes(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, &domain.ValidationError{Message: "no node ids provided"}
	}

	roots := make([]*models.TreeNode, 0, len(ids))
	rowIDs := make([]string, 0, len(ids))
	datasetIDs := make([]string, 0, len(ids))
	seenRows := make(map[string]bool)
	seenDatasets := make(map[string]bool)

	for _, id := range ids {
		node, err := s.nodeRepo.GetByID(ctx, id)
		if err != nil {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("tree node %s not found", id)}
		}
		roots = append(roots, node)

		descendantIDs, err := s.treeService.GetDescendantIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		subtreeDatasetIDs, err := s.treeService.GetDatasetIDs(ctx, id)
		if err != nil {
			return nil, err
		}

		// Requested subtrees may nest; dedupe before the batch calls
		for _, rowID := range descendantIDs {
			if !seenRows[rowID] {
				seenRows[rowID] = true
				rowIDs = append(rowIDs, rowID)
			}
		}
		for _, datasetID := range subtreeDatasetIDs {
			if !seenDatasets[datasetID] {
				seenDatasets[datasetID] = true
				datasetIDs = append(datasetIDs, datasetID)
			}
		}
	}

	if len(datasetIDs) == 0 {
		return nil, &domain.NoDeletableDatasetsError{Message: "resolved subtree has no datasets to delete"}
	}

	// External-first: a reported failure leaves every local row in place
	if err := s.datasets.DeleteDatasets(ctx, datasetIDs); err != nil {
		return nil, &domain.ExternalServiceError{Message: "delete datasets", Cause: err}
	}

	removed, err := s.nodeRepo.DeleteByIDs(ctx, rowIDs)
	if err != nil {
		return nil, &domain.PersistenceError{Message: "delete tree nodes", Cause: err}
	}

	s.logger.Info("tree nodes deleted",
		"requested", len(ids),
		"removed_rows", removed,
		"removed_datasets", len(datasetIDs),
	)

	s.adjustAncestors(ctx, roots, seenRows)

	return ids, nil
}

// adjustAncestors subtracts each deleted subtree root's document count from
// its parent chain, summing deltas per distinct parent so sibling subtrees
// deleted together propagate once. Failure here never rolls back the
// committed delete; the next full recompute reconciles.
func (s *nodeService) adjustAncestors(ctx context.Context, roots []*models.TreeNode, deleted map[string]bool) {
	deltas := make(map[string]int64)
	for _, root := range roots {
		if root.ParentID == models.VirtualRootID || root.Statistics.DocumentNum == 0 {
			continue
		}
		// A parent deleted in the same batch has no row left to adjust
		if deleted[root.ParentID] {
			continue
		}
		deltas[root.ParentID] -= root.Statistics.DocumentNum
	}

	for parentID, delta := range deltas {
		if err := s.statistics.UpdateNodeAndParentsDocumentNum(ctx, parentID, delta); err != nil {
			s.logger.Warn("ancestor statistics adjustment failed after delete; full recompute will reconcile",
				"parent_id", parentID,
				"delta", delta,
				"error", err,
			)
		}
	}
}
