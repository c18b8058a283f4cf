package knowledge

import (
	"context"

	"arbor/internal/domain/models/knowledge"
)

// NodeService orchestrates tree-node lifecycle against the external dataset
// store and the local repository. Every operation is external-call-first: a
// local row never exists without a corresponding successful external call.
type NodeService interface {
	// CreateNode creates the backing dataset, then persists the node. A
	// local write failure after external success triggers a compensating
	// dataset delete and surfaces a CompensationError.
	CreateNode(ctx context.Context, req *CreateNodeRequest) (*knowledge.TreeNode, error)

	// UpdateNode renames/reconfigures the backing dataset first, then
	// persists the local changes; the local row is never ahead of the store.
	UpdateNode(ctx context.Context, id string, req *UpdateNodeRequest) (*knowledge.TreeNode, error)

	// DeleteNode removes the node and its whole subtree, external datasets
	// first, then adjusts ancestor statistics best-effort.
	DeleteNode(ctx context.Context, id string) (string, error)

	// DeleteNodes is the batch overload; ancestor deltas are summed per
	// distinct affected parent before propagating.
	DeleteNodes(ctx context.Context, ids []string) ([]string, error)
}

// CreateNodeRequest is a node creation request
type CreateNodeRequest struct {
	ParentID    string                    `json:"parent_id"` // empty or sentinel = top level
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	DatasetKind knowledge.DatasetKind     `json:"dataset_kind"`
	Config      knowledge.RetrievalConfig `json:"retrieval_config"`
	SortOrder   *int                      `json:"sort_order,omitempty"`
}

// UpdateNodeRequest is a node update request; nil fields are left unchanged
type UpdateNodeRequest struct {
	Name        *string                    `json:"name,omitempty"`
	Description *string                    `json:"description,omitempty"`
	SortOrder   *int                       `json:"sort_order,omitempty"`
	Config      *knowledge.RetrievalConfig `json:"retrieval_config,omitempty"`
}
