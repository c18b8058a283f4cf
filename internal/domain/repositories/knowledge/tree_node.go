package knowledge

import (
	"context"

	"arbor/internal/domain/models/knowledge"
)

// TreeNodeRepository defines flat CRUD + predicate queries over tree-node
// rows. The nested tree is materialized by the query service, never stored.
type TreeNodeRepository interface {
	// Create persists a new node. The node's ID is assigned if empty.
	Create(ctx context.Context, node *knowledge.TreeNode) error

	// GetByID retrieves one node
	GetByID(ctx context.Context, id string) (*knowledge.TreeNode, error)

	// Update persists name/description/sort-order/retrieval-config changes
	Update(ctx context.Context, node *knowledge.TreeNode) error

	// DeleteByIDs removes all matched rows in one batch, returning the
	// number removed
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	// ListChildren lists the direct children of a node (or of the virtual
	// root when parentID is the sentinel), in insertion order
	ListChildren(ctx context.Context, parentID string) ([]knowledge.TreeNode, error)

	// ListAll returns every node in the forest in insertion order
	ListAll(ctx context.Context) ([]knowledge.TreeNode, error)

	// UpdateStatistics overwrites the stored aggregate fields of one node
	UpdateStatistics(ctx context.Context, id string, stats knowledge.Statistics) error

	// UpdateDocumentNum overwrites only the stored document count of one node
	UpdateDocumentNum(ctx context.Context, id string, documentNum int64) error
}
