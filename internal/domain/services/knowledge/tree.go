package knowledge

import (
	"context"

	"arbor/internal/domain/models/knowledge"
)

// TreeService materializes the flat repository rows into nested views and
// resolves subtree id sets.
type TreeService interface {
	// GetTree builds the nested tree under the synthesized virtual root.
	// Returns nil when the repository holds no nodes.
	GetTree(ctx context.Context) (*knowledge.TreeNodeDTO, error)

	// GetTreeStatistic builds the statistics-only nested view of one
	// subtree (or of the whole forest for the virtual-root sentinel)
	GetTreeStatistic(ctx context.Context, id string) (*knowledge.TreeStatisticDTO, error)

	// GetDescendantIDs resolves self + all descendants at any depth. The
	// virtual-root sentinel is by convention excluded from its own result.
	GetDescendantIDs(ctx context.Context, id string) ([]string, error)

	// GetDatasetIDs collects the subtree's dataset ids, skipping nodes
	// without one
	GetDatasetIDs(ctx context.Context, id string) ([]string, error)
}
