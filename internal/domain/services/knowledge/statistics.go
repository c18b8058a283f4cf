package knowledge

import "context"

// StatisticsService maintains the subtree-inclusive aggregates stored on
// every node. The full recompute is the source of truth; the incremental
// path is a performance optimization over it.
type StatisticsService interface {
	// UpdateNodeStatistic recomputes one subtree bottom-up and returns the
	// node's total document count
	UpdateNodeStatistic(ctx context.Context, id string) (int64, error)

	// UpdateAllNodesStatistic recomputes the entire forest. Idempotent when
	// the external store is unchanged between calls.
	UpdateAllNodesStatistic(ctx context.Context) error

	// UpdateNodeAndParentsDocumentNum adds delta (positive or negative,
	// clamped at zero) to the node's stored document count and to every
	// ancestor up to the virtual root. Only safe when delta is exactly the
	// change in the subtree's total.
	UpdateNodeAndParentsDocumentNum(ctx context.Context, id string, delta int64) error
}
