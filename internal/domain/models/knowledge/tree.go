package knowledge

import (
	"sort"
	"time"
)

// VirtualRootName is the display name of the synthesized root node.
const VirtualRootName = "All"

// TreeNodeDTO is the nested presentation view of the forest, rooted at the
// synthesized virtual node.
type TreeNodeDTO struct {
	ID          string      `json:"id"`
	ParentID    string      `json:"parent_id"`
	Level       int         `json:"level"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	SortOrder   *int        `json:"sort_order"`
	DatasetID   string      `json:"dataset_id,omitempty"`
	DatasetKind DatasetKind `json:"dataset_kind,omitempty"`
	Statistics  Statistics  `json:"statistics"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Children []*TreeNodeDTO `json:"children"`
}

// TreeStatisticDTO is the statistics-only nested view of a subtree.
type TreeStatisticDTO struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Statistics Statistics `json:"statistics"`

	Children []*TreeStatisticDTO `json:"children"`
}

// SortChildren orders a sibling list by SortOrder ascending with nulls last,
// ties kept in original (insertion) order.
func SortChildren(children []*TreeNodeDTO) {
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i].SortOrder, children[j].SortOrder
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// SortRecursive applies SortChildren to the node and every descendant.
func (n *TreeNodeDTO) SortRecursive() {
	SortChildren(n.Children)
	for _, child := range n.Children {
		child.SortRecursive()
	}
}
