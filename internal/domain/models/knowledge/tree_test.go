package knowledge

import "testing"

func intPtr(v int) *int { return &v }

func TestSortChildren(t *testing.T) {
	tests := []struct {
		name   string
		orders []*int
		want   []string
	}{
		{
			name:   "ascending with nulls last",
			orders: []*int{intPtr(2), nil, intPtr(1)},
			want:   []string{"c", "a", "b"},
		},
		{
			name:   "ties keep insertion order",
			orders: []*int{intPtr(1), intPtr(1), intPtr(0)},
			want:   []string{"c", "a", "b"},
		},
		{
			name:   "all null keeps insertion order",
			orders: []*int{nil, nil, nil},
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "already sorted",
			orders: []*int{intPtr(1), intPtr(2), intPtr(3)},
			want:   []string{"a", "b", "c"},
		},
	}

	names := []string{"a", "b", "c"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			children := make([]*TreeNodeDTO, len(tt.orders))
			for i, order := range tt.orders {
				children[i] = &TreeNodeDTO{Name: names[i], SortOrder: order}
			}

			SortChildren(children)

			for i, want := range tt.want {
				if children[i].Name != want {
					t.Errorf("position %d: got %q, want %q", i, children[i].Name, want)
				}
			}
		})
	}
}

func TestSortRecursive(t *testing.T) {
	root := &TreeNodeDTO{
		ID: VirtualRootID,
		Children: []*TreeNodeDTO{
			{
				Name:      "outer-second",
				SortOrder: intPtr(2),
				Children: []*TreeNodeDTO{
					{Name: "inner-b", SortOrder: intPtr(20)},
					{Name: "inner-a", SortOrder: intPtr(10)},
				},
			},
			{Name: "outer-first", SortOrder: intPtr(1)},
		},
	}

	root.SortRecursive()

	if root.Children[0].Name != "outer-first" {
		t.Errorf("outer level not sorted: got %q first", root.Children[0].Name)
	}
	inner := root.Children[1].Children
	if inner[0].Name != "inner-a" || inner[1].Name != "inner-b" {
		t.Errorf("inner level not sorted: got %q, %q", inner[0].Name, inner[1].Name)
	}
}

func TestStatisticsAdd(t *testing.T) {
	total := Statistics{DocumentNum: 1, DocumentSize: 100, TokenNum: 10, ChunkNum: 2}
	total.Add(Statistics{DocumentNum: 2, DocumentSize: 200, TokenNum: 20, ChunkNum: 4})

	want := Statistics{DocumentNum: 3, DocumentSize: 300, TokenNum: 30, ChunkNum: 6}
	if total != want {
		t.Errorf("got %+v, want %+v", total, want)
	}
}

func TestIsRoot(t *testing.T) {
	if !(&TreeNode{ID: VirtualRootID}).IsRoot() {
		t.Error("sentinel id should be root")
	}
	if (&TreeNode{ID: "n1"}).IsRoot() {
		t.Error("ordinary id should not be root")
	}
}
