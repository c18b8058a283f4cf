package knowledge

import (
	"context"
	"testing"

	models "arbor/internal/domain/models/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestGetTree_EmptyRepositoryReturnsNil(t *testing.T) {
	svc := NewTreeService(newFakeNodeRepo(), testLogger())

	tree, err := svc.GetTree(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tree)
}

func TestGetTree_NestsAndAggregatesVirtualRoot(t *testing.T) {
	repo := newFakeNodeRepo()
	repo.mustAdd(models.TreeNode{ID: "a", ParentID: models.VirtualRootID, Level: 1, Name: "A",
		Statistics: models.Statistics{DocumentNum: 6, DocumentSize: 600}})
	repo.mustAdd(models.TreeNode{ID: "b", ParentID: "a", Level: 2, Name: "B",
		Statistics: models.Statistics{DocumentNum: 2}})
	repo.mustAdd(models.TreeNode{ID: "d", ParentID: models.VirtualRootID, Level: 1, Name: "D",
		Statistics: models.Statistics{DocumentNum: 4, DocumentSize: 50}})

	svc := NewTreeService(repo, testLogger())

	tree, err := svc.GetTree(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tree)

	assert.Equal(t, models.VirtualRootID, tree.ID)
	assert.Equal(t, models.VirtualRootName, tree.Name)
	require.Len(t, tree.Children, 2)

	// The virtual root sums its direct children's stored totals, it does
	// not recompute the subtree
	assert.Equal(t, int64(10), tree.Statistics.DocumentNum)
	assert.Equal(t, int64(650), tree.Statistics.DocumentSize)

	var a *models.TreeNodeDTO
	for _, child := range tree.Children {
		if child.ID == "a" {
			a = child
		}
	}
	require.NotNil(t, a)
	require.Len(t, a.Children, 1)
	assert.Equal(t, "b", a.Children[0].ID)
}

func TestGetTree_SiblingOrdering(t *testing.T) {
	repo := newFakeNodeRepo()
	// Insertion order: sortOrder 2, then null, then 1
	repo.mustAdd(models.TreeNode{ID: "second", ParentID: models.VirtualRootID, Level: 1, Name: "Second", SortOrder: intPtr(2)})
	repo.mustAdd(models.TreeNode{ID: "unordered", ParentID: models.VirtualRootID, Level: 1, Name: "Unordered"})
	repo.mustAdd(models.TreeNode{ID: "first", ParentID: models.VirtualRootID, Level: 1, Name: "First", SortOrder: intPtr(1)})

	svc := NewTreeService(repo, testLogger())

	tree, err := svc.GetTree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree.Children, 3)

	assert.Equal(t, "first", tree.Children[0].ID)
	assert.Equal(t, "second", tree.Children[1].ID)
	assert.Equal(t, "unordered", tree.Children[2].ID)
}

func TestGetTreeStatistic_SubtreeView(t *testing.T) {
	repo := newFakeNodeRepo()
	seedForest(repo)
	require.NoError(t, repo.UpdateStatistics(context.Background(), "a", models.Statistics{DocumentNum: 6}))
	require.NoError(t, repo.UpdateStatistics(context.Background(), "b", models.Statistics{DocumentNum: 2}))

	svc := NewTreeService(repo, testLogger())

	stats, err := svc.GetTreeStatistic(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", stats.ID)
	assert.Equal(t, int64(6), stats.Statistics.DocumentNum)
	require.Len(t, stats.Children, 2)
}

func TestGetTreeStatistic_UnknownNode(t *testing.T) {
	repo := newFakeNodeRepo()
	seedForest(repo)

	svc := NewTreeService(repo, testLogger())

	_, err := svc.GetTreeStatistic(context.Background(), "missing")
	assert.Error(t, err)
}

func TestGetDescendantIDs_AllDepths(t *testing.T) {
	repo := newFakeNodeRepo()
	seedForest(repo)
	repo.mustAdd(models.TreeNode{ID: "e", ParentID: "b", Level: 3, Name: "E"})

	svc := NewTreeService(repo, testLogger())

	ids, err := svc.GetDescendantIDs(context.Background(), "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c", "e"}, ids)
}

func TestGetDescendantIDs_VirtualRootIsExcluded(t *testing.T) {
	repo := newFakeNodeRepo()
	seedForest(repo)

	svc := NewTreeService(repo, testLogger())

	ids, err := svc.GetDescendantIDs(context.Background(), models.VirtualRootID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGetDatasetIDs_SkipsNodesWithoutDataset(t *testing.T) {
	repo := newFakeNodeRepo()
	seedForest(repo)
	repo.mustAdd(models.TreeNode{ID: "org", ParentID: "a", Level: 2, Name: "Organizational"})

	svc := NewTreeService(repo, testLogger())

	ids, err := svc.GetDatasetIDs(context.Background(), "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ds-a", "ds-b", "ds-c"}, ids)
}
