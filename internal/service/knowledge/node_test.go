package knowledge

import (
	"context"
	"errors"
	"testing"

	"arbor/internal/domain"
	models "arbor/internal/domain/models/knowledge"
	knowSvc "arbor/internal/domain/services/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNodeService(repo *fakeNodeRepo, client *fakeDatasetClient) knowSvc.NodeService {
	logger := testLogger()
	tree := NewTreeService(repo, logger)
	stats := NewStatisticsService(repo, newFakeStatsProvider(), fakeTxManager{}, logger)
	return NewNodeService(repo, tree, stats, client, logger)
}

func TestCreateNode_UnderVirtualRoot(t *testing.T) {
	repo := newFakeNodeRepo()
	client := newFakeDatasetClient()
	svc := newTestNodeService(repo, client)

	node, err := svc.CreateNode(context.Background(), &knowSvc.CreateNodeRequest{
		Name:        "Legal",
		DatasetKind: models.DatasetKindLaws,
	})
	require.NoError(t, err)

	assert.Equal(t, models.VirtualRootID, node.ParentID)
	assert.Equal(t, 1, node.Level)
	assert.Equal(t, "ds-001", node.DatasetID)
	assert.Equal(t, int64(0), node.Statistics.DocumentNum)
	// The store's chosen embedding model is recorded when none was requested
	assert.Equal(t, "bge-m3", node.RetrievalConfig.EmbeddingModel)

	stored, err := repo.GetByID(context.Background(), node.ID)
	require.NoError(t, err)
	assert.Equal(t, node.DatasetID, stored.DatasetID)
}

func TestCreateNode_ChildLevelFollowsParent(t *testing.T) {
	repo := newFakeNodeRepo()
	client := newFakeDatasetClient()
	svc := newTestNodeService(repo, client)

	parent := repo.mustAdd(models.TreeNode{ParentID: models.VirtualRootID, Level: 1, Name: "P", DatasetID: "ds-p", DatasetKind: models.DatasetKindGeneral})

	node, err := svc.CreateNode(context.Background(), &knowSvc.CreateNodeRequest{
		ParentID:    parent.ID,
		Name:        "Child",
		DatasetKind: models.DatasetKindGeneral,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, node.Level)
}

func TestCreateNode_ParentNotFound(t *testing.T) {
	svc := newTestNodeService(newFakeNodeRepo(), newFakeDatasetClient())

	_, err := svc.CreateNode(context.Background(), &knowSvc.CreateNodeRequest{
		ParentID:    "missing",
		Name:        "Orphan",
		DatasetKind: models.DatasetKindGeneral,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateNode_UnknownKindRejected(t *testing.T) {
	client := newFakeDatasetClient()
	svc := newTestNodeService(newFakeNodeRepo(), client)

	_, err := svc.CreateNode(context.Background(), &knowSvc.CreateNodeRequest{
		Name:        "Bad",
		DatasetKind: "hologram",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	// Validation happens before any external call
	assert.Empty(t, client.created)
}

func TestCreateNode_ExternalFailureWritesNothing(t *testing.T) {
	repo := newFakeNodeRepo()
	client := newFakeDatasetClient()
	client.failCreate = true
	svc := newTestNodeService(repo, client)

	_, err := svc.CreateNode(context.Background(), &knowSvc.CreateNodeRequest{
		Name:        "Legal",
		DatasetKind: models.DatasetKindLaws,
	})
	assert.ErrorIs(t, err, domain.ErrExternal)
	assert.Empty(t, repo.snapshot())
}

func TestCreateNode_CompensatesOnPersistenceFailure(t *testing.T) {
	repo := newFakeNodeRepo()
	repo.failCreate = true
	client := newFakeDatasetClient()
	svc := newTestNodeService(repo, client)

	_, err := svc.CreateNode(context.Background(), &knowSvc.CreateNodeRequest{
		Name:        "Legal",
		DatasetKind: models.DatasetKindLaws,
	})

	assert.ErrorIs(t, err, domain.ErrPersistence)

	var compErr *domain.CompensationError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, "ds-001", compErr.DatasetID)
	assert.NoError(t, compErr.Compensation)

	// The just-created dataset was removed by the compensating delete and
	// no local row exists
	require.Len(t, client.deleted, 1)
	assert.Equal(t, []string{"ds-001"}, client.deleted[0])
	assert.Empty(t, repo.snapshot())
}

func TestCreateNode_CompensationFailureIsAppendedNotSwallowed(t *testing.T) {
	repo := newFakeNodeRepo()
	repo.failCreate = true
	client := newFakeDatasetClient()
	client.failDelete = true
	svc := newTestNodeService(repo, client)

	_, err := svc.CreateNode(context.Background(), &knowSvc.CreateNodeRequest{
		Name:        "Legal",
		DatasetKind: models.DatasetKindLaws,
	})

	// The primary error is still the persistence failure
	assert.ErrorIs(t, err, domain.ErrPersistence)

	var compErr *domain.CompensationError
	require.True(t, errors.As(err, &compErr))
	assert.Error(t, compErr.Compensation)
}

func TestUpdateNode_ExternalFirst(t *testing.T) {
	repo := newFakeNodeRepo()
	client := newFakeDatasetClient()
	client.failUpdate = true
	svc := newTestNodeService(repo, client)

	node := repo.mustAdd(models.TreeNode{ParentID: models.VirtualRootID, Level: 1, Name: "Old", DatasetID: "ds-x", DatasetKind: models.DatasetKindGeneral})

	newName := "New"
	_, err := svc.UpdateNode(context.Background(), node.ID, &knowSvc.UpdateNodeRequest{Name: &newName})
	assert.ErrorIs(t, err, domain.ErrExternal)

	// Local row untouched when the external call fails
	stored, getErr := repo.GetByID(context.Background(), node.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "Old", stored.Name)
}

func TestUpdateNode_Success(t *testing.T) {
	repo := newFakeNodeRepo()
	client := newFakeDatasetClient()
	svc := newTestNodeService(repo, client)

	node := repo.mustAdd(models.TreeNode{ParentID: models.VirtualRootID, Level: 1, Name: "Old", DatasetID: "ds-x", DatasetKind: models.DatasetKindGeneral})

	newName := "New"
	updated, err := svc.UpdateNode(context.Background(), node.ID, &knowSvc.UpdateNodeRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, []string{"ds-x"}, client.updated)
}

func TestUpdateNode_WithoutDatasetIsNotFound(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestNodeService(repo, newFakeDatasetClient())

	node := repo.mustAdd(models.TreeNode{ParentID: models.VirtualRootID, Level: 1, Name: "Bare", DatasetKind: models.DatasetKindGeneral})

	newName := "New"
	_, err := svc.UpdateNode(context.Background(), node.ID, &knowSvc.UpdateNodeRequest{Name: &newName})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteNode_CascadesAndAdjustsAncestors(t *testing.T) {
	repo := newFakeNodeRepo()
	client := newFakeDatasetClient()
	svc := newTestNodeService(repo, client)

	repo.mustAdd(models.TreeNode{ID: "a", ParentID: models.VirtualRootID, Level: 1, Name: "A", DatasetID: "ds-a", DatasetKind: models.DatasetKindGeneral,
		Statistics: models.Statistics{DocumentNum: 5}})
	repo.mustAdd(models.TreeNode{ID: "b", ParentID: "a", Level: 2, Name: "B", DatasetID: "ds-b", DatasetKind: models.DatasetKindGeneral,
		Statistics: models.Statistics{DocumentNum: 5}})

	deletedID, err := svc.DeleteNode(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "b", deletedID)

	// One external batch delete for the subtree's datasets
	require.Len(t, client.deleted, 1)
	assert.Equal(t, []string{"ds-b"}, client.deleted[0])

	nodes := repo.snapshot()
	_, bExists := nodes["b"]
	assert.False(t, bExists)
	assert.Equal(t, int64(0), nodes["a"].Statistics.DocumentNum)
}

func TestDeleteNode_SubtreeDeletedInOneBatch(t *testing.T) {
	repo := newFakeNodeRepo()
	client := newFakeDatasetClient()
	svc := newTestNodeService(repo, client)

	seedForest(repo)

	_, err := svc.DeleteNode(context.Background(), "a")
	require.NoError(t, err)

	require.Len(t, client.deleted, 1)
	assert.ElementsMatch(t, []string{"ds-a", "ds-b", "ds-c"}, client.deleted[0])

	nodes := repo.snapshot()
	assert.Len(t, nodes, 1)
	_, dExists := nodes["d"]
	assert.True(t, dExists)
}

func TestDeleteNode_ExternalFailureRemovesNothing(t *testing.T) {
	repo := newFakeNodeRepo()
	client := newFakeDatasetClient()
	client.failDelete = true
	svc := newTestNodeService(repo, client)

	seedForest(repo)
	before := repo.snapshot()

	_, err := svc.DeleteNode(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrExternal)
	assert.Equal(t, before, repo.snapshot())
}

func TestDeleteNode_NoDeletableDatasets(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestNodeService(repo, newFakeDatasetClient())

	repo.mustAdd(models.TreeNode{ID: "bare", ParentID: models.VirtualRootID, Level: 1, Name: "Bare", DatasetKind: models.DatasetKindGeneral})

	_, err := svc.DeleteNode(context.Background(), "bare")
	assert.ErrorIs(t, err, domain.ErrNoDatasets)
}

func TestDeleteNodes_SumsDeltasPerParent(t *testing.T) {
	repo := newFakeNodeRepo()
	client := newFakeDatasetClient()
	svc := newTestNodeService(repo, client)

	repo.mustAdd(models.TreeNode{ID: "p", ParentID: models.VirtualRootID, Level: 1, Name: "P", DatasetID: "ds-p", DatasetKind: models.DatasetKindGeneral,
		Statistics: models.Statistics{DocumentNum: 5}})
	repo.mustAdd(models.TreeNode{ID: "x", ParentID: "p", Level: 2, Name: "X", DatasetID: "ds-x", DatasetKind: models.DatasetKindGeneral,
		Statistics: models.Statistics{DocumentNum: 3}})
	repo.mustAdd(models.TreeNode{ID: "y", ParentID: "p", Level: 2, Name: "Y", DatasetID: "ds-y", DatasetKind: models.DatasetKindGeneral,
		Statistics: models.Statistics{DocumentNum: 2}})

	deletedIDs, err := svc.DeleteNodes(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, deletedIDs)

	// Sibling deltas are summed before propagating, so the parent lands on
	// zero rather than being written twice
	nodes := repo.snapshot()
	assert.Equal(t, int64(0), nodes["p"].Statistics.DocumentNum)

	require.Len(t, client.deleted, 1)
	assert.ElementsMatch(t, []string{"ds-x", "ds-y"}, client.deleted[0])
}

func TestCreateDeleteRoundTrip_RestoresPriorState(t *testing.T) {
	repo := newFakeNodeRepo()
	client := newFakeDatasetClient()
	svc := newTestNodeService(repo, client)

	seedForest(repo)
	before := repo.snapshot()

	node, err := svc.CreateNode(context.Background(), &knowSvc.CreateNodeRequest{
		Name:        "X",
		DatasetKind: models.DatasetKindGeneral,
	})
	require.NoError(t, err)

	_, err = svc.DeleteNode(context.Background(), node.ID)
	require.NoError(t, err)

	assert.Equal(t, before, repo.snapshot())
}
