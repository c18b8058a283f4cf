package services

import (
	"context"

	"arbor/internal/domain/models/knowledge"
)

// Dataset is the descriptive metadata the external document-indexing store
// returns for a dataset it manages.
type Dataset struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	EmbeddingModel string `json:"embedding_model"`
	DocumentCount  int    `json:"document_count"`
	ChunkCount     int    `json:"chunk_count"`
}

// CreateDatasetRequest carries everything the external store needs to create
// a dataset for a new tree node.
type CreateDatasetRequest struct {
	Name        string
	Description string
	Kind        knowledge.DatasetKind
	Config      knowledge.RetrievalConfig
}

// DatasetClient is the external document-indexing store's dataset surface.
// Any reported failure, including timeout, is treated uniformly by callers
// as "external call failed"; cancellation is honored via ctx.
type DatasetClient interface {
	// CreateDataset creates a dataset of the requested kind and returns its
	// assigned id and metadata
	CreateDataset(ctx context.Context, req *CreateDatasetRequest) (*Dataset, error)

	// UpdateDataset renames a dataset and applies new chunking config
	UpdateDataset(ctx context.Context, datasetID, name string, config knowledge.RetrievalConfig) error

	// DeleteDatasets removes the whole batch in one request
	DeleteDatasets(ctx context.Context, datasetIDs []string) error

	// ListDatasets lists datasets whose name contains the filter (empty
	// filter lists all)
	ListDatasets(ctx context.Context, filter string) ([]Dataset, error)
}

// DocumentStatsProvider reports aggregate figures for the documents
// currently indexed under one dataset.
type DocumentStatsProvider interface {
	CountDocuments(ctx context.Context, datasetID string) (int64, error)
	SumDocumentSize(ctx context.Context, datasetID string) (int64, error)
	SumTokens(ctx context.Context, datasetID string) (int64, error)
	SumChunks(ctx context.Context, datasetID string) (int64, error)
}
