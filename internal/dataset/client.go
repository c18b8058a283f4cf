package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"arbor/internal/domain/models/knowledge"
	"arbor/internal/domain/services"
)

// Client talks to the external document-indexing store's REST API. It
// implements both the DatasetClient and DocumentStatsProvider interfaces.
type Client struct {
	baseURL    string
	apiKey     string
	kinds      *KindRegistry
	httpClient *http.Client
}

// NewClient creates a dataset store client. Timeouts are the client's own
// contract; callers treat any failure, timeout included, as "external call
// failed".
func NewClient(baseURL, apiKey string, kinds *KindRegistry) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		kinds:   kinds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiResponse is the store's uniform envelope
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type datasetPayload struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	EmbeddingModel string `json:"embedding_model"`
	DocumentCount  int    `json:"document_count"`
	ChunkCount     int    `json:"chunk_count"`
}

type documentPayload struct {
	ID       string `json:"id"`
	Size     int64  `json:"size"`
	TokenNum int64  `json:"token_num"`
	ChunkNum int64  `json:"chunk_num"`
}

type documentPage struct {
	Docs  []documentPayload `json:"docs"`
	Total int64             `json:"total"`
}

// CreateDataset creates a dataset of the requested kind, filling config
// defaults from the kind registry.
func (c *Client) CreateDataset(ctx context.Context, req *services.CreateDatasetRequest) (*services.Dataset, error) {
	kindCfg, err := c.kinds.Get(req.Kind)
	if err != nil {
		return nil, err
	}
	cfg, err := c.kinds.ApplyDefaults(req.Kind, req.Config)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"name":            req.Name,
		"description":     req.Description,
		"chunk_method":    kindCfg.Parser,
		"embedding_model": cfg.EmbeddingModel,
		"parser_config": map[string]interface{}{
			"delimiter":       cfg.Delimiter,
			"chunk_token_num": cfg.ChunkTokenNum,
			"auto_keywords":   cfg.AutoKeywords,
			"auto_questions":  cfg.AutoQuestions,
		},
	}

	var payload datasetPayload
	if err := c.do(ctx, http.MethodPost, "/api/v1/datasets", body, &payload); err != nil {
		return nil, err
	}

	return &services.Dataset{
		ID:             payload.ID,
		Name:           payload.Name,
		EmbeddingModel: payload.EmbeddingModel,
		DocumentCount:  payload.DocumentCount,
		ChunkCount:     payload.ChunkCount,
	}, nil
}

// UpdateDataset renames a dataset and applies new chunking config
func (c *Client) UpdateDataset(ctx context.Context, datasetID, name string, config knowledge.RetrievalConfig) error {
	body := map[string]interface{}{
		"name": name,
		"parser_config": map[string]interface{}{
			"delimiter":       config.Delimiter,
			"chunk_token_num": config.ChunkTokenNum,
			"auto_keywords":   config.AutoKeywords,
			"auto_questions":  config.AutoQuestions,
		},
	}

	return c.do(ctx, http.MethodPut, "/api/v1/datasets/"+datasetID, body, nil)
}

// DeleteDatasets removes the whole batch in one request
func (c *Client) DeleteDatasets(ctx context.Context, datasetIDs []string) error {
	body := map[string]interface{}{"ids": datasetIDs}
	return c.do(ctx, http.MethodDelete, "/api/v1/datasets", body, nil)
}

// ListDatasets lists datasets whose name contains the filter
func (c *Client) ListDatasets(ctx context.Context, filter string) ([]services.Dataset, error) {
	path := "/api/v1/datasets"
	if filter != "" {
		path += "?name=" + url.QueryEscape(filter)
	}

	var payloads []datasetPayload
	if err := c.do(ctx, http.MethodGet, path, nil, &payloads); err != nil {
		return nil, err
	}

	datasets := make([]services.Dataset, 0, len(payloads))
	for _, p := range payloads {
		datasets = append(datasets, services.Dataset{
			ID:             p.ID,
			Name:           p.Name,
			EmbeddingModel: p.EmbeddingModel,
			DocumentCount:  p.DocumentCount,
			ChunkCount:     p.ChunkCount,
		})
	}
	return datasets, nil
}

// CountDocuments returns the number of documents indexed under a dataset
func (c *Client) CountDocuments(ctx context.Context, datasetID string) (int64, error) {
	page, err := c.fetchDocumentPage(ctx, datasetID, 1, 1)
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

// SumDocumentSize returns the total byte size of a dataset's documents
func (c *Client) SumDocumentSize(ctx context.Context, datasetID string) (int64, error) {
	return c.sumDocuments(ctx, datasetID, func(doc documentPayload) int64 { return doc.Size })
}

// SumTokens returns the total token count of a dataset's documents
func (c *Client) SumTokens(ctx context.Context, datasetID string) (int64, error) {
	return c.sumDocuments(ctx, datasetID, func(doc documentPayload) int64 { return doc.TokenNum })
}

// SumChunks returns the total chunk count of a dataset's documents
func (c *Client) SumChunks(ctx context.Context, datasetID string) (int64, error) {
	return c.sumDocuments(ctx, datasetID, func(doc documentPayload) int64 { return doc.ChunkNum })
}

const documentPageSize = 100

// sumDocuments pages through a dataset's document listing and folds one
// field over every document.
func (c *Client) sumDocuments(ctx context.Context, datasetID string, field func(documentPayload) int64) (int64, error) {
	var sum int64
	for page := 1; ; page++ {
		docs, err := c.fetchDocumentPage(ctx, datasetID, page, documentPageSize)
		if err != nil {
			return 0, err
		}
		for _, doc := range docs.Docs {
			sum += field(doc)
		}
		if int64(page*documentPageSize) >= docs.Total || len(docs.Docs) == 0 {
			break
		}
	}
	return sum, nil
}

func (c *Client) fetchDocumentPage(ctx context.Context, datasetID string, page, pageSize int) (*documentPage, error) {
	path := fmt.Sprintf("/api/v1/datasets/%s/documents?page=%s&page_size=%s",
		datasetID, strconv.Itoa(page), strconv.Itoa(pageSize))

	var result documentPage
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs one JSON request against the store and decodes the envelope.
// A non-2xx status or a non-zero envelope code is a failure.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dataset store request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("dataset store returned status %d: %s", resp.StatusCode, string(data))
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if envelope.Code != 0 {
		return fmt.Errorf("dataset store error %d: %s", envelope.Code, envelope.Message)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}

	return nil
}
