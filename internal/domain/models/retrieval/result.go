package retrieval

// Result is the normalized shape every vendor retrieval adapter (Dify,
// RAGFlow, H3C, DIOS) produces after a query. Chunks are already in the
// relevance order that was returned to the caller; the audit pipeline
// preserves that order and never re-sorts.
type Result struct {
	Code    int     `json:"code"`
	Message string  `json:"message"`
	Total   int     `json:"total"`
	Chunks  []Chunk `json:"chunks"`

	// DocAggs may be supplied by adapters whose backend already aggregates
	// per-document counts. When empty it is derived from Chunks.
	DocAggs []DocAgg `json:"doc_aggs,omitempty"`
}

// Chunk is one retrieved fragment as produced by an adapter.
type Chunk struct {
	ChunkID          string   `json:"chunk_id"`
	Content          string   `json:"content"`
	Similarity       float64  `json:"similarity"`
	VectorSimilarity float64  `json:"vector_similarity"`
	TermSimilarity   float64  `json:"term_similarity"`
	DocumentID       string   `json:"document_id"`
	DocumentKeyword  string   `json:"document_keyword"`
	Keywords         []string `json:"important_keywords,omitempty"`
	Positions        [][]int  `json:"positions,omitempty"`
	Highlighted      bool     `json:"highlighted"`
}

// DocAgg is an adapter-supplied per-document occurrence count.
type DocAgg struct {
	DocumentID string `json:"doc_id"`
	Count      int    `json:"count"`
}
