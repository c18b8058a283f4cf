package retrieval

import "time"

// WorkflowRun records one retrieval invocation, keyed by the caller-supplied
// run id. Write-once: rows are never updated after insertion.
type WorkflowRun struct {
	ID        string    `json:"id" db:"id"`
	RunID     string    `json:"run_id" db:"run_id"`
	Code      int       `json:"code" db:"code"`
	Message   string    `json:"message" db:"message"`
	Query     string    `json:"query" db:"query"`
	Total     int       `json:"total" db:"total"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WorkflowChunk is one retrieved text fragment within a run. Index is the
// 1-based position in the order the chunks were returned to the caller;
// reading back by run id ordered by Index reproduces that order exactly.
type WorkflowChunk struct {
	ID               string    `json:"id" db:"id"`
	RunID            string    `json:"run_id" db:"run_id"`
	ChunkID          string    `json:"chunk_id" db:"chunk_id"`
	Content          string    `json:"content" db:"content"`
	Similarity       float64   `json:"similarity" db:"similarity"`
	VectorSimilarity float64   `json:"vector_similarity" db:"vector_similarity"`
	TermSimilarity   float64   `json:"term_similarity" db:"term_similarity"`
	DocumentID       string    `json:"document_id" db:"document_id"`
	DocumentKeyword  string    `json:"document_keyword" db:"document_keyword"`
	Keywords         string    `json:"keywords" db:"keywords"`   // JSON array text
	Positions        string    `json:"positions" db:"positions"` // JSON array text
	Index            int       `json:"index" db:"idx"`
	Highlighted      bool      `json:"highlighted" db:"highlighted"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// WorkflowDocAgg counts how many of a run's chunks came from one source
// document.
type WorkflowDocAgg struct {
	ID         string    `json:"id" db:"id"`
	RunID      string    `json:"run_id" db:"run_id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Count      int       `json:"count" db:"count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
