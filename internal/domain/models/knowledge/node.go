package knowledge

import (
	"time"
)

// VirtualRootID is the sentinel parent id for top-level nodes. No real row
// ever carries this id; the query service synthesizes the root on demand.
const VirtualRootID = "root"

// DatasetKind identifies the parser family of a node's backing dataset.
// Fixed at creation and immutable thereafter.
type DatasetKind string

const (
	DatasetKindGeneral DatasetKind = "general"
	DatasetKindLaws    DatasetKind = "laws"
	DatasetKindPaper   DatasetKind = "paper"
	DatasetKindBook    DatasetKind = "book"
	DatasetKindQA      DatasetKind = "qa"
	DatasetKindResume  DatasetKind = "resume"
	DatasetKindTable   DatasetKind = "table"
	DatasetKindPicture DatasetKind = "picture"
	DatasetKindOne     DatasetKind = "one"
	DatasetKindEmail   DatasetKind = "email"
)

// RetrievalConfig holds the chunking/embedding parameters copied into the
// external dataset at creation and propagated on update.
type RetrievalConfig struct {
	EmbeddingModel string `json:"embedding_model" db:"embedding_model"`
	Delimiter      string `json:"delimiter" db:"delimiter"`
	ChunkTokenNum  int    `json:"chunk_token_num" db:"chunk_token_num"`
	AutoKeywords   bool   `json:"auto_keywords" db:"auto_keywords"`
	AutoQuestions  bool   `json:"auto_questions" db:"auto_questions"`
}

// Statistics are the subtree-inclusive aggregates stored on every node:
// each field already includes the node's own dataset plus its whole subtree.
type Statistics struct {
	DocumentNum  int64 `json:"document_num" db:"document_num"`
	DocumentSize int64 `json:"document_size" db:"document_size"`
	TokenNum     int64 `json:"token_num" db:"token_num"`
	ChunkNum     int64 `json:"chunk_num" db:"chunk_num"`
}

// Add accumulates another statistics value into s.
func (s *Statistics) Add(other Statistics) {
	s.DocumentNum += other.DocumentNum
	s.DocumentSize += other.DocumentSize
	s.TokenNum += other.TokenNum
	s.ChunkNum += other.ChunkNum
}

// TreeNode is one node of the knowledge forest, backed 1:1 by a dataset in
// the external document-indexing store.
type TreeNode struct {
	ID          string      `json:"id" db:"id"`
	ParentID    string      `json:"parent_id" db:"parent_id"` // VirtualRootID = top level
	Level       int         `json:"level" db:"level"`         // root children are level 1
	Name        string      `json:"name" db:"name"`
	Description string      `json:"description" db:"description"`
	SortOrder   *int        `json:"sort_order" db:"sort_order"` // NULL sorts last among siblings
	DatasetID   string      `json:"dataset_id" db:"dataset_id"`
	DatasetKind DatasetKind `json:"dataset_kind" db:"dataset_kind"`

	RetrievalConfig RetrievalConfig `json:"retrieval_config"`
	Statistics      Statistics      `json:"statistics"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the node sits directly under the virtual root.
func (n *TreeNode) IsRoot() bool {
	return n.ParentID == VirtualRootID
}
