package config

const (
	// MaxNodeNameLength is the maximum length for tree node names.
	// The external dataset store caps dataset names at 128 characters and
	// every node name becomes a dataset name.
	MaxNodeNameLength = 128

	// MaxNodeDescriptionLength is the maximum length for node descriptions.
	MaxNodeDescriptionLength = 1024

	// MaxChunkTokenNum is the largest chunk size the store's parsers accept.
	MaxChunkTokenNum = 4096

	// MaxDeleteBatchSize caps how many node ids one batch delete accepts.
	MaxDeleteBatchSize = 100
)
