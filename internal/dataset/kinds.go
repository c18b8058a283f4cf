package dataset

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"arbor/internal/domain/models/knowledge"
)

//go:embed config/kinds.yaml
var configFiles embed.FS

// KindConfig describes how the external store chunks one dataset kind and
// the defaults applied when a node's retrieval config leaves fields unset.
type KindConfig struct {
	Parser        string `yaml:"parser" json:"parser"`
	Delimiter     string `yaml:"delimiter" json:"delimiter"`
	ChunkTokenNum int    `yaml:"chunk_token_num" json:"chunk_token_num"`
}

type kindFile struct {
	Kinds map[string]KindConfig `yaml:"kinds"`
}

// KindRegistry maps dataset kinds to their parser configuration
type KindRegistry struct {
	kinds map[knowledge.DatasetKind]KindConfig
	mu    sync.RWMutex
}

// NewKindRegistry loads the embedded kinds file
func NewKindRegistry() (*KindRegistry, error) {
	data, err := configFiles.ReadFile("config/kinds.yaml")
	if err != nil {
		return nil, fmt.Errorf("read kinds config: %w", err)
	}

	var file kindFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal kinds config: %w", err)
	}

	registry := &KindRegistry{
		kinds: make(map[knowledge.DatasetKind]KindConfig, len(file.Kinds)),
	}
	for name, cfg := range file.Kinds {
		registry.kinds[knowledge.DatasetKind(name)] = cfg
	}

	return registry, nil
}

// Get returns the configuration for a kind
func (r *KindRegistry) Get(kind knowledge.DatasetKind) (KindConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.kinds[kind]
	if !ok {
		return KindConfig{}, fmt.Errorf("unknown dataset kind: %s", kind)
	}
	return cfg, nil
}

// Kinds lists every registered kind
func (r *KindRegistry) Kinds() []knowledge.DatasetKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]knowledge.DatasetKind, 0, len(r.kinds))
	for kind := range r.kinds {
		kinds = append(kinds, kind)
	}
	return kinds
}

// ApplyDefaults fills unset retrieval-config fields from the kind's defaults
func (r *KindRegistry) ApplyDefaults(kind knowledge.DatasetKind, cfg knowledge.RetrievalConfig) (knowledge.RetrievalConfig, error) {
	kindCfg, err := r.Get(kind)
	if err != nil {
		return cfg, err
	}

	if cfg.Delimiter == "" {
		cfg.Delimiter = kindCfg.Delimiter
	}
	if cfg.ChunkTokenNum == 0 {
		cfg.ChunkTokenNum = kindCfg.ChunkTokenNum
	}
	return cfg, nil
}
