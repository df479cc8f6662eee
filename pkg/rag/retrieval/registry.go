package retrieval

import (
	"errors"
	"fmt"
	"sync"

	"medichain-be/internal/config"
	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/embedding"
	"medichain-be/pkg/index"
)

// Registry maps category labels to backends. Labels without a backend
// resolve to the default label's backend.
type Registry struct {
	mu           sync.RWMutex
	backends     map[string]Backend
	defaultLabel string
}

func NewRegistry(defaultLabel string) *Registry {
	return &Registry{backends: make(map[string]Backend), defaultLabel: defaultLabel}
}

func (r *Registry) Register(label string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[label] = b
}

// Resolve returns the backend serving label and the label it was registered
// under. The backend is nil when neither label nor the default is available.
func (r *Registry) Resolve(label string) (Backend, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if b, ok := r.backends[label]; ok {
		return b, label
	}
	if b, ok := r.backends[r.defaultLabel]; ok {
		return b, r.defaultLabel
	}
	return nil, ""
}

func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.backends))
	for l := range r.backends {
		out = append(out, l)
	}
	return out
}

// Deps are the shared resources backends are built from.
type Deps struct {
	Embedder  embedding.EmbeddingProvider
	Documents DocumentSearcher
}

type rawArtifact struct {
	idx    *index.RawIndex
	chunks []string
	err    error
}

// BuildRegistry constructs a backend for every category in the table. A
// category whose artifacts cannot be loaded is left unregistered, so it
// falls back to the default backend; startup continues.
func BuildRegistry(table *config.CategoryTable, deps Deps, log logger.ILogger) *Registry {
	reg := NewRegistry(table.DefaultLabel)
	artifacts := make(map[string]rawArtifact)

	for _, c := range table.Categories {
		b, err := buildBackend(c, table, deps, artifacts)
		if err != nil {
			log.Warn("RETRIEVER", "Category backend unavailable, falling back to default", map[string]interface{}{
				"label":   c.Label,
				"backend": c.Backend,
				"error":   err.Error(),
			})
			continue
		}
		reg.Register(c.Label, b)
		log.Info("RETRIEVER", "Category backend registered", map[string]interface{}{
			"label":   c.Label,
			"backend": b.Kind(),
		})
	}
	return reg
}

func buildBackend(c config.CategoryConfig, table *config.CategoryTable, deps Deps, artifacts map[string]rawArtifact) (Backend, error) {
	switch c.Backend {
	case config.BackendDocument:
		if deps.Documents == nil {
			return nil, errors.New("no document store configured")
		}
		collection := c.Collection
		if collection == "" {
			collection = c.Label
		}
		return NewDocumentBackend(deps.Documents, collection, table.Retrieval.TopK), nil

	case config.BackendRaw:
		if c.IndexPath == "" || c.ChunksPath == "" {
			return nil, errors.New("index_path and chunks_path are required")
		}
		key := c.IndexPath + "|" + c.ChunksPath
		art, ok := artifacts[key]
		if !ok {
			art = loadRawArtifact(c.IndexPath, c.ChunksPath)
			artifacts[key] = art
		}
		if art.err != nil {
			return nil, art.err
		}
		return NewRawVectorBackend(deps.Embedder, art.idx, art.chunks, table.Retrieval.EffectiveThreshold(), table.Retrieval.TopK)

	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}

func loadRawArtifact(indexPath, chunksPath string) rawArtifact {
	idx, err := index.LoadFvecs(indexPath)
	if err != nil {
		return rawArtifact{err: err}
	}
	chunks, err := index.LoadChunks(chunksPath)
	if err != nil {
		return rawArtifact{err: err}
	}
	return rawArtifact{idx: idx, chunks: chunks}
}
