package retrieval

import (
	"context"

	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/store"
)

// Retriever resolves a category to its backend and runs the search.
type Retriever struct {
	registry *Registry
	logger   logger.ILogger
}

func NewRetriever(registry *Registry, logger logger.ILogger) *Retriever {
	return &Retriever{registry: registry, logger: logger}
}

// Retrieve returns the grounding for query under label. An empty block is a
// normal outcome; only backend transport failures are returned as errors.
func (r *Retriever) Retrieve(ctx context.Context, label, query string) (store.ContextBlock, error) {
	backend, served := r.registry.Resolve(label)
	if backend == nil {
		r.logger.Warn("RETRIEVER", "No backend for category or default, continuing ungrounded", map[string]interface{}{
			"label": label,
		})
		return store.ContextBlock{}, nil
	}
	if served != label {
		r.logger.Warn("RETRIEVER", "No backend for category, using default", map[string]interface{}{
			"label":  label,
			"served": served,
		})
	}

	block, err := backend.Search(ctx, query)
	if err != nil {
		r.logger.Error("RETRIEVER", "Backend search failed", map[string]interface{}{
			"label": served,
			"kind":  backend.Kind(),
			"error": err.Error(),
		})
		return store.ContextBlock{}, err
	}

	r.logger.Info("RETRIEVER", "Context assembled", map[string]interface{}{
		"label":    served,
		"kind":     backend.Kind(),
		"passages": len(block.Passages),
	})
	return block, nil
}
