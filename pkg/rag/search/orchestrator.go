package search

import (
	"context"
	"fmt"

	"medichain-be/internal/pkg/logger"
	"medichain-be/internal/repository/contract"
	"medichain-be/pkg/apperror"
	"medichain-be/pkg/embedding"
	"medichain-be/pkg/store"
)

// Orchestrator runs document-native similarity search against the pgvector
// passage store. It satisfies retrieval.DocumentSearcher.
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	repo              contract.PassageRepository
	logger            logger.ILogger
}

func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, repo contract.PassageRepository, logger logger.ILogger) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		repo:              repo,
		logger:            logger,
	}
}

// Search returns the k passages of collection nearest to query, most similar
// first. No similarity cut-off is applied.
func (o *Orchestrator) Search(ctx context.Context, collection, query string, k int) ([]store.Passage, error) {
	vec, err := embedding.Embed(ctx, o.embeddingProvider, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	results, err := o.repo.SearchSimilarWithScore(ctx, collection, vec, k)
	if err != nil {
		o.logger.Error("RETRIEVER", "Vector search failed", map[string]interface{}{
			"collection": collection,
			"error":      err.Error(),
		})
		return nil, apperror.Upstream("passage store query failed", err)
	}

	passages := make([]store.Passage, 0, len(results))
	for i, res := range results {
		o.logger.Debug("RETRIEVER", "Document candidate", map[string]interface{}{
			"rank":  i + 1,
			"score": res.Similarity,
		})
		passages = append(passages, store.Passage{
			ID:       res.Passage.Id.String(),
			Text:     res.Passage.Document,
			Score:    res.Similarity,
			Metadata: res.Passage.Metadata,
		})
	}
	return passages, nil
}
