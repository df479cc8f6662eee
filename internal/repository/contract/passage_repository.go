package contract

import (
	"context"

	"medichain-be/internal/entity"
)

// ScoredPassage wraps a passage with its cosine similarity to the query
type ScoredPassage struct {
	Passage    *entity.PassageEmbedding
	Similarity float64
}

type PassageRepository interface {
	CreateBulk(ctx context.Context, passages []*entity.PassageEmbedding) error
	CountByCategory(ctx context.Context, category string) (int64, error)
	// SearchSimilarWithScore returns the nearest passages of a category, most similar first
	SearchSimilarWithScore(ctx context.Context, category string, embedding []float32, limit int) ([]*ScoredPassage, error)
}
