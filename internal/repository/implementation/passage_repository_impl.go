package implementation

import (
	"context"

	"medichain-be/internal/entity"
	"medichain-be/internal/mapper"
	"medichain-be/internal/model"
	"medichain-be/internal/repository/contract"
	"medichain-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PassageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PassageMapper
}

func NewPassageRepository(db *gorm.DB) contract.PassageRepository {
	return &PassageRepositoryImpl{
		db:     db,
		mapper: mapper.NewPassageMapper(),
	}
}

func (r *PassageRepositoryImpl) CreateBulk(ctx context.Context, passages []*entity.PassageEmbedding) error {
	models := make([]*model.PassageEmbedding, len(passages))
	for i, p := range passages {
		models[i] = r.mapper.ToModel(p)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*passages[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *PassageRepositoryImpl) CountByCategory(ctx context.Context, category string) (int64, error) {
	var count int64
	err := specification.ByCategory{Category: category}.
		Apply(r.db.WithContext(ctx).Model(&model.PassageEmbedding{})).
		Count(&count).Error
	return count, err
}

func (r *PassageRepositoryImpl) SearchSimilarWithScore(ctx context.Context, category string, embedding []float32, limit int) ([]*contract.ScoredPassage, error) {
	if limit <= 0 {
		limit = 3
	}

	// pgvector <=> is cosine distance, so similarity = 1 - distance
	type result struct {
		model.PassageEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("passage_embeddings").
		Select("passage_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector)
	err := specification.Apply(query,
		specification.ByCategory{Category: category},
		specification.OrderBy{Field: "similarity", Desc: true},
		specification.Limit{N: limit},
	).Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPassage, len(results))
	for i := range results {
		scored[i] = &contract.ScoredPassage{
			Passage:    r.mapper.ToEntity(&results[i].PassageEmbedding),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
