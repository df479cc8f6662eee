package search

import (
	"context"
	"errors"
	"testing"

	"medichain-be/internal/entity"
	"medichain-be/internal/pkg/logger"
	"medichain-be/internal/repository/contract"
	"medichain-be/internal/testutil"
	"medichain-be/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	results  []*contract.ScoredPassage
	err      error
	category string
	vector   []float32
	created  []*entity.PassageEmbedding
}

func (s *stubRepo) CreateBulk(_ context.Context, passages []*entity.PassageEmbedding) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, passages...)
	return nil
}

func (s *stubRepo) CountByCategory(context.Context, string) (int64, error) {
	return int64(len(s.results)), nil
}

func (s *stubRepo) SearchSimilarWithScore(_ context.Context, category string, embedding []float32, _ int) ([]*contract.ScoredPassage, error) {
	s.category = category
	s.vector = embedding
	return s.results, s.err
}

func TestOrchestratorSearch(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{results: []*contract.ScoredPassage{
		{Passage: &entity.PassageEmbedding{Id: id, Document: "Rest and fluids."}, Similarity: 0.2},
	}}
	emb := &testutil.FakeEmbedder{Fallback: []float32{0.1, 0.2}}

	got, err := NewOrchestrator(emb, repo, logger.NewNopLogger()).Search(context.Background(), "treatment", "flu?", 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id.String(), got[0].ID)
	assert.Equal(t, "Rest and fluids.", got[0].Text)
	assert.Equal(t, 0.2, got[0].Score)
	assert.Equal(t, "treatment", repo.category)
	assert.Equal(t, []float32{0.1, 0.2}, repo.vector)
}

func TestOrchestratorRepositoryFailureIsUpstream(t *testing.T) {
	repo := &stubRepo{err: errors.New("connection refused")}
	emb := &testutil.FakeEmbedder{Fallback: []float32{1}}

	_, err := NewOrchestrator(emb, repo, logger.NewNopLogger()).Search(context.Background(), "treatment", "flu?", 3)
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestOrchestratorEmbeddingFailure(t *testing.T) {
	emb := &testutil.FakeEmbedder{Err: apperror.Timeout("embedding call timed out", nil)}

	_, err := NewOrchestrator(emb, &stubRepo{}, logger.NewNopLogger()).Search(context.Background(), "treatment", "flu?", 3)
	assert.ErrorIs(t, err, apperror.ErrTimeout)
}
