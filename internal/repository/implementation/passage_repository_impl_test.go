package implementation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestPassageSearchSimilarWithScore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPassageRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "category", "document", "embedding_value", "source", "chunk_index", "metadata", "created_at", "updated_at", "similarity",
	}).
		AddRow("2f1c7b8e-3c55-4a8e-9d0b-2a4b2b3e6f10", "treatment", "Rest and fluids help recovery.", "[0.6,0.8]", "guide.pdf", 0, []byte(`{"page":3}`), now, now, 0.71).
		AddRow("8a0c1a0e-7e3f-4f57-9b4e-5f2ad9a6c0d1", "treatment", "Antivirals within 48 hours.", "[0.8,0.6]", "guide.pdf", 1, []byte(`{}`), now, now, 0.42)

	mock.ExpectQuery(`SELECT passage_embeddings\.\*, 1 - \(embedding_value <=> \$1\) as similarity FROM "passage_embeddings" WHERE category = \$2 ORDER BY similarity DESC LIMIT`).
		WillReturnRows(rows)

	got, err := repo.SearchSimilarWithScore(context.Background(), "treatment", []float32{0.6, 0.8}, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Rest and fluids help recovery.", got[0].Passage.Document)
	assert.Equal(t, 0.71, got[0].Similarity)
	assert.Equal(t, []float32{0.6, 0.8}, got[0].Passage.EmbeddingValue)
	assert.Equal(t, float64(3), got[0].Passage.Metadata["page"])
	assert.Empty(t, got[1].Passage.Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPassageSearchError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPassageRepository(db)

	mock.ExpectQuery(`FROM "passage_embeddings"`).WillReturnError(errors.New("connection refused"))

	_, err := repo.SearchSimilarWithScore(context.Background(), "treatment", []float32{1}, 0)
	assert.ErrorContains(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPassageCountByCategory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPassageRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "passage_embeddings" WHERE category = \$1`).
		WithArgs("treatment").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := repo.CountByCategory(context.Background(), "treatment")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
