package search

import (
	"context"
	"fmt"
	"strings"

	"medichain-be/internal/entity"
	"medichain-be/internal/pkg/logger"
	"medichain-be/internal/repository/contract"
	"medichain-be/pkg/embedding"
	"medichain-be/pkg/utils"

	"github.com/google/uuid"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
	ingestConcurrency   = 4
)

// Ingester chunks reference documents, embeds every chunk and stores them
// in the passage store under a collection.
type Ingester struct {
	embeddingProvider embedding.EmbeddingProvider
	repo              contract.PassageRepository
	chunkSize         int
	overlap           int
	logger            logger.ILogger
}

func NewIngester(embeddingProvider embedding.EmbeddingProvider, repo contract.PassageRepository, chunkSize, overlap int, logger logger.ILogger) *Ingester {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Ingester{
		embeddingProvider: embeddingProvider,
		repo:              repo,
		chunkSize:         chunkSize,
		overlap:           overlap,
		logger:            logger,
	}
}

// Ingest stores text as passages of collection and returns how many were
// written. Nothing is written when any chunk fails to embed.
func (in *Ingester) Ingest(ctx context.Context, collection, source, text string) (int, error) {
	var chunks []string
	for _, c := range utils.SplitText(text, in.chunkSize, in.overlap) {
		if c = strings.TrimSpace(c); c != "" {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := embedding.GenerateBatch(ctx, in.embeddingProvider, chunks, embedding.TaskRetrievalDocument, ingestConcurrency)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", source, err)
	}

	passages := make([]*entity.PassageEmbedding, len(chunks))
	for i, chunk := range chunks {
		passages[i] = &entity.PassageEmbedding{
			Id:             uuid.New(),
			Category:       collection,
			Document:       chunk,
			EmbeddingValue: vectors[i],
			Source:         source,
			ChunkIndex:     i,
			Metadata:       map[string]interface{}{"source": source},
		}
	}

	if err := in.repo.CreateBulk(ctx, passages); err != nil {
		return 0, fmt.Errorf("store %s: %w", source, err)
	}

	in.logger.Info("INGEST", "Document stored", map[string]interface{}{
		"collection": collection,
		"source":     source,
		"passages":   len(passages),
	})
	return len(passages), nil
}
