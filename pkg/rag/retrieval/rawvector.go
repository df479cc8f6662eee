package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"medichain-be/internal/config"
	"medichain-be/pkg/embedding"
	"medichain-be/pkg/index"
	"medichain-be/pkg/store"
	"medichain-be/pkg/vector"
)

const rawSeparator = "\n"

// RawVectorBackend re-scores every stored vector of a flat index against the
// query by cosine similarity, keeps those at or above the threshold and caps
// the result at topK.
type RawVectorBackend struct {
	embedder   embedding.EmbeddingProvider
	chunks     []string
	normalized [][]float32
	dim        int
	threshold  float64
	topK       int
}

// NewRawVectorBackend reconstructs and normalizes the stored vectors once.
// chunks[i] must be the passage for vector i.
func NewRawVectorBackend(embedder embedding.EmbeddingProvider, idx *index.RawIndex, chunks []string, threshold float64, topK int) (*RawVectorBackend, error) {
	if idx.Len() == 0 {
		return nil, fmt.Errorf("%w: index is empty", index.ErrMalformedIndex)
	}
	if len(chunks) < idx.Len() {
		return nil, fmt.Errorf("%w: %d vectors but only %d chunks", index.ErrMalformedIndex, idx.Len(), len(chunks))
	}

	return &RawVectorBackend{
		embedder:   embedder,
		chunks:     chunks,
		normalized: vector.NormalizeAll(idx.ReconstructAll()),
		dim:        idx.Dim(),
		threshold:  threshold,
		topK:       topK,
	}, nil
}

func (b *RawVectorBackend) Kind() string { return config.BackendRaw }

func (b *RawVectorBackend) Search(ctx context.Context, query string) (store.ContextBlock, error) {
	q, err := embedding.Embed(ctx, b.embedder, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return store.ContextBlock{}, err
	}
	if len(q) != b.dim {
		return store.ContextBlock{}, fmt.Errorf("query embedding has dimension %d, index has %d: %w", len(q), b.dim, vector.ErrDimensionMismatch)
	}

	scores, err := vector.ScoreAll(vector.Normalize(q), b.normalized)
	if err != nil {
		return store.ContextBlock{}, err
	}

	selected := vector.AtLeast(vector.Rank(scores), b.threshold)
	if len(selected) > b.topK {
		selected = selected[:b.topK]
	}

	block := store.ContextBlock{Separator: rawSeparator}
	for _, s := range selected {
		block.Passages = append(block.Passages, store.Passage{
			ID:    strconv.Itoa(s.Index),
			Text:  b.chunks[s.Index],
			Score: s.Score,
		})
	}
	return block, nil
}
