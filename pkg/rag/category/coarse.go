package category

import (
	"context"
	"errors"
	"fmt"

	"medichain-be/pkg/embedding"
	"medichain-be/pkg/store"
	"medichain-be/pkg/vector"
)

// RankedExemplar is an exemplar with its similarity to the query.
type RankedExemplar struct {
	Text     string
	Label    Label
	Score    float64
	Position int
}

// CoarseCandidate is the recall-stage outcome. When Confident is false the
// pipeline skips retrieval entirely.
type CoarseCandidate struct {
	Confident bool
	Best      float64
	Ranked    []RankedExemplar // top-K, unfiltered
	Evidence  []RankedExemplar // Ranked entries meeting the threshold
}

// CoarseStage compares the query embedding against every exemplar.
// Read-only after construction.
type CoarseStage struct {
	embedder   embedding.EmbeddingProvider
	exemplars  []store.Exemplar
	normalized [][]float32
	threshold  float64
	topK       int
}

func NewCoarseStage(embedder embedding.EmbeddingProvider, exemplars []store.Exemplar, threshold float64, topK int) (*CoarseStage, error) {
	if len(exemplars) == 0 {
		return nil, errors.New("no routing exemplars loaded")
	}
	dim := len(exemplars[0].Embedding)
	rows := make([][]float32, len(exemplars))
	for i, ex := range exemplars {
		if len(ex.Embedding) == 0 || len(ex.Embedding) != dim {
			return nil, fmt.Errorf("exemplar %d (%s) has embedding dimension %d, want %d", i, ex.Label, len(ex.Embedding), dim)
		}
		rows[i] = ex.Embedding
	}

	return &CoarseStage{
		embedder:   embedder,
		exemplars:  exemplars,
		normalized: vector.NormalizeAll(rows),
		threshold:  threshold,
		topK:       topK,
	}, nil
}

func (s *CoarseStage) Threshold() float64 { return s.threshold }

func (s *CoarseStage) Scan(ctx context.Context, query string) (CoarseCandidate, error) {
	q, err := embedding.Embed(ctx, s.embedder, query, embedding.TaskClassification)
	if err != nil {
		return CoarseCandidate{}, err
	}

	scores, err := vector.ScoreAll(vector.Normalize(q), s.normalized)
	if err != nil {
		return CoarseCandidate{}, fmt.Errorf("score exemplars: %w", err)
	}
	return s.rank(scores), nil
}

func (s *CoarseStage) rank(scores []vector.Scored) CoarseCandidate {
	top := vector.TopK(scores, s.topK)

	cand := CoarseCandidate{Ranked: make([]RankedExemplar, len(top))}
	for i, sc := range top {
		ex := s.exemplars[sc.Index]
		cand.Ranked[i] = RankedExemplar{Text: ex.Text, Label: Label(ex.Label), Score: sc.Score, Position: sc.Index}
	}
	if len(cand.Ranked) == 0 {
		return cand
	}

	cand.Best = cand.Ranked[0].Score
	if cand.Best < s.threshold {
		return cand
	}

	cand.Confident = true
	for _, r := range cand.Ranked {
		if r.Score >= s.threshold {
			cand.Evidence = append(cand.Evidence, r)
		}
	}
	return cand
}
