package embedding

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// GenerateBatch embeds texts concurrently with at most limit calls in
// flight. Results are returned in input order. The first failure cancels
// the remaining calls.
func GenerateBatch(ctx context.Context, p EmbeddingProvider, texts []string, taskType string, limit int) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}
	if limit <= 0 {
		limit = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, text := range texts {
		g.Go(func() error {
			vec, err := Embed(gctx, p, text, taskType)
			if err != nil {
				return fmt.Errorf("embedding item %d: %w", i, err)
			}
			out[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
