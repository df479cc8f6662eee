package embedding

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedProvider memoizes embeddings by (taskType, text). Repeated questions
// in a chat session skip the upstream call entirely.
type CachedProvider struct {
	next  EmbeddingProvider
	cache *lru.Cache[string, []float32]

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

func NewCachedProvider(next EmbeddingProvider, size int) (*CachedProvider, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedProvider{next: next, cache: c}, nil
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := taskType + "\x00" + text
	if v, ok := p.cache.Get(key); ok {
		p.count(true)
		return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: v}}, nil
	}
	p.count(false)

	res, err := p.next.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, res.Embedding.Values)
	return res, nil
}

// Stats returns cache hits and misses since construction.
func (p *CachedProvider) Stats() (hits, misses uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses
}

func (p *CachedProvider) count(hit bool) {
	p.mu.Lock()
	if hit {
		p.hits++
	} else {
		p.misses++
	}
	p.mu.Unlock()
}
