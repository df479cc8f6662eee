package memory

import (
	"context"
	"time"

	"medichain-be/pkg/store"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUHistoryRepository bounds the number of live sessions. The least
// recently touched session is evicted once maxSessions is reached.
type LRUHistoryRepository struct {
	cache *expirable.LRU[string, []store.Turn]
}

func NewLRUHistoryRepository(maxSessions int, ttl time.Duration) *LRUHistoryRepository {
	if maxSessions <= 0 {
		maxSessions = 10000
	}
	return &LRUHistoryRepository{
		cache: expirable.NewLRU[string, []store.Turn](maxSessions, nil, ttl),
	}
}

func (r *LRUHistoryRepository) Load(_ context.Context, sessionID string) ([]store.Turn, error) {
	if turns, ok := r.cache.Get(sessionID); ok {
		return append([]store.Turn(nil), turns...), nil
	}
	return []store.Turn{}, nil
}

func (r *LRUHistoryRepository) Append(_ context.Context, sessionID string, turns ...store.Turn) error {
	current, _ := r.cache.Get(sessionID)
	next := make([]store.Turn, 0, len(current)+len(turns))
	next = append(next, current...)
	next = append(next, turns...)

	r.cache.Add(sessionID, next)
	return nil
}

func (r *LRUHistoryRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Remove(sessionID)
	return nil
}
