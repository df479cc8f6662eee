package memory

import (
	"context"
	"time"

	"medichain-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// HistoryRepository keeps session histories in process memory. A session
// expires ttl after its last append.
type HistoryRepository struct {
	cache *cache.Cache
}

func NewHistoryRepository(ttl time.Duration) *HistoryRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	// Purge expired sessions every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &HistoryRepository{
		cache: c,
	}
}

func (r *HistoryRepository) Load(_ context.Context, sessionID string) ([]store.Turn, error) {
	if x, found := r.cache.Get(sessionID); found {
		turns := x.([]store.Turn)
		return append([]store.Turn(nil), turns...), nil
	}
	return []store.Turn{}, nil
}

// Append copies on write so slices handed out by Load are never mutated.
// Callers serialize appends per session.
func (r *HistoryRepository) Append(_ context.Context, sessionID string, turns ...store.Turn) error {
	var current []store.Turn
	if x, found := r.cache.Get(sessionID); found {
		current = x.([]store.Turn)
	}
	next := make([]store.Turn, 0, len(current)+len(turns))
	next = append(next, current...)
	next = append(next, turns...)

	r.cache.Set(sessionID, next, cache.DefaultExpiration)
	return nil
}

func (r *HistoryRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}
