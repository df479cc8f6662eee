package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medichain-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "medichain:history:"

// HistoryRepository stores each session as a Redis list of JSON turns.
// Every append refreshes the key's expiry.
type HistoryRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewHistoryRepository(rdb *redis.Client, ttl time.Duration) *HistoryRepository {
	return &HistoryRepository{rdb: rdb, ttl: ttl}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *HistoryRepository) Load(ctx context.Context, sessionID string) ([]store.Turn, error) {
	raw, err := r.rdb.LRange(ctx, key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	turns := make([]store.Turn, 0, len(raw))
	for _, item := range raw {
		var t store.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("corrupt history entry in session %s: %w", sessionID, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (r *HistoryRepository) Append(ctx context.Context, sessionID string, turns ...store.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		values = append(values, b)
	}

	k := key(sessionID)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, k, values...)
	if r.ttl > 0 {
		pipe.Expire(ctx, k, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append session history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Delete(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, key(sessionID)).Err()
}
