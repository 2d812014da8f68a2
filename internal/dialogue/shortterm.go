package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ShortTermStore keeps the latest turns of each session in a Redis list,
// newest at the head.
type ShortTermStore struct {
	client   redis.Cmdable
	maxTurns int
	ttl      time.Duration
}

func NewShortTermStore(client redis.Cmdable, maxTurns int, ttl time.Duration) *ShortTermStore {
	return &ShortTermStore{client: client, maxTurns: maxTurns, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return "dialogue_session:" + sessionID
}

// RecentTurns returns up to limit turns, newest first.
func (s *ShortTermStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}
	key := sessionKey(sessionID)

	vals, err := s.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	turns := make([]Turn, 0, len(vals))
	for _, v := range vals {
		var t Turn
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			continue // skip malformed entries
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Append pushes a turn to the head of its session list, trims the list and
// refreshes the expiry.
func (s *ShortTermStore) Append(ctx context.Context, t *Turn) error {
	key := sessionKey(t.SessionID)

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling turn: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, 0, int64(s.maxTurns-1))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}

