// internal/matching/cache.go
// Read-through cache for suggestion lists. The board UI polls these lists
// aggressively, so cache hits keep refresh traffic off Postgres.

package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a redis client. A nil client disables caching entirely,
// which is how the service runs when Redis is not configured.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func suggestionListKey(ownerID, tripID int64, status string) string {
	return fmt.Sprintf("matching:suggestions:%d:%d:%s", ownerID, tripID, status)
}

func (c *Cache) GetSuggestionList(ctx context.Context, ownerID, tripID int64, status string) ([]*Suggestion, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, suggestionListKey(ownerID, tripID, status)).Bytes()
	if err != nil {
		return nil, false
	}

	var suggestions []*Suggestion
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, false
	}

	return suggestions, true
}

func (c *Cache) SetSuggestionList(ctx context.Context, ownerID, tripID int64, status string, suggestions []*Suggestion) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(suggestions)
	if err != nil {
		return
	}

	c.client.Set(ctx, suggestionListKey(ownerID, tripID, status), data, c.ttl)
}

// InvalidateTrip drops every cached list for a trip. Called after a refresh
// writes new scores and after any lifecycle action.
func (c *Cache) InvalidateTrip(ctx context.Context, ownerID, tripID int64) {
	if c == nil || c.client == nil {
		return
	}

	pattern := fmt.Sprintf("matching:suggestions:%d:%d:*", ownerID, tripID)
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	c.client.Del(ctx, keys...)
}
