package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultBoxScoreTTL keeps fetched box scores around long enough for a
// re-invoked pipeline run to skip refetching, without serving stale stats
// across days.
const DefaultBoxScoreTTL = 6 * time.Hour

// ErrCacheMiss is returned when no payload is cached for a key.
var ErrCacheMiss = errors.New("cache miss")

// RedisCache stores raw provider payloads so a re-run of the pipeline for the
// same date does not re-spend API budget on games already fetched.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache connection.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
		ttl:    DefaultBoxScoreTTL,
	}, nil
}

// Close closes the Redis connection.
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// HealthCheck pings Redis to verify connection.
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// PutBoxScore caches the joined raw box-score rows for a game.
func (rc *RedisCache) PutBoxScore(ctx context.Context, gameID string, rows []map[string]interface{}) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshaling box score for game %s: %w", gameID, err)
	}
	return rc.client.Set(ctx, boxScoreKey(gameID), payload, rc.ttl).Err()
}

// GetBoxScore returns the cached rows for a game, or ErrCacheMiss.
func (rc *RedisCache) GetBoxScore(ctx context.Context, gameID string) ([]map[string]interface{}, error) {
	payload, err := rc.client.Get(ctx, boxScoreKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("unmarshaling cached box score for game %s: %w", gameID, err)
	}
	return rows, nil
}

// Delete removes cached payloads.
func (rc *RedisCache) Delete(ctx context.Context, gameIDs ...string) error {
	keys := make([]string, 0, len(gameIDs))
	for _, id := range gameIDs {
		keys = append(keys, boxScoreKey(id))
	}
	return rc.client.Del(ctx, keys...).Err()
}

func boxScoreKey(gameID string) string {
	return "boxscore:" + gameID
}
