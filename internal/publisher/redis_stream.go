package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// runStream is where completed pipeline runs are announced. Downstream
// warehouse jobs consume it to know a date's staging data is ready.
const runStream = "courtside.pipeline.runs"

// maxStreamLen caps the stream; consumers lagging more than this lose history.
const maxStreamLen = 1000

// RedisPublisher publishes pipeline run events to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new Redis stream publisher
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
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

	return &RedisPublisher{
		client: client,
	}, nil
}

// Close closes the Redis connection
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}

// PublishRun announces a completed pipeline run on the run stream.
func (rp *RedisPublisher) PublishRun(ctx context.Context, summary interface{}) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: runStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
