package sink

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lysyi3m/newswire/internal/news"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisChannel = "newswire:items"

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes each new item as JSON on a pub/sub channel.
// Failures and skips stay local.
type RedisSink struct {
	client  publisher
	closer  func() error
	channel string
}

func NewRedisSink(addr, channel string) *RedisSink {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis ping failed, items will still be published", "addr", addr, "error", err)
	}

	return newRedisSink(rdb, rdb.Close, channel)
}

func newRedisSink(client publisher, closer func() error, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisSink{client: client, closer: closer, channel: channel}
}

func (s *RedisSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *RedisSink) Item(ctx context.Context, item news.Item) {
	payload, err := json.Marshal(item)
	if err != nil {
		slog.Error("Failed to encode item", "source", item.Source, "error", err)
		return
	}

	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		slog.Error("Redis publish failed", "channel", s.channel, "source", item.Source, "error", err)
	}
}

func (s *RedisSink) Failure(ctx context.Context, failure news.Failure) {}

func (s *RedisSink) Skip(ctx context.Context, skip news.Skip) {}
