package redis

import (
	"context"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const bridgePrefix = "chan:"

// RedisEventBridge relays broadcast frames between nodes over pub/sub so
// clients of the same channel connected to different instances still see
// each other's events. Implements contracts.EventBridge.
type RedisEventBridge struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisEventBridge(log *slog.Logger, rdb *redis.Client) *RedisEventBridge {
	return &RedisEventBridge{rdb: rdb, log: log}
}

func (b *RedisEventBridge) Publish(ctx context.Context, channelKey string, data []byte) error {
	return b.rdb.Publish(ctx, bridgePrefix+channelKey, data).Err()
}

// Subscribe starts the background receive loop over a pattern subscription
// covering every chat channel. Returns once the subscription is confirmed.
func (b *RedisEventBridge) Subscribe(ctx context.Context, handler func(channelKey string, data []byte)) error {
	pubsub := b.rdb.PSubscribe(ctx, bridgePrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				key := strings.TrimPrefix(msg.Channel, bridgePrefix)
				handler(key, []byte(msg.Payload))
			}
		}
	}()
	return nil
}
