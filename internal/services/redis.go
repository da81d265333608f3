package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/chordsync/internal/docstore"
)

// RedisNotifier publishes collection writes on a Redis channel and wakes local listeners for writes
// made by any process on the same channel.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	local   *docstore.LocalNotifier
	logger  *log.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
}

// NewRedisNotifier parses url and returns a notifier on channel. Call [RedisNotifier.Start] to receive remote writes.
func NewRedisNotifier(url, channel string, logger *log.Logger) (*RedisNotifier, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return NewRedisNotifierWithClient(redis.NewClient(opt), channel, logger), nil
}

// NewRedisNotifierWithClient wraps an existing client.
func NewRedisNotifierWithClient(rdb *redis.Client, channel string, logger *log.Logger) *RedisNotifier {
	if channel == "" {
		channel = "chordsync:changes"
	}
	return &RedisNotifier{
		rdb:     rdb,
		channel: channel,
		local:   docstore.NewLocalNotifier(),
		logger:  logger.With("component", "redis"),
	}
}

// Start subscribes to the channel and forwards every published collection path to local listeners until ctx ends.
// It returns once the subscription is confirmed.
func (n *RedisNotifier) Start(ctx context.Context) error {
	sub := n.rdb.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", n.channel, err)
	}

	n.mu.Lock()
	n.pubsub = sub
	n.mu.Unlock()

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n.local.Notify(ctx, msg.Payload)
			}
		}
	}()
	return nil
}

// Notify wakes local listeners and publishes collPath for other processes.
func (n *RedisNotifier) Notify(ctx context.Context, collPath string) error {
	n.local.Notify(ctx, collPath)
	if err := n.rdb.Publish(ctx, n.channel, collPath).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

func (n *RedisNotifier) Listen(collPath string) (<-chan struct{}, func()) {
	return n.local.Listen(collPath)
}

// Close stops the subscription and closes the client.
func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	if n.pubsub != nil {
		n.pubsub.Close()
		n.pubsub = nil
	}
	n.mu.Unlock()
	return n.rdb.Close()
}
