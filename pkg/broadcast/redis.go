package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/testportal/core/logger"
)

// RedisBroadcaster publishes messages as JSON on a Redis channel and delivers
// everything received on that channel to local subscribers. A message
// published by this instance reaches its own subscribers through Redis as
// well, so every instance observes the same order.
type RedisBroadcaster[T any] struct {
	client  redis.UniversalClient
	channel string
	local   *MemoryBroadcaster[T]
	pubsub  *redis.PubSub
	logger  *slog.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// RedisOption configures a RedisBroadcaster.
type RedisOption func(*redisOptions)

type redisOptions struct {
	buffer int
	logger *slog.Logger
}

// WithBuffer sets the per-subscriber buffer size.
func WithBuffer(n int) RedisOption {
	return func(o *redisOptions) { o.buffer = n }
}

// WithLogger sets the logger used for undecodable messages.
func WithLogger(l *slog.Logger) RedisOption {
	return func(o *redisOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewRedisBroadcaster subscribes to channel and starts relaying messages.
func NewRedisBroadcaster[T any](ctx context.Context, client redis.UniversalClient, channel string, opts ...RedisOption) (*RedisBroadcaster[T], error) {
	o := redisOptions{
		buffer: 64,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	pubsub := client.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so that nothing published
	// after the constructor returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	b := &RedisBroadcaster[T]{
		client:  client,
		channel: channel,
		local:   NewMemoryBroadcaster[T](o.buffer),
		pubsub:  pubsub,
		logger:  o.logger,
		cancel:  cancel,
	}

	b.wg.Add(1)
	go b.relay(runCtx)

	return b, nil
}

func (b *RedisBroadcaster[T]) relay(ctx context.Context) {
	defer b.wg.Done()

	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var msg Message[T]
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.logger.WarnContext(ctx, "dropping undecodable broadcast message",
					logger.Component("broadcast"),
					slog.String("channel", b.channel),
					logger.Error(err),
				)
				continue
			}
			if err := b.local.Broadcast(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (b *RedisBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	return b.local.Subscribe(ctx)
}

func (b *RedisBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Close stops relaying and ends every local subscription. The Redis client
// stays open.
func (b *RedisBroadcaster[T]) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.cancel()
		err = b.pubsub.Close()
		b.wg.Wait()
		err = errors.Join(err, b.local.Close())
	})
	return err
}
