package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/pkg/logger"
)

// Backplane carries events between every instance serving dashboards.
// Subscribe must be called once before Publish.
type Backplane interface {
	Name() string
	Publish(ctx context.Context, evt model.Event) error
	// Subscribe delivers every event published by any instance, including
	// this one, to fn until ctx is done.
	Subscribe(ctx context.Context, fn func(model.Event)) error
	Ping(ctx context.Context) error
	Close() error
}

// LocalBackplane delivers events within the process.
type LocalBackplane struct {
	mu sync.RWMutex
	fn func(model.Event)
}

// NewLocalBackplane creates an in-process backplane.
func NewLocalBackplane() *LocalBackplane {
	return &LocalBackplane{}
}

func (b *LocalBackplane) Name() string { return "local" }

// Publish calls the subscriber directly.
func (b *LocalBackplane) Publish(ctx context.Context, evt model.Event) error {
	b.mu.RLock()
	fn := b.fn
	b.mu.RUnlock()
	if fn != nil {
		fn(evt)
	}
	return nil
}

// Subscribe registers fn.
func (b *LocalBackplane) Subscribe(ctx context.Context, fn func(model.Event)) error {
	b.mu.Lock()
	b.fn = fn
	b.mu.Unlock()
	return nil
}

func (b *LocalBackplane) Ping(ctx context.Context) error { return nil }

func (b *LocalBackplane) Close() error { return nil }

// RedisChannel is the pub/sub channel dashboard events are published on.
const RedisChannel = "dashboard:events"

// envelope tags an event with the instance that published it.
type envelope struct {
	Origin string      `json:"origin"`
	Event  model.Event `json:"event"`
}

// RedisBackplane shares events between instances over Redis pub/sub.
type RedisBackplane struct {
	client   *redis.Client
	channel  string
	serverID string
	logger   *logger.Logger
}

// NewRedisBackplane connects to the Redis server at url.
func NewRedisBackplane(ctx context.Context, url string, log *logger.Logger) (*RedisBackplane, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisBackplane{
		client:   client,
		channel:  RedisChannel,
		serverID: uuid.NewString(),
		logger:   log.Named("redis_backplane"),
	}, nil
}

func (b *RedisBackplane) Name() string { return "redis" }

// Publish sends evt to every subscribed instance.
func (b *RedisBackplane) Publish(ctx context.Context, evt model.Event) error {
	data, err := json.Marshal(envelope{Origin: b.serverID, Event: evt})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Subscribe starts a receive loop in the background.
func (b *RedisBackplane) Subscribe(ctx context.Context, fn func(model.Event)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.logger.Warn("invalid backplane payload", zap.Error(err))
					continue
				}
				fn(env.Event)
			}
		}
	}()

	b.logger.Info("subscribed to redis backplane",
		zap.String("channel", b.channel),
		zap.String("server_id", b.serverID),
	)
	return nil
}

// Ping checks the Redis connection.
func (b *RedisBackplane) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (b *RedisBackplane) Close() error {
	return b.client.Close()
}
