// Package redis backs the engine's EventBus and TimerStore facades with a
// shared go-redis client.
package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Manager wraps the client and implements the EventBus facade on redis
// pub/sub channels.
type Manager struct {
	client *redis.Client
}

func NewManager(addr, password string, db int) (*Manager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	zap.L().Info("Connected to Redis successfully", zap.String("addr", addr))

	return &Manager{client: client}, nil
}

func (m *Manager) Client() *redis.Client {
	return m.client
}

func (m *Manager) Close() error {
	return m.client.Close()
}

func (m *Manager) Publish(ctx context.Context, topic string, payload []byte) error {
	return m.client.Publish(ctx, topic, payload).Err()
}

// Subscribe delivers every message on channels matching the pattern until the
// returned stop function is called. Patterns containing '*' use PSUBSCRIBE.
func (m *Manager) Subscribe(ctx context.Context, topicPattern string, handler func(topic string, payload []byte)) (func() error, error) {
	var pubsub *redis.PubSub
	if strings.ContainsRune(topicPattern, '*') {
		pubsub = m.client.PSubscribe(ctx, topicPattern)
	} else {
		pubsub = m.client.Subscribe(ctx, topicPattern)
	}

	// Force the subscription to be established before returning.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topicPattern, err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			handler(msg.Channel, []byte(msg.Payload))
		}
		zap.L().Debug("subscription closed", zap.String("pattern", topicPattern))
	}()

	return pubsub.Close, nil
}
