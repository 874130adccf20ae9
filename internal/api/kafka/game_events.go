package kafka

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"werewolf-service/internal/game"
	"werewolf-service/internal/messaging"
)

// Publisher is the slice of the kafka client the relay needs.
type Publisher interface {
	Publish(ctx context.Context, key string, msgType string, payload any) error
}

// GameEventRelay listens on the room topics and forwards finished games to
// the analytics topic. It is a bus subscriber like any socket hub, so the
// engine stays unaware of kafka.
type GameEventRelay struct {
	publisher Publisher
}

func NewGameEventRelay(publisher Publisher) *GameEventRelay {
	return &GameEventRelay{publisher: publisher}
}

// Start subscribes to all room topics; returns the unsubscribe function.
func (r *GameEventRelay) Start(ctx context.Context, bus game.EventBus) (func() error, error) {
	return bus.Subscribe(ctx, "room:*", func(topic string, payload []byte) {
		var msg game.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return
		}
		if msg.Type != "game_ended" {
			return
		}
		if err := r.publisher.Publish(ctx, topic, messaging.TypeGameEnded, msg.Content); err != nil {
			zap.L().Warn("failed to relay game summary to kafka", zap.Error(err))
		}
	})
}
