package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"werewolf-service/domain"
)

// Message is the envelope every bus payload is wrapped in.
type Message struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}

// RoomTopic is the bus topic all members of a room subscribe to.
func RoomTopic(roomID uuid.UUID) string {
	return fmt.Sprintf("room:%s", roomID)
}

// PlayerTopic is the bus topic delivered only to one player's sockets.
func PlayerTopic(roomID, playerID uuid.UUID) string {
	return fmt.Sprintf("player:%s:%s", roomID, playerID)
}

// publishRoom fans an event out to everyone in the room. Publish failures are
// logged and swallowed: clients recover via snapshots.
func (r *Room) publishRoom(ctx context.Context, eventType string, content interface{}) {
	payload, err := json.Marshal(&Message{Type: eventType, Content: content})
	if err != nil {
		zap.L().Error("failed to marshal room event", zap.String("event", eventType), zap.Error(err))
		return
	}
	if err := r.bus.Publish(ctx, RoomTopic(r.room.ID), payload); err != nil {
		zap.L().Warn("room event publish failed",
			zap.String("room_id", r.room.ID.String()),
			zap.String("event", eventType),
			zap.Error(err))
	}
}

// publishPlayer delivers a private event to a single player.
func (r *Room) publishPlayer(ctx context.Context, playerID uuid.UUID, eventType string, content interface{}) {
	payload, err := json.Marshal(&Message{Type: eventType, Content: content})
	if err != nil {
		zap.L().Error("failed to marshal player event", zap.String("event", eventType), zap.Error(err))
		return
	}
	if err := r.bus.Publish(ctx, PlayerTopic(r.room.ID, playerID), payload); err != nil {
		zap.L().Warn("player event publish failed",
			zap.String("room_id", r.room.ID.String()),
			zap.String("player_id", playerID.String()),
			zap.String("event", eventType),
			zap.Error(err))
	}
}

// appendEvent writes to the append-only audit log.
func (r *Room) appendEvent(ctx context.Context, eventType string, data map[string]any) {
	event := &domain.GameEvent{
		ID:        uuid.New(),
		RoomID:    r.room.ID,
		EventType: eventType,
		DayNumber: r.room.DayNumber,
		Data:      data,
		CreatedAt: time.Now(),
	}
	if err := r.store.CreateEvent(ctx, event); err != nil {
		zap.L().Error("failed to append game event",
			zap.String("room_id", r.room.ID.String()),
			zap.String("event", eventType),
			zap.Error(err))
	}
}
