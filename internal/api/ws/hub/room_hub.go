package hub

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"werewolf-service/internal/game"
)

// roomSubscribers bridges the event bus to the sockets: one subscription per
// room with at least one connected client, covering the room topic and every
// player topic under it.
type roomSubscribers struct {
	bus   Bus
	hub   *Hub
	mutex sync.Mutex
	stops map[uuid.UUID][]func() error
}

func newRoomSubscribers(bus Bus, hub *Hub) *roomSubscribers {
	return &roomSubscribers{
		bus:   bus,
		hub:   hub,
		stops: make(map[uuid.UUID][]func() error),
	}
}

func (rs *roomSubscribers) start(roomID uuid.UUID) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if _, ok := rs.stops[roomID]; ok {
		return
	}
	ctx := context.Background()

	stopRoom, err := rs.bus.Subscribe(ctx, game.RoomTopic(roomID), func(topic string, payload []byte) {
		rs.hub.broadcastRaw(roomID, payload)
	})
	if err != nil {
		zap.L().Error("failed to subscribe to room topic",
			zap.String("room_id", roomID.String()), zap.Error(err))
		return
	}

	playerPattern := "player:" + roomID.String() + ":*"
	stopPlayers, err := rs.bus.Subscribe(ctx, playerPattern, func(topic string, payload []byte) {
		playerID, ok := playerFromTopic(topic)
		if !ok {
			return
		}
		rs.hub.deliverToPlayer(roomID, playerID, payload)
	})
	if err != nil {
		zap.L().Error("failed to subscribe to player topics",
			zap.String("room_id", roomID.String()), zap.Error(err))
		stopRoom()
		return
	}

	rs.stops[roomID] = []func() error{stopRoom, stopPlayers}
	zap.L().Debug("room subscription started", zap.String("room_id", roomID.String()))
}

func (rs *roomSubscribers) stop(roomID uuid.UUID) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	for _, stop := range rs.stops[roomID] {
		if err := stop(); err != nil {
			zap.L().Warn("failed to stop subscription", zap.Error(err))
		}
	}
	delete(rs.stops, roomID)
}

// playerFromTopic extracts the player id from player:{roomID}:{playerID}.
func playerFromTopic(topic string) (uuid.UUID, bool) {
	parts := strings.Split(topic, ":")
	if len(parts) != 3 {
		return uuid.Nil, false
	}
	playerID, err := uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, false
	}
	return playerID, true
}
