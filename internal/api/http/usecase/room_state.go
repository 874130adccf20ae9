package httpUsecase

import (
	"github.com/google/uuid"

	"werewolf-service/internal/game"
)

type RoomStateUseCase struct {
	registry *game.Registry
}

func NewRoomStateUseCase(registry *game.Registry) *RoomStateUseCase {
	return &RoomStateUseCase{registry: registry}
}

func (u *RoomStateUseCase) Execute(roomID, userID uuid.UUID) (*game.Snapshot, error) {
	room, err := u.registry.Get(roomID)
	if err != nil {
		return nil, err
	}
	return room.Snapshot(userID), nil
}
