package httpUsecase

import (
	"context"

	"github.com/google/uuid"

	"werewolf-service/internal/game"
)

type LeaveRoomUseCase struct {
	registry *game.Registry
}

func NewLeaveRoomUseCase(registry *game.Registry) *LeaveRoomUseCase {
	return &LeaveRoomUseCase{registry: registry}
}

func (u *LeaveRoomUseCase) Execute(ctx context.Context, roomID, userID uuid.UUID) error {
	room, err := u.registry.Get(roomID)
	if err != nil {
		return err
	}
	return room.Leave(ctx, userID)
}
