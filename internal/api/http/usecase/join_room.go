package httpUsecase

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"werewolf-service/domain"
	"werewolf-service/internal/game"
)

type JoinRoomUseCase struct {
	registry *game.Registry
}

func NewJoinRoomUseCase(registry *game.Registry) *JoinRoomUseCase {
	return &JoinRoomUseCase{registry: registry}
}

func (u *JoinRoomUseCase) Execute(ctx context.Context, roomID, userID uuid.UUID, username, password string) (*domain.Player, error) {
	room, err := u.registry.Get(roomID)
	if err != nil {
		return nil, err
	}
	return u.join(ctx, room, userID, username, password)
}

// ExecuteByCode joins through a 6-char room code instead of the id.
func (u *JoinRoomUseCase) ExecuteByCode(ctx context.Context, code string, userID uuid.UUID, username, password string) (*domain.Player, error) {
	room, err := u.registry.GetByCode(code)
	if err != nil {
		return nil, err
	}
	return u.join(ctx, room, userID, username, password)
}

func (u *JoinRoomUseCase) join(ctx context.Context, room *game.Room, userID uuid.UUID, username, password string) (*domain.Player, error) {
	if isPrivate, hash := room.AccessInfo(); isPrivate {
		match, err := argon2id.ComparePasswordAndHash(password, hash)
		if err != nil || !match {
			return nil, fmt.Errorf("%w: wrong room password", domain.ErrAuth)
		}
	}
	return room.Join(ctx, userID, username)
}
