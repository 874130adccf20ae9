package httpUsecase

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"werewolf-service/domain"
	"werewolf-service/internal/game"
)

type CreateRoomInput struct {
	Name          string
	HostUserID    uuid.UUID
	HostUsername  string
	MinPlayers    int
	MaxPlayers    int
	IsPrivate     bool
	Password      string
	NightDuration int
	DayDuration   int
	VoteDuration  int
}

type CreateRoomUseCase struct {
	registry *game.Registry
}

func NewCreateRoomUseCase(registry *game.Registry) *CreateRoomUseCase {
	return &CreateRoomUseCase{registry: registry}
}

func (u *CreateRoomUseCase) Execute(ctx context.Context, input CreateRoomInput) (*game.Room, error) {
	var passwordHash string
	if input.IsPrivate {
		if input.Password == "" {
			return nil, fmt.Errorf("%w: private rooms need a password", domain.ErrValidation)
		}
		hash, err := argon2id.CreateHash(input.Password, argon2id.DefaultParams)
		if err != nil {
			return nil, fmt.Errorf("%w: hash password: %v", domain.ErrInternal, err)
		}
		passwordHash = hash
	}

	return u.registry.CreateRoom(ctx, game.CreateRoomParams{
		Name:          input.Name,
		HostUserID:    input.HostUserID,
		HostUsername:  input.HostUsername,
		MinPlayers:    input.MinPlayers,
		MaxPlayers:    input.MaxPlayers,
		IsPrivate:     input.IsPrivate,
		PasswordHash:  passwordHash,
		NightDuration: input.NightDuration,
		DayDuration:   input.DayDuration,
		VoteDuration:  input.VoteDuration,
	})
}
