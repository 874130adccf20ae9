package httpUsecase

import (
	"github.com/google/uuid"

	"werewolf-service/internal/game"
)

// RoomListing is the lobby card for one public waiting room.
type RoomListing struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Players    int       `json:"players"`
	MinPlayers int       `json:"min_players"`
	MaxPlayers int       `json:"max_players"`
}

type GetRoomsUseCase struct {
	registry *game.Registry
}

func NewGetRoomsUseCase(registry *game.Registry) *GetRoomsUseCase {
	return &GetRoomsUseCase{registry: registry}
}

func (u *GetRoomsUseCase) Execute() []RoomListing {
	rooms := u.registry.ListWaiting()
	out := make([]RoomListing, 0, len(rooms))
	for _, room := range rooms {
		snapshot := room.Snapshot(uuid.Nil)
		out = append(out, RoomListing{
			ID:         snapshot.ID,
			Code:       snapshot.Code,
			Name:       snapshot.Name,
			Players:    len(snapshot.Players),
			MinPlayers: snapshot.MinPlayers,
			MaxPlayers: snapshot.MaxPlayers,
		})
	}
	return out
}
