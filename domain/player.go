package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlayerState is the liveness of a player inside a room.
type PlayerState string

const (
	PlayerAlive        PlayerState = "ALIVE"
	PlayerDead         PlayerState = "DEAD"
	PlayerDisconnected PlayerState = "DISCONNECTED"
)

type Player struct {
	ID         uuid.UUID   `json:"id"`
	RoomID     uuid.UUID   `json:"room_id"`
	UserID     uuid.UUID   `json:"user_id"`
	Username   string      `json:"username"`
	Position   int         `json:"position"`
	Role       GameRole    `json:"role,omitempty"`
	State      PlayerState `json:"state"`
	DiedAt     *time.Time  `json:"died_at,omitempty"`
	LinkedTo   *uuid.UUID  `json:"linked_to,omitempty"`
	IsRevealed bool        `json:"is_revealed"`
	JoinedAt   time.Time   `json:"joined_at"`
}

// Acting reports whether the player may submit actions or votes.
func (p *Player) Acting() bool {
	return p.State == PlayerAlive
}
