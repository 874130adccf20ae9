package game

import (
	"time"

	"github.com/google/uuid"

	"werewolf-service/domain"
)

// PlayerView is one player as seen by a specific requester: the role is
// exposed only to its owner or once revealed.
type PlayerView struct {
	ID         uuid.UUID          `json:"id"`
	Username   string             `json:"username"`
	Position   int                `json:"position"`
	State      domain.PlayerState `json:"state"`
	IsRevealed bool               `json:"is_revealed"`
	Role       domain.GameRole    `json:"role,omitempty"`
}

// Snapshot is the full game:state payload. Clients re-request it after any
// reconnect instead of replaying missed events.
type Snapshot struct {
	ID          uuid.UUID        `json:"id"`
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	State       domain.RoomState `json:"state"`
	Phase       domain.GamePhase `json:"phase"`
	DayNumber   int              `json:"day_number"`
	PhaseEndsAt *time.Time       `json:"phase_ends_at,omitempty"`
	Players     []PlayerView     `json:"players"`
	MyRole      domain.GameRole  `json:"my_role,omitempty"`
	AliveCount  int              `json:"alive_count"`
	DeadPlayers []PlayerView     `json:"dead_players"`
	MinPlayers  int              `json:"min_players"`
	MaxPlayers  int              `json:"max_players"`
	CanStart    bool             `json:"can_start"`
	IsHost      bool             `json:"is_host"`
}

// Snapshot renders the room for one requesting user.
func (r *Room) Snapshot(userID uuid.UUID) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	me := r.playerByUserID(userID)

	snap := &Snapshot{
		ID:          r.room.ID,
		Code:        r.room.Code,
		Name:        r.room.Name,
		State:       r.room.State,
		Phase:       r.room.Phase,
		DayNumber:   r.room.DayNumber,
		PhaseEndsAt: r.room.PhaseEndsAt,
		MinPlayers:  r.room.MinPlayers,
		MaxPlayers:  r.room.MaxPlayers,
		CanStart:    r.room.State == domain.RoomWaiting && len(r.players) >= r.room.MinPlayers,
		IsHost:      r.room.HostUserID == userID,
	}
	if me != nil {
		snap.MyRole = me.Role
	}

	for _, p := range r.playersByPosition() {
		view := PlayerView{
			ID:         p.ID,
			Username:   p.Username,
			Position:   p.Position,
			State:      p.State,
			IsRevealed: p.IsRevealed,
		}
		if p.IsRevealed || (me != nil && p.ID == me.ID) {
			view.Role = p.Role
		}
		snap.Players = append(snap.Players, view)
		switch p.State {
		case domain.PlayerAlive:
			snap.AliveCount++
		case domain.PlayerDead:
			snap.DeadPlayers = append(snap.DeadPlayers, view)
		}
	}
	return snap
}
