package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomState is the coarse lifecycle state of a room.
type RoomState string

const (
	RoomWaiting   RoomState = "WAITING"
	RoomStarting  RoomState = "STARTING"
	RoomNight     RoomState = "NIGHT"
	RoomDay       RoomState = "DAY"
	RoomVoting    RoomState = "VOTING"
	RoomEnded     RoomState = "ENDED"
	RoomCancelled RoomState = "CANCELLED"
)

// GamePhase is the fine-grained phase of the game cycle.
type GamePhase string

const (
	PhaseLobby          GamePhase = "LOBBY"
	PhaseRoleAssignment GamePhase = "ROLE_ASSIGNMENT"
	PhaseNight          GamePhase = "NIGHT_PHASE"
	PhaseDayDiscussion  GamePhase = "DAY_DISCUSSION"
	PhaseDayVoting      GamePhase = "DAY_VOTING"
	PhaseGameEnd        GamePhase = "GAME_END"
)

// StateFor returns the room state coupled to a phase.
func StateFor(phase GamePhase) RoomState {
	switch phase {
	case PhaseLobby:
		return RoomWaiting
	case PhaseRoleAssignment:
		return RoomStarting
	case PhaseNight:
		return RoomNight
	case PhaseDayDiscussion:
		return RoomDay
	case PhaseDayVoting:
		return RoomVoting
	default:
		return RoomEnded
	}
}

// Terminal reports whether the room can never change again.
func (s RoomState) Terminal() bool {
	return s == RoomEnded || s == RoomCancelled
}

type Room struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	HostUserID     uuid.UUID  `json:"host_user_id"`
	State          RoomState  `json:"state"`
	Phase          GamePhase  `json:"phase"`
	DayNumber      int        `json:"day_number"`
	PhaseStartedAt time.Time  `json:"phase_started_at"`
	PhaseEndsAt    *time.Time `json:"phase_ends_at,omitempty"`
	NightDuration  int        `json:"night_duration"`
	DayDuration    int        `json:"day_duration"`
	VoteDuration   int        `json:"vote_duration"`
	MinPlayers     int        `json:"min_players"`
	MaxPlayers     int        `json:"max_players"`
	IsPrivate      bool       `json:"is_private"`
	PasswordHash   string     `json:"-"`
	WinningTeam    *Team      `json:"winning_team,omitempty"`
	EndReason      string     `json:"end_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PhaseDuration returns the configured length of a timed phase, or zero for
// untimed phases.
func (r *Room) PhaseDuration(phase GamePhase) time.Duration {
	switch phase {
	case PhaseRoleAssignment:
		return 5 * time.Second
	case PhaseNight:
		return time.Duration(r.NightDuration) * time.Second
	case PhaseDayDiscussion:
		return time.Duration(r.DayDuration) * time.Second
	case PhaseDayVoting:
		return time.Duration(r.VoteDuration) * time.Second
	}
	return 0
}
