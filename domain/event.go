package domain

import (
	"time"

	"github.com/google/uuid"
)

// GameEvent is an append-only audit/announcement record.
type GameEvent struct {
	ID        uuid.UUID      `json:"id"`
	RoomID    uuid.UUID      `json:"room_id"`
	EventType string         `json:"event_type"`
	DayNumber int            `json:"day_number"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Server → client event names (wire protocol).
const (
	EvtGameState             = "game:state"
	EvtPhaseChange           = "phase_change"
	EvtPlayerJoined          = "player:joined"
	EvtPlayerLeft            = "player:left"
	EvtPlayerDied            = "player_died"
	EvtPlayerSaved           = "player_saved"
	EvtNightAbility          = "night_ability_available"
	EvtFirstNightAction      = "first_night_action"
	EvtInvestigationResult   = "investigation_result"
	EvtTalkativeSeerResult   = "talkative_seer_result"
	EvtVotingStarted         = "voting_started"
	EvtVoteUpdate            = "vote:update"
	EvtVoteResults           = "vote_results"
	EvtVoteProtection        = "vote_protection"
	EvtBecameLover           = "became_lover"
	EvtRoleAssigned          = "role_assigned"
	EvtRoleChanged           = "role_changed"
	EvtRoleInherited         = "role_inherited"
	EvtRoleStolen            = "role_stolen"
	EvtProtectionLost        = "protection_lost"
	EvtHunterTriggered       = "hunter:triggered"
	EvtHunterRevengeComplete = "hunter_revenge_completed"
	EvtDictatorSuccess       = "dictator_success"
	EvtDictatorFailed        = "dictator_failed"
	EvtMercenaryVictory      = "mercenary_victory"
	EvtMercenaryReminder     = "mercenary_reminder"
	EvtNightDeath            = "night_death"
	EvtGameEnded             = "game_ended"
	EvtHostChanged           = "host_changed"
	EvtError                 = "error"
)
