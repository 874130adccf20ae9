package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionType tags a submitted game action. Resolution order during the night
// is fixed by the resolver, not by this enum.
type ActionType string

const (
	ActionGuardProtect     ActionType = "GUARD_PROTECT"
	ActionCupidLink        ActionType = "CUPID_LINK"
	ActionHeirChoose       ActionType = "HEIR_CHOOSE"
	ActionWerewolfVote     ActionType = "WEREWOLF_VOTE"
	ActionWhiteWolfDevour  ActionType = "WHITE_WOLF_DEVOUR"
	ActionBlackWolfConvert ActionType = "BLACK_WOLF_CONVERT"
	ActionWitchHeal        ActionType = "WITCH_HEAL"
	ActionWitchPoison      ActionType = "WITCH_POISON"
	ActionSeerInvestigate  ActionType = "SEER_INVESTIGATE"
	ActionDayVote          ActionType = "DAY_VOTE"
	ActionHunterShoot      ActionType = "HUNTER_SHOOT"
	ActionDictatorCoup     ActionType = "DICTATOR_COUP"
)

// GameAction is one submitted action. (room, performer, type, day, phase) is
// the upsert key: re-submitting replaces the previous choice.
type GameAction struct {
	ID          uuid.UUID         `json:"id"`
	RoomID      uuid.UUID         `json:"room_id"`
	PerformerID uuid.UUID         `json:"performer_id"`
	ActionType  ActionType        `json:"action_type"`
	TargetID    *uuid.UUID        `json:"target_id,omitempty"`
	DayNumber   int               `json:"day_number"`
	Phase       GamePhase         `json:"phase"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Result      string            `json:"result,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// DeathCause records why a player died.
type DeathCause string

const (
	CauseWerewolfAttack  DeathCause = "werewolf_attack"
	CauseWhiteWolfDevour DeathCause = "white_wolf_devour"
	CauseWitchPoison     DeathCause = "witch_poison"
	CauseVotedOut        DeathCause = "voted_out"
	CauseHunterRevenge   DeathCause = "hunter_revenge"
	CauseGrief           DeathCause = "grief"
	CauseFailedCoup      DeathCause = "failed_coup"
	CauseCaughtSpying    DeathCause = "caught_spying"
)
