package domain

import (
	"github.com/google/uuid"
)

// AbilityType keys a per-player consumable.
type AbilityType string

const (
	AbilityGuardProtect     AbilityType = "guard_protect"
	AbilitySeerInvestigate  AbilityType = "seer_investigate"
	AbilityWitchHeal        AbilityType = "witch_heal"
	AbilityWitchPoison      AbilityType = "witch_poison"
	AbilityWhiteWolfDevour  AbilityType = "white_wolf_devour"
	AbilityBlackWolfConvert AbilityType = "black_wolf_convert"
	AbilityCupidLink        AbilityType = "cupid_link"
	AbilityHeirTarget       AbilityType = "heir_target"
	AbilityMercenaryTarget  AbilityType = "mercenary_target"
	AbilityMayorVote        AbilityType = "mayor_vote"
	AbilityHunterShoot      AbilityType = "hunter_shoot"
	AbilityDictatorCoup     AbilityType = "dictator_coup"
)

// Ability is a consumable keyed by (player, type). UsesLeft < 0 means
// unlimited.
type Ability struct {
	PlayerID     uuid.UUID         `json:"player_id"`
	AbilityType  AbilityType       `json:"ability_type"`
	UsesLeft     int               `json:"uses_left"`
	MaxUses      int               `json:"max_uses"`
	CooldownDays int               `json:"cooldown_days"`
	LastUsedDay  *int              `json:"last_used_day,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Available reports whether the ability can fire on the given day.
func (a *Ability) Available(day int) bool {
	if a.UsesLeft == 0 {
		return false
	}
	if a.CooldownDays > 0 && a.LastUsedDay != nil && day-*a.LastUsedDay < a.CooldownDays {
		return false
	}
	return true
}
