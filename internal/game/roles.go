package game

import (
	"math/rand"
	"strconv"

	"github.com/google/uuid"

	"werewolf-service/domain"
)

// roleTable lists the role pool per player count. Counts without an entry
// fall back to buildFallbackPool.
var roleTable = map[int][]domain.GameRole{
	5: {domain.RoleWerewolf, domain.RoleSeer,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager},
	6: {domain.RoleWerewolf, domain.RoleSeer, domain.RoleLittleGirl,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager},
	7: {domain.RoleWerewolf, domain.RoleSeer, domain.RoleWitch, domain.RoleHunter,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager},
	8: {domain.RoleWerewolf, domain.RoleWerewolf, domain.RoleSeer, domain.RoleWitch,
		domain.RoleHunter, domain.RoleCupid,
		domain.RoleVillager, domain.RoleVillager},
	9: {domain.RoleWerewolf, domain.RoleWerewolf, domain.RoleSeer, domain.RoleWitch,
		domain.RoleHunter, domain.RoleGuard, domain.RoleDictator,
		domain.RoleVillager, domain.RoleVillager},
	10: {domain.RoleWerewolf, domain.RoleWerewolf, domain.RoleBlackWolf,
		domain.RoleSeer, domain.RoleWitch, domain.RoleHunter, domain.RoleGuard,
		domain.RoleLittleGirl,
		domain.RoleVillager, domain.RoleVillager},
	11: {domain.RoleWerewolf, domain.RoleWerewolf, domain.RoleBlackWolf,
		domain.RoleSeer, domain.RoleWitch, domain.RoleHunter, domain.RoleGuard,
		domain.RoleCupid, domain.RoleMercenary,
		domain.RoleVillager, domain.RoleVillager},
	12: {domain.RoleWerewolf, domain.RoleWerewolf, domain.RoleBlackWolf,
		domain.RoleWhiteWolf, domain.RoleTalkativeSeer, domain.RoleWitch,
		domain.RoleHunter, domain.RoleGuard, domain.RoleHeir,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager},
	13: {domain.RoleWerewolf, domain.RoleWerewolf, domain.RoleWerewolf,
		domain.RoleWhiteWolf, domain.RoleTalkativeSeer, domain.RoleWitch,
		domain.RoleHunter, domain.RoleGuard, domain.RoleCupid, domain.RoleHeir,
		domain.RoleRedRidingHood,
		domain.RoleVillager, domain.RoleVillager},
	14: {domain.RoleWerewolf, domain.RoleWerewolf, domain.RoleWerewolf,
		domain.RoleBlackWolf, domain.RoleWolfRidingHood, domain.RoleTalkativeSeer,
		domain.RoleWitch, domain.RoleHunter, domain.RoleGuard, domain.RoleCupid,
		domain.RolePlunderer, domain.RoleRedRidingHood,
		domain.RoleVillager, domain.RoleVillager},
	15: {domain.RoleWerewolf, domain.RoleWerewolf, domain.RoleWerewolf,
		domain.RoleBlackWolf, domain.RoleWhiteWolf, domain.RoleWolfRidingHood,
		domain.RoleTalkativeSeer, domain.RoleWitch, domain.RoleHunter,
		domain.RoleGuard, domain.RoleCupid, domain.RoleHeir, domain.RolePlunderer,
		domain.RoleBlueRidingHood,
		domain.RoleVillager},
}

// buildFallbackPool derives a pool for counts missing from the table:
// werewolves = max(1, N/4), seer from 5, witch from 7, hunter from 9,
// guard from 11, cupid from 13, villagers fill the rest.
func buildFallbackPool(n int) []domain.GameRole {
	pool := make([]domain.GameRole, 0, n)
	wolves := n / 4
	if wolves < 1 {
		wolves = 1
	}
	for i := 0; i < wolves; i++ {
		pool = append(pool, domain.RoleWerewolf)
	}
	if n >= 5 {
		pool = append(pool, domain.RoleSeer)
	}
	if n >= 7 {
		pool = append(pool, domain.RoleWitch)
	}
	if n >= 9 {
		pool = append(pool, domain.RoleHunter)
	}
	if n >= 11 {
		pool = append(pool, domain.RoleGuard)
	}
	if n >= 13 {
		pool = append(pool, domain.RoleCupid)
	}
	for len(pool) < n {
		pool = append(pool, domain.RoleVillager)
	}
	return pool[:n]
}

// rolePool returns the pool for n players.
func rolePool(n int) []domain.GameRole {
	if pool, ok := roleTable[n]; ok {
		out := make([]domain.GameRole, len(pool))
		copy(out, pool)
		return out
	}
	return buildFallbackPool(n)
}

// shuffleRoles is a Fisher-Yates shuffle over the pool.
func shuffleRoles(pool []domain.GameRole, rng *rand.Rand) {
	for i := len(pool) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
}

// abilitiesFor builds the fresh ability set a role starts with. Negative
// UsesLeft means not consumable.
func abilitiesFor(playerID uuid.UUID, role domain.GameRole) []*domain.Ability {
	switch role {
	case domain.RoleGuard:
		return []*domain.Ability{{
			PlayerID: playerID, AbilityType: domain.AbilityGuardProtect,
			UsesLeft: -1, MaxUses: -1,
		}}
	case domain.RoleSeer, domain.RoleTalkativeSeer:
		return []*domain.Ability{{
			PlayerID: playerID, AbilityType: domain.AbilitySeerInvestigate,
			UsesLeft: -1, MaxUses: -1,
		}}
	case domain.RoleWitch:
		return []*domain.Ability{
			{PlayerID: playerID, AbilityType: domain.AbilityWitchHeal, UsesLeft: 1, MaxUses: 1},
			{PlayerID: playerID, AbilityType: domain.AbilityWitchPoison, UsesLeft: 1, MaxUses: 1},
		}
	case domain.RoleWhiteWolf:
		return []*domain.Ability{{
			PlayerID: playerID, AbilityType: domain.AbilityWhiteWolfDevour,
			UsesLeft: -1, MaxUses: -1, CooldownDays: 2,
		}}
	case domain.RoleBlackWolf:
		return []*domain.Ability{{
			PlayerID: playerID, AbilityType: domain.AbilityBlackWolfConvert,
			UsesLeft: 1, MaxUses: 1,
		}}
	case domain.RoleCupid:
		return []*domain.Ability{{
			PlayerID: playerID, AbilityType: domain.AbilityCupidLink,
			UsesLeft: 1, MaxUses: 1,
		}}
	case domain.RoleHeir:
		return []*domain.Ability{{
			PlayerID: playerID, AbilityType: domain.AbilityHeirTarget,
			UsesLeft: 1, MaxUses: 1,
		}}
	case domain.RoleHunter:
		return []*domain.Ability{{
			PlayerID: playerID, AbilityType: domain.AbilityHunterShoot,
			UsesLeft: 1, MaxUses: 1,
		}}
	case domain.RoleDictator:
		return []*domain.Ability{{
			PlayerID: playerID, AbilityType: domain.AbilityDictatorCoup,
			UsesLeft: 1, MaxUses: 1,
		}}
	}
	return nil
}

// assignRoles shuffles the pool and deals by position, then initializes the
// per-role abilities. If a Mercenary is dealt, a random non-Mercenary player
// is stored as its target; with no eligible player the ability carries no
// target and the role plays out as a plain villager.
func (r *Room) assignRoles(rng *rand.Rand) map[uuid.UUID][]*domain.Ability {
	players := r.playersByPosition()
	pool := rolePool(len(players))
	shuffleRoles(pool, rng)

	abilities := make(map[uuid.UUID][]*domain.Ability, len(players))
	var mercenary *domain.Player
	for i, p := range players {
		p.Role = pool[i]
		abilities[p.ID] = abilitiesFor(p.ID, p.Role)
		if p.Role == domain.RoleMercenary {
			mercenary = p
		}
	}

	if mercenary != nil {
		eligible := make([]*domain.Player, 0, len(players))
		for _, p := range players {
			if p.Role != domain.RoleMercenary {
				eligible = append(eligible, p)
			}
		}
		ability := &domain.Ability{
			PlayerID:    mercenary.ID,
			AbilityType: domain.AbilityMercenaryTarget,
			UsesLeft:    -1, MaxUses: -1,
			Metadata: map[string]string{},
		}
		if len(eligible) > 0 {
			target := eligible[rng.Intn(len(eligible))]
			ability.Metadata["target_id"] = target.ID.String()
			ability.Metadata["target_position"] = strconv.Itoa(target.Position)
		}
		abilities[mercenary.ID] = append(abilities[mercenary.ID], ability)
	}

	return abilities
}
