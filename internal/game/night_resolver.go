package game

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"werewolf-service/domain"
)

// pendingDeath is a death recorded during resolution but not yet committed.
type pendingDeath struct {
	Target uuid.UUID
	Cause  domain.DeathCause
}

// resolveNight runs the NIGHT_PHASE phase-end hook: the strictly ordered
// aggregation of the night's secret submissions. Runs inside the room
// transaction, so a crash before the phase update re-runs the whole thing
// against unchanged ability state. mu held.
func (r *Room) resolveNight(ctx context.Context) error {
	day := r.room.DayNumber
	phase := domain.PhaseNight
	actions, err := r.store.FindActions(ctx, ActionFilter{
		RoomID: r.room.ID, DayNumber: &day, Phase: &phase,
	})
	if err != nil {
		return err
	}
	sort.Slice(actions, func(i, j int) bool {
		return actions[i].CreatedAt.Before(actions[j].CreatedAt)
	})

	byType := func(t domain.ActionType) []*domain.GameAction {
		var out []*domain.GameAction
		for _, a := range actions {
			if a.ActionType == t {
				out = append(out, a)
			}
		}
		return out
	}

	protected := make(map[uuid.UUID]bool)
	var pendings []pendingDeath
	var wolfVictim *uuid.UUID

	// 1. Guard protection.
	for _, a := range byType(domain.ActionGuardProtect) {
		if a.TargetID == nil {
			continue
		}
		protected[*a.TargetID] = true
		if ability, err := r.store.FindAbility(ctx, a.PerformerID, domain.AbilityGuardProtect); err == nil {
			ability.LastUsedDay = &day
			if ability.Metadata == nil {
				ability.Metadata = map[string]string{}
			}
			ability.Metadata["last_target"] = a.TargetID.String()
			if err := r.store.UpsertAbility(ctx, ability); err != nil {
				return err
			}
		}
	}

	// 2. Cupid link (first night only).
	if day == 1 {
		for _, a := range byType(domain.ActionCupidLink) {
			first, second, err := r.parseLinkPair(a.Metadata)
			if err != nil {
				zap.L().Warn("dropping unresolvable cupid link", zap.Error(err))
				continue
			}
			first.LinkedTo = &second.ID
			second.LinkedTo = &first.ID
			if err := r.store.UpdatePlayer(ctx, first); err != nil {
				return err
			}
			if err := r.store.UpdatePlayer(ctx, second); err != nil {
				return err
			}
			if err := r.consumeAbility(ctx, a.PerformerID, domain.AbilityCupidLink, day); err != nil {
				return err
			}
			r.publishPlayer(ctx, first.ID, domain.EvtBecameLover, map[string]any{"partner_id": second.ID})
			r.publishPlayer(ctx, second.ID, domain.EvtBecameLover, map[string]any{"partner_id": first.ID})
		}

		// 3. Heir designation (first night only).
		for _, a := range byType(domain.ActionHeirChoose) {
			if a.TargetID == nil {
				continue
			}
			ability, err := r.store.FindAbility(ctx, a.PerformerID, domain.AbilityHeirTarget)
			if err != nil {
				continue
			}
			if ability.Metadata == nil {
				ability.Metadata = map[string]string{}
			}
			ability.Metadata["target_id"] = a.TargetID.String()
			if ability.UsesLeft > 0 {
				ability.UsesLeft--
			}
			ability.LastUsedDay = &day
			if err := r.store.UpsertAbility(ctx, ability); err != nil {
				return err
			}
		}
	}

	// 4. Werewolf pack vote: plurality, ties to the lowest position.
	wolfVotes := make(map[uuid.UUID]int)
	for _, a := range byType(domain.ActionWerewolfVote) {
		performer, ok := r.players[a.PerformerID]
		if !ok || performer.State != domain.PlayerAlive || a.TargetID == nil {
			continue
		}
		wolfVotes[*a.TargetID]++
	}
	if len(wolfVotes) > 0 {
		top := 0
		for _, n := range wolfVotes {
			if n > top {
				top = n
			}
		}
		for _, p := range r.playersByPosition() {
			if wolfVotes[p.ID] == top {
				id := p.ID
				wolfVictim = &id
				break
			}
		}
	}
	if wolfVictim != nil {
		pendings = append(pendings, pendingDeath{Target: *wolfVictim, Cause: domain.CauseWerewolfAttack})
	}

	// 5. White wolf devour, gated on its own cooldown.
	for _, a := range byType(domain.ActionWhiteWolfDevour) {
		if a.TargetID == nil {
			continue
		}
		ability, err := r.store.FindAbility(ctx, a.PerformerID, domain.AbilityWhiteWolfDevour)
		if err != nil || !ability.Available(day) {
			continue
		}
		pendings = append(pendings, pendingDeath{Target: *a.TargetID, Cause: domain.CauseWhiteWolfDevour})
		if err := r.consumeAbility(ctx, a.PerformerID, domain.AbilityWhiteWolfDevour, day); err != nil {
			return err
		}
	}

	// 6. Black wolf conversion: only bites on the pack's own victim.
	for _, a := range byType(domain.ActionBlackWolfConvert) {
		if a.TargetID == nil || wolfVictim == nil || *a.TargetID != *wolfVictim {
			continue
		}
		ability, err := r.store.FindAbility(ctx, a.PerformerID, domain.AbilityBlackWolfConvert)
		if err != nil || !ability.Available(day) {
			continue
		}
		target, ok := r.players[*a.TargetID]
		if !ok || target.State != domain.PlayerAlive {
			continue
		}
		// Cancel the pack kill and turn the victim.
		filtered := pendings[:0]
		for _, p := range pendings {
			if !(p.Target == *wolfVictim && p.Cause == domain.CauseWerewolfAttack) {
				filtered = append(filtered, p)
			}
		}
		pendings = filtered
		wolfVictim = nil

		target.Role = domain.RoleWerewolf
		if err := r.store.UpdatePlayer(ctx, target); err != nil {
			return err
		}
		if err := r.reinitAbilities(ctx, target); err != nil {
			return err
		}
		if err := r.consumeAbility(ctx, a.PerformerID, domain.AbilityBlackWolfConvert, day); err != nil {
			return err
		}
		r.publishPlayer(ctx, target.ID, domain.EvtRoleChanged, map[string]any{
			"role": target.Role,
		})
		r.appendEvent(ctx, domain.EvtRoleChanged, map[string]any{
			"player_id": target.ID, "role": target.Role,
		})
	}

	// 7. Witch heal: only effective on the pack's victim.
	for _, a := range byType(domain.ActionWitchHeal) {
		if a.TargetID == nil || wolfVictim == nil || *a.TargetID != *wolfVictim {
			continue
		}
		ability, err := r.store.FindAbility(ctx, a.PerformerID, domain.AbilityWitchHeal)
		if err != nil || !ability.Available(day) {
			continue
		}
		protected[*a.TargetID] = true
		if err := r.consumeAbility(ctx, a.PerformerID, domain.AbilityWitchHeal, day); err != nil {
			return err
		}
	}

	// 8. Witch poison.
	for _, a := range byType(domain.ActionWitchPoison) {
		if a.TargetID == nil {
			continue
		}
		ability, err := r.store.FindAbility(ctx, a.PerformerID, domain.AbilityWitchPoison)
		if err != nil || !ability.Available(day) {
			continue
		}
		pendings = append(pendings, pendingDeath{Target: *a.TargetID, Cause: domain.CauseWitchPoison})
		if err := r.consumeAbility(ctx, a.PerformerID, domain.AbilityWitchPoison, day); err != nil {
			return err
		}
	}

	// 9. Investigations.
	for _, a := range byType(domain.ActionSeerInvestigate) {
		if a.TargetID == nil {
			continue
		}
		target, ok := r.players[*a.TargetID]
		if !ok {
			continue
		}
		a.Result = string(target.Role)
		if err := r.store.UpsertAction(ctx, a); err != nil {
			return err
		}
		r.publishPlayer(ctx, a.PerformerID, domain.EvtInvestigationResult, map[string]any{
			"target_id": target.ID,
			"role":      target.Role,
		})
	}

	// Commit phase: protection and passive immunity veto a pending death.
	r.lastNightDeaths = nil
	for _, pending := range pendings {
		target, ok := r.players[pending.Target]
		if !ok {
			continue
		}
		if protected[pending.Target] || r.passiveImmune(target, pending.Cause) {
			r.publishRoom(ctx, domain.EvtPlayerSaved, map[string]any{
				"player_id": pending.Target,
			})
			r.appendEvent(ctx, domain.EvtPlayerSaved, map[string]any{
				"player_id": pending.Target, "cause": pending.Cause,
			})
			continue
		}
		role := target.Role
		if err := r.kill(ctx, pending.Target, pending.Cause); err != nil {
			return err
		}
		r.lastNightDeaths = append(r.lastNightDeaths, deathRecord{
			PlayerID: pending.Target, Cause: pending.Cause, Role: role,
		})
	}
	return nil
}

// consumeAbility decrements a finite ability and stamps its last use.
// Unlimited abilities only get the stamp. mu held.
func (r *Room) consumeAbility(ctx context.Context, playerID uuid.UUID, abilityType domain.AbilityType, day int) error {
	ability, err := r.store.FindAbility(ctx, playerID, abilityType)
	if err != nil {
		return err
	}
	if ability.UsesLeft > 0 {
		ability.UsesLeft--
	}
	ability.LastUsedDay = &day
	return r.store.UpsertAbility(ctx, ability)
}

// reinitAbilities replaces a player's ability set with the fresh set for its
// current role (conversion and inheritance both reset uses). mu held.
func (r *Room) reinitAbilities(ctx context.Context, player *domain.Player) error {
	if err := r.store.DeleteAbilities(ctx, player.ID); err != nil {
		return err
	}
	for _, a := range abilitiesFor(player.ID, player.Role) {
		if err := r.store.UpsertAbility(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
