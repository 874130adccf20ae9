package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"werewolf-service/domain"
)

// kill is the single entry point for all deaths. It processes the cascade
// iteratively (lovers' grief, inheritance, revenge windows, lapsed
// immunities); the queue terminates because a player dies at most once.
// mu held.
func (r *Room) kill(ctx context.Context, playerID uuid.UUID, cause domain.DeathCause) error {
	type item struct {
		playerID uuid.UUID
		cause    domain.DeathCause
	}
	queue := []item{{playerID, cause}}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		player, ok := r.players[next.playerID]
		if !ok || player.State != domain.PlayerAlive {
			continue
		}

		firstDeath := !r.anyDead()

		now := time.Now()
		player.State = domain.PlayerDead
		player.DiedAt = &now
		player.IsRevealed = true
		if err := r.store.UpdatePlayer(ctx, player); err != nil {
			return err
		}
		died := map[string]any{
			"player_id": player.ID,
			"position":  player.Position,
			"role":      player.Role,
			"cause":     string(next.cause),
		}
		r.appendEvent(ctx, domain.EvtPlayerDied, died)
		r.publishRoom(ctx, domain.EvtPlayerDied, died)

		// Hunter revenge: open the grace window; the shot arrives as a
		// separate HUNTER_SHOOT call and must not block the cascade.
		if player.Role == domain.RoleHunter {
			deadline := now.Add(r.cfg.HunterGrace)
			r.pendingHunters[player.ID] = deadline
			r.publishPlayer(ctx, player.ID, domain.EvtHunterTriggered, map[string]any{
				"deadline": deadline,
			})
		}

		// Lovers die of grief, in both directions of the link.
		if player.LinkedTo != nil {
			if partner, ok := r.players[*player.LinkedTo]; ok && partner.State == domain.PlayerAlive {
				queue = append(queue, item{partner.ID, domain.CauseGrief})
			}
		}
		for _, other := range r.playersByPosition() {
			if other.State == domain.PlayerAlive && other.LinkedTo != nil && *other.LinkedTo == player.ID {
				queue = append(queue, item{other.ID, domain.CauseGrief})
			}
		}

		// Heir inheritance.
		for _, heir := range r.alivePlayers() {
			if heir.Role != domain.RoleHeir {
				continue
			}
			ability, err := r.store.FindAbility(ctx, heir.ID, domain.AbilityHeirTarget)
			if err != nil || ability.Metadata["target_id"] != player.ID.String() {
				continue
			}
			if err := r.inheritRole(ctx, heir, player.Role, domain.EvtRoleInherited); err != nil {
				return err
			}
		}

		// Plunderer claims the first corpse's role.
		if firstDeath {
			for _, plunderer := range r.alivePlayers() {
				if plunderer.Role != domain.RolePlunderer {
					continue
				}
				if err := r.inheritRole(ctx, plunderer, player.Role, domain.EvtRoleStolen); err != nil {
					return err
				}
			}
		}

		r.notifyLapsedImmunities(ctx, player)
	}
	return nil
}

// inheritRole rewrites a player's role and re-initializes its abilities from
// scratch. mu held.
func (r *Room) inheritRole(ctx context.Context, player *domain.Player, role domain.GameRole, eventType string) error {
	player.Role = role
	if err := r.store.UpdatePlayer(ctx, player); err != nil {
		return err
	}
	if err := r.reinitAbilities(ctx, player); err != nil {
		return err
	}
	r.publishPlayer(ctx, player.ID, eventType, map[string]any{"role": role})
	r.appendEvent(ctx, eventType, map[string]any{
		"player_id": player.ID, "role": role,
	})
	return nil
}

// notifyLapsedImmunities tells a riding hood when its condition-role just
// died. mu held.
func (r *Room) notifyLapsedImmunities(ctx context.Context, deceased *domain.Player) {
	notify := func(role domain.GameRole) {
		for _, p := range r.alivePlayers() {
			if p.Role == role {
				r.publishPlayer(ctx, p.ID, domain.EvtProtectionLost, map[string]any{
					"lost_with": deceased.Role,
				})
			}
		}
	}

	switch {
	case deceased.Role == domain.RoleBlackWolf && !r.anyAliveWithRole(domain.RoleBlackWolf):
		notify(domain.RoleWolfRidingHood)
	case deceased.Role == domain.RoleHunter && !r.anyAliveWithRole(domain.RoleHunter):
		notify(domain.RoleRedRidingHood)
	case deceased.Role == domain.RoleVillager && !r.anyAliveWithRole(domain.RoleVillager):
		notify(domain.RoleBlueRidingHood)
	}
}

// passiveImmune applies the conditional riding-hood protections. mu held.
func (r *Room) passiveImmune(player *domain.Player, cause domain.DeathCause) bool {
	switch player.Role {
	case domain.RoleRedRidingHood:
		return cause == domain.CauseWerewolfAttack && r.anyAliveWithRole(domain.RoleHunter)
	case domain.RoleBlueRidingHood:
		return cause == domain.CauseWerewolfAttack && r.anyAliveWithRole(domain.RoleVillager)
	case domain.RoleWolfRidingHood:
		return cause == domain.CauseVotedOut && r.anyAliveWithRole(domain.RoleBlackWolf)
	}
	return false
}

func (r *Room) anyAliveWithRole(role domain.GameRole) bool {
	for _, p := range r.players {
		if p.State == domain.PlayerAlive && p.Role == role {
			return true
		}
	}
	return false
}

func (r *Room) anyDead() bool {
	for _, p := range r.players {
		if p.State == domain.PlayerDead {
			return true
		}
	}
	return false
}

// ExpireHunterWindows drops revenge windows whose grace has passed. Called
// opportunistically by the registry's sweep; a stale window only blocks a
// late shot, so precision is not critical.
func (r *Room) ExpireHunterWindows(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, deadline := range r.pendingHunters {
		if now.After(deadline) {
			delete(r.pendingHunters, id)
			zap.L().Debug("hunter revenge window expired",
				zap.String("room_id", r.room.ID.String()),
				zap.String("player_id", id.String()))
		}
	}
}
