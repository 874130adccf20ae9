package game

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"werewolf-service/domain"
)

// loadVotes returns the DAY_VOTE actions of the current day. mu held.
func (r *Room) loadVotes(ctx context.Context) ([]*domain.GameAction, error) {
	day := r.room.DayNumber
	actionType := domain.ActionDayVote
	return r.store.FindActions(ctx, ActionFilter{
		RoomID: r.room.ID, DayNumber: &day, ActionType: &actionType,
	})
}

// tallyFor counts non-abstain ballots per target for vote:update payloads.
func tallyFor(votes []*domain.GameAction) map[string]int {
	tally := make(map[string]int)
	for _, v := range votes {
		if v.TargetID != nil {
			tally[v.TargetID.String()]++
		}
	}
	return tally
}

// finalizeVotes runs at the DAY_VOTING phase-end hook: counts ballots,
// applies the mayor double-vote, breaks ties, applies vote immunity, feeds
// the eliminated player to the death pipeline, and resolves the day-1
// mercenary. A non-nil return forces the game to end with that team. mu held.
func (r *Room) finalizeVotes(ctx context.Context) (*domain.Team, error) {
	ballots, err := r.loadVotes(ctx)
	if err != nil {
		return nil, err
	}

	votes := make(map[uuid.UUID]int)
	byVoter := make(map[uuid.UUID]*uuid.UUID)
	for _, b := range ballots {
		voter, ok := r.players[b.PerformerID]
		if !ok || voter.State != domain.PlayerAlive {
			continue
		}
		byVoter[b.PerformerID] = b.TargetID
		if b.TargetID != nil {
			votes[*b.TargetID]++
		}
	}

	// Mayor double-vote.
	for _, p := range r.alivePlayers() {
		ability, err := r.store.FindAbility(ctx, p.ID, domain.AbilityMayorVote)
		if err != nil || ability == nil {
			continue
		}
		if target := byVoter[p.ID]; target != nil {
			votes[*target]++
		}
	}

	topVotes := 0
	for _, n := range votes {
		if n > topVotes {
			topVotes = n
		}
	}

	var candidates []*domain.Player
	for _, p := range r.playersByPosition() {
		if votes[p.ID] == topVotes && topVotes > 0 {
			candidates = append(candidates, p)
		}
	}

	var eliminated *domain.Player
	switch {
	case topVotes == 0 || len(candidates) == 0:
		// Nobody received a vote.
	case len(candidates) == 1:
		eliminated = candidates[0]
	default:
		// Tie. A living mayor picks; the pick is a uniform draw among the
		// tied candidates (the documented fallback for the missing waiting
		// protocol). Without a mayor the tie stands and nobody dies.
		if r.aliveMayor(ctx) != nil {
			eliminated = candidates[r.rng.Intn(len(candidates))]
		}
	}

	if eliminated != nil {
		if r.passiveImmune(eliminated, domain.CauseVotedOut) {
			r.publishRoom(ctx, domain.EvtVoteProtection, map[string]any{
				"player_id": eliminated.ID,
			})
		} else if err := r.kill(ctx, eliminated.ID, domain.CauseVotedOut); err != nil {
			return nil, err
		}
	}

	var forced *domain.Team
	if r.room.DayNumber == 1 {
		forced = r.resolveMercenary(ctx, eliminated)
	}

	tally := make(map[string]int, len(votes))
	for id, n := range votes {
		tally[id.String()] = n
	}
	results := map[string]any{"tally": tally}
	if eliminated != nil {
		results["eliminated_id"] = eliminated.ID
	}
	r.appendEvent(ctx, domain.EvtVoteResults, results)
	r.publishRoom(ctx, domain.EvtVoteResults, results)
	return forced, nil
}

// aliveMayor returns the living holder of the mayor_vote ability, if any.
// mu held.
func (r *Room) aliveMayor(ctx context.Context) *domain.Player {
	for _, p := range r.alivePlayers() {
		if ability, err := r.store.FindAbility(ctx, p.ID, domain.AbilityMayorVote); err == nil && ability != nil {
			return p
		}
	}
	return nil
}

// resolveMercenary handles the end of day 1: a mercenary whose target was
// voted out wins alone; in every other case the mercenary plays on as a
// plain villager. mu held.
func (r *Room) resolveMercenary(ctx context.Context, eliminated *domain.Player) *domain.Team {
	var mercenary *domain.Player
	for _, p := range r.alivePlayers() {
		if p.Role == domain.RoleMercenary {
			mercenary = p
			break
		}
	}
	if mercenary == nil {
		return nil
	}

	if eliminated != nil {
		ability, err := r.store.FindAbility(ctx, mercenary.ID, domain.AbilityMercenaryTarget)
		if err == nil && ability != nil && ability.Metadata["target_id"] == eliminated.ID.String() {
			r.publishRoom(ctx, domain.EvtMercenaryVictory, map[string]any{
				"mercenary_id": mercenary.ID,
				"target_id":    eliminated.ID,
			})
			r.appendEvent(ctx, domain.EvtMercenaryVictory, map[string]any{
				"mercenary_id": mercenary.ID,
			})
			solo := domain.TeamSolo
			return &solo
		}
	}

	mercenary.Role = domain.RoleVillager
	if err := r.store.UpdatePlayer(ctx, mercenary); err != nil {
		zap.L().Error("failed to downgrade mercenary", zap.Error(err))
	}
	r.publishPlayer(ctx, mercenary.ID, domain.EvtRoleChanged, map[string]any{
		"role": mercenary.Role,
	})
	return nil
}
