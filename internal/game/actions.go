package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"werewolf-service/domain"
)

// NightActionInput is one secret submission during NIGHT_PHASE.
type NightActionInput struct {
	ActionType domain.ActionType
	TargetID   *uuid.UUID
	Metadata   map[string]string
}

// SubmitNightAction validates and records a night action. Consumption of
// ability uses happens at resolution, so re-submitting just replaces the
// earlier choice. Errors are returned to the submitter only.
func (r *Room) SubmitNightAction(ctx context.Context, userID uuid.UUID, input NightActionInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.room.Phase != domain.PhaseNight {
		return fmt.Errorf("%w: not night", domain.ErrPrecondition)
	}
	performer := r.playerByUserID(userID)
	if performer == nil {
		return fmt.Errorf("%w: player not in room", domain.ErrNotFound)
	}
	if !performer.Acting() {
		return fmt.Errorf("%w: dead players cannot act", domain.ErrPrecondition)
	}

	if err := r.validateNightAction(ctx, performer, input); err != nil {
		return err
	}

	action := &domain.GameAction{
		ID:          uuid.New(),
		RoomID:      r.room.ID,
		PerformerID: performer.ID,
		ActionType:  input.ActionType,
		TargetID:    input.TargetID,
		DayNumber:   r.room.DayNumber,
		Phase:       domain.PhaseNight,
		Metadata:    input.Metadata,
		CreatedAt:   time.Now(),
	}
	if err := r.store.UpsertAction(ctx, action); err != nil {
		return fmt.Errorf("%w: record action: %v", domain.ErrInternal, err)
	}
	return nil
}

func (r *Room) validateNightAction(ctx context.Context, performer *domain.Player, input NightActionInput) error {
	day := r.room.DayNumber

	requireRole := func(roles ...domain.GameRole) error {
		for _, role := range roles {
			if performer.Role == role {
				return nil
			}
		}
		return fmt.Errorf("%w: role cannot perform %s", domain.ErrPrecondition, input.ActionType)
	}
	requireAliveTarget := func() (*domain.Player, error) {
		if input.TargetID == nil {
			return nil, fmt.Errorf("%w: target required", domain.ErrValidation)
		}
		target, ok := r.players[*input.TargetID]
		if !ok {
			return nil, fmt.Errorf("%w: target not in room", domain.ErrNotFound)
		}
		if target.State != domain.PlayerAlive {
			return nil, fmt.Errorf("%w: target is not alive", domain.ErrPrecondition)
		}
		return target, nil
	}
	requireAbility := func(abilityType domain.AbilityType) (*domain.Ability, error) {
		ability, err := r.store.FindAbility(ctx, performer.ID, abilityType)
		if err != nil {
			return nil, fmt.Errorf("%w: ability %s", domain.ErrNotFound, abilityType)
		}
		if !ability.Available(day) {
			return nil, fmt.Errorf("%w: ability %s unavailable", domain.ErrPrecondition, abilityType)
		}
		return ability, nil
	}

	switch input.ActionType {
	case domain.ActionGuardProtect:
		if err := requireRole(domain.RoleGuard); err != nil {
			return err
		}
		target, err := requireAliveTarget()
		if err != nil {
			return err
		}
		if target.ID == performer.ID {
			return fmt.Errorf("%w: guard cannot protect self", domain.ErrValidation)
		}
		ability, err := requireAbility(domain.AbilityGuardProtect)
		if err != nil {
			return err
		}
		if ability.LastUsedDay != nil && *ability.LastUsedDay == day-1 &&
			ability.Metadata["last_target"] == target.ID.String() {
			return fmt.Errorf("%w: cannot protect the same player twice in a row", domain.ErrValidation)
		}
		return nil

	case domain.ActionCupidLink:
		if err := requireRole(domain.RoleCupid); err != nil {
			return err
		}
		if day != 1 {
			return fmt.Errorf("%w: cupid links on the first night only", domain.ErrPrecondition)
		}
		if _, err := requireAbility(domain.AbilityCupidLink); err != nil {
			return err
		}
		first, second, err := r.parseLinkPair(input.Metadata)
		if err != nil {
			return err
		}
		if first.ID == second.ID {
			return fmt.Errorf("%w: lovers must be two distinct players", domain.ErrValidation)
		}
		return nil

	case domain.ActionHeirChoose:
		if err := requireRole(domain.RoleHeir); err != nil {
			return err
		}
		if day != 1 {
			return fmt.Errorf("%w: the heir designates on the first night only", domain.ErrPrecondition)
		}
		target, err := requireAliveTarget()
		if err != nil {
			return err
		}
		if target.ID == performer.ID {
			return fmt.Errorf("%w: cannot designate self", domain.ErrValidation)
		}
		_, err = requireAbility(domain.AbilityHeirTarget)
		return err

	case domain.ActionWerewolfVote:
		if !domain.IsWolf(performer.Role) {
			return fmt.Errorf("%w: only wolves hunt at night", domain.ErrPrecondition)
		}
		target, err := requireAliveTarget()
		if err != nil {
			return err
		}
		if domain.IsWolf(target.Role) {
			return fmt.Errorf("%w: the pack does not hunt its own", domain.ErrValidation)
		}
		return nil

	case domain.ActionWhiteWolfDevour:
		if err := requireRole(domain.RoleWhiteWolf); err != nil {
			return err
		}
		if _, err := requireAliveTarget(); err != nil {
			return err
		}
		_, err := requireAbility(domain.AbilityWhiteWolfDevour)
		return err

	case domain.ActionBlackWolfConvert:
		if err := requireRole(domain.RoleBlackWolf); err != nil {
			return err
		}
		if _, err := requireAliveTarget(); err != nil {
			return err
		}
		_, err := requireAbility(domain.AbilityBlackWolfConvert)
		return err

	case domain.ActionWitchHeal:
		if err := requireRole(domain.RoleWitch); err != nil {
			return err
		}
		if _, err := requireAliveTarget(); err != nil {
			return err
		}
		_, err := requireAbility(domain.AbilityWitchHeal)
		return err

	case domain.ActionWitchPoison:
		if err := requireRole(domain.RoleWitch); err != nil {
			return err
		}
		target, err := requireAliveTarget()
		if err != nil {
			return err
		}
		if target.ID == performer.ID {
			return fmt.Errorf("%w: cannot poison self", domain.ErrValidation)
		}
		_, err = requireAbility(domain.AbilityWitchPoison)
		return err

	case domain.ActionSeerInvestigate:
		if err := requireRole(domain.RoleSeer, domain.RoleTalkativeSeer); err != nil {
			return err
		}
		target, err := requireAliveTarget()
		if err != nil {
			return err
		}
		if target.ID == performer.ID {
			return fmt.Errorf("%w: cannot investigate self", domain.ErrValidation)
		}
		_, err = requireAbility(domain.AbilitySeerInvestigate)
		return err
	}

	return fmt.Errorf("%w: unknown night action %s", domain.ErrValidation, input.ActionType)
}

// parseLinkPair resolves the cupid link metadata to two alive players.
// mu held.
func (r *Room) parseLinkPair(metadata map[string]string) (*domain.Player, *domain.Player, error) {
	lookup := func(key string) (*domain.Player, error) {
		raw, ok := metadata[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s required", domain.ErrValidation, key)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not a player id", domain.ErrValidation, key)
		}
		player, ok := r.players[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s not in room", domain.ErrNotFound, key)
		}
		if player.State != domain.PlayerAlive {
			return nil, fmt.Errorf("%w: %s is not alive", domain.ErrPrecondition, key)
		}
		return player, nil
	}
	first, err := lookup("player1_id")
	if err != nil {
		return nil, nil, err
	}
	second, err := lookup("player2_id")
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

// CastVote records or replaces a ballot during DAY_VOTING. A nil target is an
// explicit abstention. When every alive player has voted or abstained the
// phase is scheduled to end immediately (never transitioned reentrantly).
func (r *Room) CastVote(ctx context.Context, userID uuid.UUID, targetID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.room.Phase != domain.PhaseDayVoting {
		return fmt.Errorf("%w: not the voting phase", domain.ErrPrecondition)
	}
	voter := r.playerByUserID(userID)
	if voter == nil {
		return fmt.Errorf("%w: player not in room", domain.ErrNotFound)
	}
	if !voter.Acting() {
		return fmt.Errorf("%w: dead players cannot vote", domain.ErrPrecondition)
	}
	if targetID != nil {
		target, ok := r.players[*targetID]
		if !ok {
			return fmt.Errorf("%w: target not in room", domain.ErrNotFound)
		}
		if target.State != domain.PlayerAlive {
			return fmt.Errorf("%w: target is not alive", domain.ErrPrecondition)
		}
	}

	action := &domain.GameAction{
		ID:          uuid.New(),
		RoomID:      r.room.ID,
		PerformerID: voter.ID,
		ActionType:  domain.ActionDayVote,
		TargetID:    targetID,
		DayNumber:   r.room.DayNumber,
		Phase:       domain.PhaseDayVoting,
		CreatedAt:   time.Now(),
	}
	if err := r.store.UpsertAction(ctx, action); err != nil {
		return fmt.Errorf("%w: record vote: %v", domain.ErrInternal, err)
	}

	votes, err := r.loadVotes(ctx)
	if err != nil {
		return fmt.Errorf("%w: load votes: %v", domain.ErrInternal, err)
	}
	r.publishRoom(ctx, domain.EvtVoteUpdate, map[string]any{
		"tally": tallyFor(votes),
		"voted": len(votes),
		"alive": len(r.alivePlayers()),
	})

	if len(votes) >= len(r.alivePlayers()) {
		entry := TimerEntry{RoomID: r.room.ID, Phase: domain.PhaseDayVoting, Deadline: time.Now()}
		if err := r.timers.Schedule(ctx, entry); err != nil {
			zap.L().Error("failed to schedule early vote end", zap.Error(err))
		}
	}
	return nil
}

// HunterShoot fires the revenge shot of a freshly dead hunter. Only valid
// inside the grace window opened by the hunter's death.
func (r *Room) HunterShoot(ctx context.Context, userID uuid.UUID, targetID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hunter := r.playerByUserID(userID)
	if hunter == nil {
		return fmt.Errorf("%w: player not in room", domain.ErrNotFound)
	}
	deadline, pending := r.pendingHunters[hunter.ID]
	if !pending {
		return fmt.Errorf("%w: no revenge shot pending", domain.ErrPrecondition)
	}
	if time.Now().After(deadline) {
		delete(r.pendingHunters, hunter.ID)
		return fmt.Errorf("%w: revenge window has closed", domain.ErrPrecondition)
	}
	target, ok := r.players[targetID]
	if !ok {
		return fmt.Errorf("%w: target not in room", domain.ErrNotFound)
	}
	if target.State != domain.PlayerAlive {
		return fmt.Errorf("%w: target is not alive", domain.ErrPrecondition)
	}
	ability, err := r.store.FindAbility(ctx, hunter.ID, domain.AbilityHunterShoot)
	if err != nil || ability.UsesLeft == 0 {
		return fmt.Errorf("%w: no shot left", domain.ErrPrecondition)
	}

	delete(r.pendingHunters, hunter.ID)
	ability.UsesLeft--
	day := r.room.DayNumber
	ability.LastUsedDay = &day
	if err := r.store.UpsertAbility(ctx, ability); err != nil {
		return fmt.Errorf("%w: consume ability: %v", domain.ErrInternal, err)
	}

	action := &domain.GameAction{
		ID:          uuid.New(),
		RoomID:      r.room.ID,
		PerformerID: hunter.ID,
		ActionType:  domain.ActionHunterShoot,
		TargetID:    &targetID,
		DayNumber:   day,
		Phase:       r.room.Phase,
		CreatedAt:   time.Now(),
	}
	if err := r.store.UpsertAction(ctx, action); err != nil {
		zap.L().Error("failed to record hunter shot", zap.Error(err))
	}

	if err := r.kill(ctx, targetID, domain.CauseHunterRevenge); err != nil {
		return err
	}
	r.publishRoom(ctx, domain.EvtHunterRevengeComplete, map[string]any{
		"hunter_id": hunter.ID,
		"target_id": targetID,
	})

	if winner, over := evaluateWin(r.playersByPosition()); over {
		return r.finishGame(ctx, winner, "win_condition")
	}
	return nil
}

// DictatorCoup resolves the dictator's one-shot power grab during the day.
// Hitting a member of the werewolf team makes the dictator Mayor; anything
// else (the White Wolf included) is a fatal mistake.
func (r *Room) DictatorCoup(ctx context.Context, userID uuid.UUID, targetID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.room.Phase != domain.PhaseDayDiscussion && r.room.Phase != domain.PhaseDayVoting {
		return fmt.Errorf("%w: coups happen in daylight", domain.ErrPrecondition)
	}
	dictator := r.playerByUserID(userID)
	if dictator == nil {
		return fmt.Errorf("%w: player not in room", domain.ErrNotFound)
	}
	if dictator.Role != domain.RoleDictator || !dictator.Acting() {
		return fmt.Errorf("%w: cannot stage a coup", domain.ErrPrecondition)
	}
	target, ok := r.players[targetID]
	if !ok {
		return fmt.Errorf("%w: target not in room", domain.ErrNotFound)
	}
	if target.State != domain.PlayerAlive {
		return fmt.Errorf("%w: target is not alive", domain.ErrPrecondition)
	}
	ability, err := r.store.FindAbility(ctx, dictator.ID, domain.AbilityDictatorCoup)
	if err != nil || !ability.Available(r.room.DayNumber) {
		return fmt.Errorf("%w: coup already spent", domain.ErrPrecondition)
	}

	day := r.room.DayNumber
	ability.UsesLeft--
	ability.LastUsedDay = &day
	if err := r.store.UpsertAbility(ctx, ability); err != nil {
		return fmt.Errorf("%w: consume ability: %v", domain.ErrInternal, err)
	}

	action := &domain.GameAction{
		ID:          uuid.New(),
		RoomID:      r.room.ID,
		PerformerID: dictator.ID,
		ActionType:  domain.ActionDictatorCoup,
		TargetID:    &targetID,
		DayNumber:   day,
		Phase:       r.room.Phase,
		CreatedAt:   time.Now(),
	}
	if err := r.store.UpsertAction(ctx, action); err != nil {
		zap.L().Error("failed to record coup", zap.Error(err))
	}

	if domain.TeamOf(target.Role) == domain.TeamWerewolves {
		mayor := &domain.Ability{
			PlayerID:    dictator.ID,
			AbilityType: domain.AbilityMayorVote,
			UsesLeft:    -1, MaxUses: -1,
		}
		if err := r.store.UpsertAbility(ctx, mayor); err != nil {
			return fmt.Errorf("%w: grant mayor vote: %v", domain.ErrInternal, err)
		}
		dictator.IsRevealed = true
		if err := r.store.UpdatePlayer(ctx, dictator); err != nil {
			zap.L().Error("failed to reveal mayor", zap.Error(err))
		}
		if err := r.kill(ctx, targetID, domain.CauseVotedOut); err != nil {
			return err
		}
		r.appendEvent(ctx, domain.EvtDictatorSuccess, map[string]any{
			"dictator_id": dictator.ID, "target_id": targetID,
		})
		r.publishRoom(ctx, domain.EvtDictatorSuccess, map[string]any{
			"dictator_id": dictator.ID,
			"target_id":   targetID,
		})
	} else {
		if err := r.kill(ctx, dictator.ID, domain.CauseFailedCoup); err != nil {
			return err
		}
		r.appendEvent(ctx, domain.EvtDictatorFailed, map[string]any{
			"dictator_id": dictator.ID, "target_id": targetID,
		})
		r.publishRoom(ctx, domain.EvtDictatorFailed, map[string]any{
			"dictator_id": dictator.ID,
		})
	}

	if winner, over := evaluateWin(r.playersByPosition()); over {
		return r.finishGame(ctx, winner, "win_condition")
	}
	return nil
}
