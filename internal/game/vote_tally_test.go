package game

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werewolf-service/domain"
)

func castVote(t *testing.T, room *Room, voter, target *domain.Player) {
	t.Helper()
	var targetID *uuid.UUID
	if target != nil {
		id := target.ID
		targetID = &id
	}
	require.NoError(t, room.CastVote(context.Background(), voter.UserID, targetID))
}

// Scenario: four villagers lynch the lone werewolf and the village wins.
func TestVoteEliminatesWerewolfAndVillagersWin(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayVoting, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)
	wolf := at(t, room, 1)

	for pos := 2; pos <= 5; pos++ {
		castVote(t, room, at(t, room, pos), wolf)
	}
	castVote(t, room, wolf, at(t, room, 2))
	endPhase(t, room)

	assert.Equal(t, domain.PlayerDead, wolf.State)
	assert.Equal(t, domain.PhaseGameEnd, room.room.Phase)
	assert.Equal(t, domain.RoomEnded, room.room.State)
	require.NotNil(t, room.room.WinningTeam)
	assert.Equal(t, domain.TeamVillagers, *room.room.WinningTeam)
	assert.Contains(t, publishedTypes(t, env, RoomTopic(room.ID())), domain.EvtGameEnded)

	// Winners and losers both get a game played; only winners a win.
	played, won := env.store.Stats(at(t, room, 2).UserID)
	assert.Equal(t, 1, played)
	assert.Equal(t, 1, won)
	played, won = env.store.Stats(wolf.UserID)
	assert.Equal(t, 1, played)
	assert.Equal(t, 0, won)
}

func TestVoteTieWithoutMayorSparesEveryone(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayVoting, 2,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager)

	castVote(t, room, at(t, room, 1), at(t, room, 3))
	castVote(t, room, at(t, room, 2), at(t, room, 3))
	castVote(t, room, at(t, room, 4), at(t, room, 5))
	castVote(t, room, at(t, room, 5), at(t, room, 4))
	castVote(t, room, at(t, room, 3), at(t, room, 5))
	castVote(t, room, at(t, room, 6), at(t, room, 4))
	endPhase(t, room)

	for pos := 1; pos <= 6; pos++ {
		assert.Equal(t, domain.PlayerAlive, at(t, room, pos).State, "position %d", pos)
	}
}

func TestVoteMayorDoubleVoteBreaksCount(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayVoting, 2,
		domain.RoleWerewolf, domain.RoleDictator, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager)
	mayor := at(t, room, 2)

	// A successful coup in a prior phase granted the double vote.
	require.NoError(t, env.store.UpsertAbility(context.Background(), &domain.Ability{
		PlayerID: mayor.ID, AbilityType: domain.AbilityMayorVote, UsesLeft: -1, MaxUses: -1,
	}))

	// 2 plain votes on position 4, mayor + 1 on position 1: mayor's side wins 3:2.
	castVote(t, room, at(t, room, 3), at(t, room, 4))
	castVote(t, room, at(t, room, 5), at(t, room, 4))
	castVote(t, room, mayor, at(t, room, 1))
	castVote(t, room, at(t, room, 6), at(t, room, 1))
	endPhase(t, room)

	assert.Equal(t, domain.PlayerDead, at(t, room, 1).State)
	assert.Equal(t, domain.PlayerAlive, at(t, room, 4).State)
}

func TestVoteWolfRidingHoodImmuneWhileBlackWolfAlive(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayVoting, 2,
		domain.RoleBlackWolf, domain.RoleWolfRidingHood, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager,
		domain.RoleSeer, domain.RoleVillager)
	hood := at(t, room, 2)

	for pos := 3; pos <= 8; pos++ {
		castVote(t, room, at(t, room, pos), hood)
	}
	endPhase(t, room)

	assert.Equal(t, domain.PlayerAlive, hood.State)
	assert.Contains(t, publishedTypes(t, env, RoomTopic(room.ID())), domain.EvtVoteProtection)
}

func TestVoteEarlyTerminationWhenEveryoneVoted(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayVoting, 2,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	castVote(t, room, at(t, room, 1), at(t, room, 3))
	castVote(t, room, at(t, room, 2), nil) // explicit abstention counts
	castVote(t, room, at(t, room, 3), nil)
	castVote(t, room, at(t, room, 4), nil)
	assert.Empty(t, expiredEntries(t, env))

	castVote(t, room, at(t, room, 5), nil)

	entries := expiredEntries(t, env)
	require.Len(t, entries, 1)
	assert.Equal(t, room.ID(), entries[0].RoomID)
	assert.Equal(t, domain.PhaseDayVoting, entries[0].Phase)
}

func expiredEntries(t *testing.T, env *testEnv) []TimerEntry {
	t.Helper()
	entries, err := env.timers.PopExpired(context.Background(), time.Now(), 16)
	require.NoError(t, err)
	return entries
}

func TestVoteRejectedOutsideVotingPhase(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	target := at(t, room, 1).ID
	err := room.CastVote(context.Background(), at(t, room, 2).UserID, &target)
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}

func TestVoteMercenaryWinsOnDayOneTarget(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayVoting, 1,
		domain.RoleWerewolf, domain.RoleMercenary, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleSeer)
	mercenary := at(t, room, 2)
	target := at(t, room, 4)

	require.NoError(t, env.store.UpsertAbility(context.Background(), &domain.Ability{
		PlayerID:    mercenary.ID,
		AbilityType: domain.AbilityMercenaryTarget,
		UsesLeft:    -1, MaxUses: -1,
		Metadata: map[string]string{"target_id": target.ID.String()},
	}))

	for pos := 1; pos <= 6; pos++ {
		if pos == 4 {
			continue
		}
		castVote(t, room, at(t, room, pos), target)
	}
	endPhase(t, room)

	assert.Equal(t, domain.PhaseGameEnd, room.room.Phase)
	require.NotNil(t, room.room.WinningTeam)
	assert.Equal(t, domain.TeamSolo, *room.room.WinningTeam)
	assert.Contains(t, publishedTypes(t, env, RoomTopic(room.ID())), domain.EvtMercenaryVictory)
}

func TestVoteMercenaryBecomesVillagerAfterDayOne(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayVoting, 1,
		domain.RoleWerewolf, domain.RoleMercenary, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleSeer)
	mercenary := at(t, room, 2)

	require.NoError(t, env.store.UpsertAbility(context.Background(), &domain.Ability{
		PlayerID:    mercenary.ID,
		AbilityType: domain.AbilityMercenaryTarget,
		UsesLeft:    -1, MaxUses: -1,
		Metadata: map[string]string{"target_id": at(t, room, 4).ID.String()},
	}))

	endPhase(t, room) // nobody voted, day 1 still resolves the mercenary

	assert.Equal(t, domain.RoleVillager, mercenary.Role)
	assert.Contains(t, publishedTypes(t, env, PlayerTopic(room.ID(), mercenary.ID)), domain.EvtRoleChanged)
}
