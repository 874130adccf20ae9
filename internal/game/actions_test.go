package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werewolf-service/domain"
)

func TestNightActionRejectedOutsideNight(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayDiscussion, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	target := at(t, room, 3).ID
	err := room.SubmitNightAction(context.Background(), at(t, room, 1).UserID, NightActionInput{
		ActionType: domain.ActionWerewolfVote, TargetID: &target,
	})
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}

func TestNightActionRejectedForWrongRole(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	target := at(t, room, 3).ID
	err := room.SubmitNightAction(context.Background(), at(t, room, 2).UserID, NightActionInput{
		ActionType: domain.ActionWitchPoison, TargetID: &target,
	})
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}

func TestNightActionRejectedForDeadPerformer(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)
	wolf := at(t, room, 1)
	require.NoError(t, room.kill(context.Background(), wolf.ID, domain.CauseWitchPoison))

	target := at(t, room, 3).ID
	err := room.SubmitNightAction(context.Background(), wolf.UserID, NightActionInput{
		ActionType: domain.ActionWerewolfVote, TargetID: &target,
	})
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}

func TestNightWerewolfCannotTargetPackmate(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleBlackWolf, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	target := at(t, room, 2).ID
	err := room.SubmitNightAction(context.Background(), at(t, room, 1).UserID, NightActionInput{
		ActionType: domain.ActionWerewolfVote, TargetID: &target,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCupidLinkMakesSymmetricLovers(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleCupid, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)
	first, second := at(t, room, 3), at(t, room, 4)

	require.NoError(t, room.SubmitNightAction(context.Background(), at(t, room, 2).UserID, NightActionInput{
		ActionType: domain.ActionCupidLink,
		Metadata: map[string]string{
			"player1_id": first.ID.String(),
			"player2_id": second.ID.String(),
		},
	}))
	endPhase(t, room)

	require.NotNil(t, first.LinkedTo)
	require.NotNil(t, second.LinkedTo)
	assert.Equal(t, second.ID, *first.LinkedTo)
	assert.Equal(t, first.ID, *second.LinkedTo)
	assert.Contains(t, publishedTypes(t, env, PlayerTopic(room.ID(), first.ID)), domain.EvtBecameLover)
}

func TestCupidLinkRejectedAfterFirstNight(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 2,
		domain.RoleWerewolf, domain.RoleCupid, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	err := room.SubmitNightAction(context.Background(), at(t, room, 2).UserID, NightActionInput{
		ActionType: domain.ActionCupidLink,
		Metadata: map[string]string{
			"player1_id": at(t, room, 3).ID.String(),
			"player2_id": at(t, room, 4).ID.String(),
		},
	})
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}

// Scenario: a coup against a villager costs the dictator its life.
func TestDictatorFailedCoup(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayDiscussion, 2,
		domain.RoleWerewolf, domain.RoleDictator, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleSeer)
	dictator := at(t, room, 2)

	require.NoError(t, room.DictatorCoup(context.Background(), dictator.UserID, at(t, room, 3).ID))

	assert.Equal(t, domain.PlayerDead, dictator.State)
	assert.Equal(t, domain.PlayerAlive, at(t, room, 3).State)
	assert.Contains(t, publishedTypes(t, env, RoomTopic(room.ID())), domain.EvtDictatorFailed)
}

func TestDictatorSuccessfulCoupGrantsMayor(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayDiscussion, 2,
		domain.RoleWerewolf, domain.RoleDictator, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleSeer)
	dictator := at(t, room, 2)
	wolf := at(t, room, 1)

	require.NoError(t, room.DictatorCoup(context.Background(), dictator.UserID, wolf.ID))

	assert.Equal(t, domain.PlayerDead, wolf.State)
	assert.Equal(t, domain.PlayerAlive, dictator.State)
	assert.True(t, dictator.IsRevealed)

	mayor, err := env.store.FindAbility(context.Background(), dictator.ID, domain.AbilityMayorVote)
	require.NoError(t, err)
	assert.Equal(t, -1, mayor.UsesLeft)
	assert.Contains(t, publishedTypes(t, env, RoomTopic(room.ID())), domain.EvtDictatorSuccess)
}

func TestDictatorCoupIsSingleUse(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayDiscussion, 2,
		domain.RoleWerewolf, domain.RoleWerewolf, domain.RoleDictator,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager,
		domain.RoleSeer)
	dictator := at(t, room, 3)

	require.NoError(t, room.DictatorCoup(context.Background(), dictator.UserID, at(t, room, 1).ID))

	err := room.DictatorCoup(context.Background(), dictator.UserID, at(t, room, 2).ID)
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}
