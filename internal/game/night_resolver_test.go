package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werewolf-service/domain"
)

// Baseline: the pack kills an unprotected villager and the day announces it.
func TestNightWerewolfKillCommits(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	submit(t, room, at(t, room, 1), domain.ActionWerewolfVote, at(t, room, 3))
	endPhase(t, room)

	victim := at(t, room, 3)
	assert.Equal(t, domain.PlayerDead, victim.State)
	assert.Equal(t, domain.PhaseDayDiscussion, room.room.Phase)
	assert.Contains(t, publishedTypes(t, env, RoomTopic(room.ID())), domain.EvtNightDeath)
}

// Guard protection cancels the kill.
func TestNightGuardSavesWerewolfTarget(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleGuard)

	submit(t, room, at(t, room, 1), domain.ActionWerewolfVote, at(t, room, 3))
	submit(t, room, at(t, room, 5), domain.ActionGuardProtect, at(t, room, 3))
	endPhase(t, room)

	assert.Equal(t, domain.PlayerAlive, at(t, room, 3).State)
	assert.Contains(t, publishedTypes(t, env, RoomTopic(room.ID())), domain.EvtPlayerSaved)
}

func TestNightGuardRejectsSelfAndRepeatTarget(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleGuard, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)
	guard := at(t, room, 2)

	selfTarget := guard.ID
	err := room.SubmitNightAction(context.Background(), guard.UserID, NightActionInput{
		ActionType: domain.ActionGuardProtect, TargetID: &selfTarget,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Night 1: protect position 3, wolves idle.
	submit(t, room, guard, domain.ActionGuardProtect, at(t, room, 3))
	endPhase(t, room) // night -> day
	endPhase(t, room) // day -> voting
	endPhase(t, room) // voting -> night 2

	require.Equal(t, domain.PhaseNight, room.room.Phase)
	repeat := at(t, room, 3).ID
	err = room.SubmitNightAction(context.Background(), guard.UserID, NightActionInput{
		ActionType: domain.ActionGuardProtect, TargetID: &repeat,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// A different target is fine.
	submit(t, room, guard, domain.ActionGuardProtect, at(t, room, 4))
}

func TestNightWitchHealOnlyMatchesPackVictim(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleWitch, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	submit(t, room, at(t, room, 1), domain.ActionWerewolfVote, at(t, room, 3))
	// Heal aimed at the wrong player has no effect and keeps the potion.
	submit(t, room, at(t, room, 2), domain.ActionWitchHeal, at(t, room, 4))
	endPhase(t, room)

	assert.Equal(t, domain.PlayerDead, at(t, room, 3).State)
	heal, err := env.store.FindAbility(context.Background(), at(t, room, 2).ID, domain.AbilityWitchHeal)
	require.NoError(t, err)
	assert.Equal(t, 1, heal.UsesLeft)
}

func TestNightWitchHealSavesPackVictim(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleWitch, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	submit(t, room, at(t, room, 1), domain.ActionWerewolfVote, at(t, room, 3))
	submit(t, room, at(t, room, 2), domain.ActionWitchHeal, at(t, room, 3))
	endPhase(t, room)

	assert.Equal(t, domain.PlayerAlive, at(t, room, 3).State)
	heal, err := env.store.FindAbility(context.Background(), at(t, room, 2).ID, domain.AbilityWitchHeal)
	require.NoError(t, err)
	assert.Equal(t, 0, heal.UsesLeft)
}

func TestNightWitchPoisonKillsAndConsumes(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleWitch, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)
	witch := at(t, room, 2)

	submit(t, room, witch, domain.ActionWitchPoison, at(t, room, 4))
	endPhase(t, room)

	assert.Equal(t, domain.PlayerDead, at(t, room, 4).State)

	// The potion is spent: the next night rejects another poison.
	endPhase(t, room) // day -> voting
	endPhase(t, room) // voting -> night 2
	target := at(t, room, 5).ID
	err := room.SubmitNightAction(context.Background(), witch.UserID, NightActionInput{
		ActionType: domain.ActionWitchPoison, TargetID: &target,
	})
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}

// Scenario: the black wolf converts the pack's victim instead of letting it die.
func TestNightBlackWolfConvertsPackVictim(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleBlackWolf, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager,
		domain.RoleSeer)

	victim := at(t, room, 4)
	submit(t, room, at(t, room, 1), domain.ActionWerewolfVote, victim)
	submit(t, room, at(t, room, 2), domain.ActionBlackWolfConvert, victim)
	endPhase(t, room)

	assert.Equal(t, domain.PlayerAlive, victim.State)
	assert.Equal(t, domain.RoleWerewolf, victim.Role)
	assert.Contains(t, publishedTypes(t, env, PlayerTopic(room.ID(), victim.ID)), domain.EvtRoleChanged)

	convert, err := env.store.FindAbility(context.Background(), at(t, room, 2).ID, domain.AbilityBlackWolfConvert)
	require.NoError(t, err)
	assert.Equal(t, 0, convert.UsesLeft)
}

func TestNightBlackWolfConvertMissKeepsUse(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleBlackWolf, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager,
		domain.RoleSeer)

	submit(t, room, at(t, room, 1), domain.ActionWerewolfVote, at(t, room, 4))
	submit(t, room, at(t, room, 2), domain.ActionBlackWolfConvert, at(t, room, 5))
	endPhase(t, room)

	assert.Equal(t, domain.PlayerDead, at(t, room, 4).State)
	assert.Equal(t, domain.PlayerAlive, at(t, room, 5).State)
	assert.Equal(t, domain.RoleVillager, at(t, room, 5).Role)

	convert, err := env.store.FindAbility(context.Background(), at(t, room, 2).ID, domain.AbilityBlackWolfConvert)
	require.NoError(t, err)
	assert.Equal(t, 1, convert.UsesLeft)
}

func TestNightWhiteWolfDevourCooldown(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWhiteWolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleVillager,
		domain.RoleVillager)
	whiteWolf := at(t, room, 1)

	submit(t, room, whiteWolf, domain.ActionWhiteWolfDevour, at(t, room, 3))
	endPhase(t, room)
	assert.Equal(t, domain.PlayerDead, at(t, room, 3).State)

	endPhase(t, room) // day -> voting
	endPhase(t, room) // voting -> night 2
	require.Equal(t, 2, room.room.DayNumber)

	target := at(t, room, 4).ID
	err := room.SubmitNightAction(context.Background(), whiteWolf.UserID, NightActionInput{
		ActionType: domain.ActionWhiteWolfDevour, TargetID: &target,
	})
	assert.ErrorIs(t, err, domain.ErrPrecondition)

	endPhase(t, room) // night -> day
	endPhase(t, room) // day -> voting
	endPhase(t, room) // voting -> night 3
	require.Equal(t, 3, room.room.DayNumber)
	submit(t, room, whiteWolf, domain.ActionWhiteWolfDevour, at(t, room, 4))
}

func TestNightSeerInvestigationResult(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)
	seer := at(t, room, 2)

	submit(t, room, seer, domain.ActionSeerInvestigate, at(t, room, 1))
	endPhase(t, room)

	actionType := domain.ActionSeerInvestigate
	day := 1
	actions, err := env.store.FindActions(context.Background(), ActionFilter{
		RoomID: room.ID(), ActionType: &actionType, DayNumber: &day,
	})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, string(domain.RoleWerewolf), actions[0].Result)
	assert.Contains(t, publishedTypes(t, env, PlayerTopic(room.ID(), seer.ID)), domain.EvtInvestigationResult)
}

// Re-submitting overwrites: one action per (performer, type, day, phase).
func TestNightActionUpsertReplaces(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)
	wolf := at(t, room, 1)

	submit(t, room, wolf, domain.ActionWerewolfVote, at(t, room, 3))
	submit(t, room, wolf, domain.ActionWerewolfVote, at(t, room, 4))

	actionType := domain.ActionWerewolfVote
	actions, err := env.store.FindActions(context.Background(), ActionFilter{
		RoomID: room.ID(), ActionType: &actionType,
	})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, at(t, room, 4).ID, *actions[0].TargetID)
}

// Pack plurality, tie broken by lowest position.
func TestNightWerewolfVoteTieLowestPosition(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleWerewolf, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleSeer,
		domain.RoleVillager, domain.RoleVillager)

	submit(t, room, at(t, room, 1), domain.ActionWerewolfVote, at(t, room, 4))
	submit(t, room, at(t, room, 2), domain.ActionWerewolfVote, at(t, room, 3))
	endPhase(t, room)

	assert.Equal(t, domain.PlayerDead, at(t, room, 3).State)
	assert.Equal(t, domain.PlayerAlive, at(t, room, 4).State)
}

// The Little Girl dies spying when the configured chance fires.
func TestNightLittleGirlCaughtSpying(t *testing.T) {
	env := newTestEnv()
	env.cfg.LittleGirlCatchChance = 1.0
	room := buildRoom(t, env, domain.PhaseDayVoting, 1,
		domain.RoleWerewolf, domain.RoleLittleGirl, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager, domain.RoleSeer)

	endPhase(t, room) // voting -> night 2, phase-start resolves the passive

	girl := at(t, room, 2)
	assert.Equal(t, domain.PlayerDead, girl.State)
}
