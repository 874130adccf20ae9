package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"werewolf-service/domain"
)

func alive(role domain.GameRole) *domain.Player {
	return &domain.Player{ID: uuid.New(), Role: role, State: domain.PlayerAlive}
}

func dead(role domain.GameRole) *domain.Player {
	return &domain.Player{ID: uuid.New(), Role: role, State: domain.PlayerDead}
}

func TestEvaluateWinDrawWhenNobodyAlive(t *testing.T) {
	winner, over := evaluateWin([]*domain.Player{dead(domain.RoleVillager), dead(domain.RoleWerewolf)})
	assert.True(t, over)
	assert.Nil(t, winner)
}

func TestEvaluateWinLoversAloneCountAsVillagers(t *testing.T) {
	wolf := alive(domain.RoleWerewolf)
	villager := alive(domain.RoleVillager)
	wolf.LinkedTo = &villager.ID
	villager.LinkedTo = &wolf.ID

	winner, over := evaluateWin([]*domain.Player{wolf, villager, dead(domain.RoleSeer)})
	assert.True(t, over)
	if assert.NotNil(t, winner) {
		assert.Equal(t, domain.TeamVillagers, *winner)
	}
}

func TestEvaluateWinLoneWhiteWolfWinsSolo(t *testing.T) {
	winner, over := evaluateWin([]*domain.Player{alive(domain.RoleWhiteWolf), dead(domain.RoleVillager)})
	assert.True(t, over)
	if assert.NotNil(t, winner) {
		assert.Equal(t, domain.TeamSolo, *winner)
	}
}

func TestEvaluateWinWerewolvesAtParity(t *testing.T) {
	winner, over := evaluateWin([]*domain.Player{
		alive(domain.RoleWerewolf), alive(domain.RoleBlackWolf),
		alive(domain.RoleVillager), alive(domain.RoleSeer),
	})
	assert.True(t, over)
	if assert.NotNil(t, winner) {
		assert.Equal(t, domain.TeamWerewolves, *winner)
	}
}

func TestEvaluateWinSoloBlocksWerewolfVictory(t *testing.T) {
	winner, over := evaluateWin([]*domain.Player{
		alive(domain.RoleWerewolf), alive(domain.RoleWerewolf),
		alive(domain.RoleVillager), alive(domain.RoleWhiteWolf),
	})
	assert.False(t, over)
	assert.Nil(t, winner)
}

func TestEvaluateWinVillagersWhenPackIsGone(t *testing.T) {
	winner, over := evaluateWin([]*domain.Player{
		alive(domain.RoleVillager), alive(domain.RoleSeer), dead(domain.RoleWerewolf),
	})
	assert.True(t, over)
	if assert.NotNil(t, winner) {
		assert.Equal(t, domain.TeamVillagers, *winner)
	}
}

func TestEvaluateWinWhiteWolfBlocksVillagerVictory(t *testing.T) {
	winner, over := evaluateWin([]*domain.Player{
		alive(domain.RoleVillager), alive(domain.RoleSeer), alive(domain.RoleWhiteWolf),
	})
	assert.False(t, over)
	assert.Nil(t, winner)
}

func TestEvaluateWinGameContinues(t *testing.T) {
	winner, over := evaluateWin([]*domain.Player{
		alive(domain.RoleWerewolf),
		alive(domain.RoleVillager), alive(domain.RoleSeer), alive(domain.RoleWitch),
	})
	assert.False(t, over)
	assert.Nil(t, winner)
}
