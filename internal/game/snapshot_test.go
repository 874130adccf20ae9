package game

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werewolf-service/domain"
)

func TestSnapshotHidesUnrevealedRoles(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)
	seer := at(t, room, 2)

	snap := room.Snapshot(seer.UserID)

	assert.Equal(t, domain.RoleSeer, snap.MyRole)
	assert.Equal(t, 5, snap.AliveCount)
	for _, view := range snap.Players {
		if view.ID == seer.ID {
			assert.Equal(t, domain.RoleSeer, view.Role)
		} else {
			assert.Empty(t, view.Role, "other players' roles stay hidden")
		}
	}
}

func TestSnapshotRevealsDeadPlayers(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 2,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)
	victim := at(t, room, 3)
	require.NoError(t, room.kill(context.Background(), victim.ID, domain.CauseWerewolfAttack))

	snap := room.Snapshot(at(t, room, 4).UserID)

	assert.Equal(t, 4, snap.AliveCount)
	require.Len(t, snap.DeadPlayers, 1)
	assert.Equal(t, victim.ID, snap.DeadPlayers[0].ID)
	assert.Equal(t, domain.RoleVillager, snap.DeadPlayers[0].Role, "death reveals the role")
}

func TestSnapshotForStranger(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	snap := room.Snapshot(uuid.New())

	assert.Empty(t, snap.MyRole)
	assert.False(t, snap.IsHost)
	for _, view := range snap.Players {
		assert.Empty(t, view.Role)
	}
}
