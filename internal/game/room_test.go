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

func waitingRoom(t *testing.T, env *testEnv, members int) *Room {
	t.Helper()
	ctx := context.Background()

	registry := NewRegistry(env.store, env.bus, env.timers, env.cfg)
	registry.newSeed = func() int64 { return 1 }
	room, err := registry.CreateRoom(ctx, CreateRoomParams{
		Name:       "lobby",
		HostUserID: uuid.New(), HostUsername: "host",
		MinPlayers: 5, MaxPlayers: 8,
	})
	require.NoError(t, err)

	for i := 1; i < members; i++ {
		_, err := room.Join(ctx, uuid.New(), "guest")
		require.NoError(t, err)
	}
	return room
}

func TestJoinAssignsSmallestFreePosition(t *testing.T) {
	env := newTestEnv()
	room := waitingRoom(t, env, 4)
	ctx := context.Background()

	// Vacate position 2; the next join should reclaim it.
	second := at(t, room, 2)
	require.NoError(t, room.Leave(ctx, second.UserID))

	player, err := room.Join(ctx, uuid.New(), "late")
	require.NoError(t, err)
	assert.Equal(t, 2, player.Position)
}

func TestJoinRejectsDuplicateAndFullRoom(t *testing.T) {
	env := newTestEnv()
	room := waitingRoom(t, env, 8)
	ctx := context.Background()

	_, err := room.Join(ctx, at(t, room, 1).UserID, "again")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = room.Join(ctx, uuid.New(), "ninth")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestHostLeavingHandsOffToLowestPosition(t *testing.T) {
	env := newTestEnv()
	room := waitingRoom(t, env, 3)
	ctx := context.Background()

	host := at(t, room, 1)
	successor := at(t, room, 2)
	require.NoError(t, room.Leave(ctx, host.UserID))

	assert.Equal(t, successor.UserID, room.room.HostUserID)
	assert.Contains(t, publishedTypes(t, env, RoomTopic(room.ID())), domain.EvtHostChanged)
}

func TestLastPlayerLeavingCancelsRoom(t *testing.T) {
	env := newTestEnv()
	room := waitingRoom(t, env, 1)

	require.NoError(t, room.Leave(context.Background(), at(t, room, 1).UserID))
	assert.Equal(t, domain.RoomCancelled, room.room.State)
	assert.Equal(t, domain.PhaseGameEnd, room.room.Phase)
}

func TestStartGameRequiresQuorum(t *testing.T) {
	env := newTestEnv()
	room := waitingRoom(t, env, 4)

	err := room.StartGame(context.Background(), room.room.HostUserID)
	assert.ErrorIs(t, err, domain.ErrPrecondition)
	assert.Equal(t, domain.RoomWaiting, room.room.State)
}

func TestStartGameRejectsNonMember(t *testing.T) {
	env := newTestEnv()
	room := waitingRoom(t, env, 5)

	err := room.StartGame(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestStartGameDealsRolesAndSchedulesAssignment(t *testing.T) {
	env := newTestEnv()
	room := waitingRoom(t, env, 5)

	require.NoError(t, room.StartGame(context.Background(), room.room.HostUserID))

	assert.Equal(t, domain.RoomStarting, room.room.State)
	assert.Equal(t, domain.PhaseRoleAssignment, room.room.Phase)
	for _, p := range room.playersByPosition() {
		assert.NotEmpty(t, p.Role)
		assert.Contains(t, publishedTypes(t, env, PlayerTopic(room.ID(), p.ID)), domain.EvtRoleAssigned)
	}

	pending := env.timers.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, domain.PhaseRoleAssignment, pending[0].Phase)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), pending[0].Deadline, time.Second)
}

func TestPhaseCycleAdvancesDayNumber(t *testing.T) {
	env := newTestEnv()
	room := waitingRoom(t, env, 5)
	require.NoError(t, room.StartGame(context.Background(), room.room.HostUserID))

	endPhase(t, room) // role assignment -> night 1
	assert.Equal(t, domain.PhaseNight, room.room.Phase)
	assert.Equal(t, domain.RoomNight, room.room.State)
	assert.Equal(t, 1, room.room.DayNumber)
	require.NotNil(t, room.room.PhaseEndsAt)

	endPhase(t, room) // night -> day
	assert.Equal(t, domain.PhaseDayDiscussion, room.room.Phase)
	assert.Equal(t, domain.RoomDay, room.room.State)

	endPhase(t, room) // day -> voting
	assert.Equal(t, domain.PhaseDayVoting, room.room.Phase)
	assert.Equal(t, domain.RoomVoting, room.room.State)
	assert.Contains(t, publishedTypes(t, env, RoomTopic(room.ID())), domain.EvtVotingStarted)

	endPhase(t, room) // voting -> night 2
	assert.Equal(t, domain.PhaseNight, room.room.Phase)
	assert.Equal(t, 2, room.room.DayNumber)
}

func TestHandleExpiryDropsStaleEntries(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseDayDiscussion, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)

	// An expiry for a phase the room already left does nothing.
	require.NoError(t, room.HandleExpiry(context.Background(), domain.PhaseNight))
	assert.Equal(t, domain.PhaseDayDiscussion, room.room.Phase)
}

func TestNightStartPromptsNightCapableRoles(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseRoleAssignment, 0,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleCupid,
		domain.RoleVillager, domain.RoleVillager)

	endPhase(t, room) // -> night 1

	wolfEvents := publishedTypes(t, env, PlayerTopic(room.ID(), at(t, room, 1).ID))
	assert.Contains(t, wolfEvents, domain.EvtNightAbility)

	cupidEvents := publishedTypes(t, env, PlayerTopic(room.ID(), at(t, room, 3).ID))
	assert.Contains(t, cupidEvents, domain.EvtNightAbility)
	assert.Contains(t, cupidEvents, domain.EvtFirstNightAction)

	villagerEvents := publishedTypes(t, env, PlayerTopic(room.ID(), at(t, room, 4).ID))
	assert.NotContains(t, villagerEvents, domain.EvtNightAbility)
}

func TestDisconnectDuringGameMarksPlayer(t *testing.T) {
	env := newTestEnv()
	room := buildRoom(t, env, domain.PhaseNight, 1,
		domain.RoleWerewolf, domain.RoleSeer, domain.RoleVillager,
		domain.RoleVillager, domain.RoleVillager)
	villager := at(t, room, 3)

	room.Disconnected(villager.UserID)
	require.Eventually(t, func() bool {
		room.mu.Lock()
		defer room.mu.Unlock()
		return villager.State == domain.PlayerDisconnected
	}, time.Second, 10*time.Millisecond)

	room.Reconnected(context.Background(), villager.UserID)
	assert.Equal(t, domain.PlayerAlive, villager.State)
}

func TestCancelIfAbandoned(t *testing.T) {
	env := newTestEnv()
	room := waitingRoom(t, env, 2)

	cancelled, err := room.CancelIfAbandoned(context.Background(), time.Now())
	require.NoError(t, err)
	assert.False(t, cancelled)

	cancelled, err = room.CancelIfAbandoned(context.Background(), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Equal(t, domain.RoomCancelled, room.room.State)
}
